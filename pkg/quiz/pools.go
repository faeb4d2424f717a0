package quiz

import "context"

// ChoicePools supplies live distractor pools from the wine catalog. Each call
// may return an empty slice or an error; both degrade to the fixed seed lists
// below and never fail question building.
type ChoicePools interface {
	Countries(ctx context.Context) ([]string, error)
	Regions(ctx context.Context, country string) ([]string, error)
	Subregions(ctx context.Context, country, region string) ([]string, error)
}

// NotStated is injected as a variety option on sparkling rounds with no
// usable grape signal (the label genuinely may not say).
const NotStated = "Not stated"

// varietySeed is the fixed distractor pool of internationally common grapes.
var varietySeed = []string{
	"Chardonnay", "Sauvignon Blanc", "Riesling", "Pinot Noir", "Merlot",
	"Cabernet Sauvignon", "Syrah", "Grenache", "Tempranillo", "Sangiovese",
	"Nebbiolo", "Zinfandel", "Malbec", "Chenin Blanc", "Pinot Gris",
	"Gamay", "Viognier", "Semillon",
}

// Fallback pools used when the live lookups are unavailable or empty.
var (
	countrySeed = []string{"France", "Italy", "USA", "Spain", "Australia"}
	regionSeed  = []string{
		"Bordeaux", "Burgundy", "Tuscany", "Rioja", "Napa Valley", "Barossa Valley",
	}
	subregionSeed = []string{"Margaux", "Pauillac", "Chablis", "Barolo"}
)
