package label

import "strings"

// Canonical world values as presented to players and stored on catalog rows.
const (
	OldWorld = "Old World"
	NewWorld = "New World"
)

// worldByCountry is the single Old World / New World membership table.
// Countries absent here yield "" (undetermined), which is a valid outcome.
var worldByCountry = map[string]string{
	"france":         OldWorld,
	"italy":          OldWorld,
	"spain":          OldWorld,
	"portugal":       OldWorld,
	"germany":        OldWorld,
	"austria":        OldWorld,
	"greece":         OldWorld,
	"hungary":        OldWorld,
	"georgia":        OldWorld,
	"croatia":        OldWorld,
	"switzerland":    OldWorld,
	"romania":        OldWorld,
	"bulgaria":       OldWorld,
	"slovenia":       OldWorld,
	"moldova":        OldWorld,
	"armenia":        OldWorld,
	"lebanon":        OldWorld,
	"england":        OldWorld,
	"united kingdom": OldWorld,

	"usa":           NewWorld,
	"united states": NewWorld,
	"australia":     NewWorld,
	"new zealand":   NewWorld,
	"argentina":     NewWorld,
	"chile":         NewWorld,
	"south africa":  NewWorld,
	"canada":        NewWorld,
	"uruguay":       NewWorld,
	"brazil":        NewWorld,
	"mexico":        NewWorld,
	"china":         NewWorld,
	"japan":         NewWorld,
}

// WorldFor classifies a country as Old World or New World. Unknown countries
// return "" rather than an error.
func WorldFor(country string) string {
	return worldByCountry[strings.ToLower(strings.TrimSpace(country))]
}
