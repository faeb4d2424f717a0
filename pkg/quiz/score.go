package quiz

import (
	"strconv"
	"strings"

	"winequiz/models"
	"winequiz/pkg/label"
)

// Guess holds the player's selected option per attribute. Unset attributes
// are empty strings and simply score as incorrect.
type Guess struct {
	World     string `json:"world"`
	Variety   string `json:"variety"`
	Vintage   string `json:"vintage"`
	Country   string `json:"country"`
	Region    string `json:"region"`
	Subregion string `json:"subregion"`
}

// Set assigns one attribute's guess. Unknown attributes return false.
func (g *Guess) Set(attr Attribute, value string) bool {
	switch attr {
	case AttrWorld:
		g.World = value
	case AttrVariety:
		g.Variety = value
	case AttrVintage:
		g.Vintage = value
	case AttrCountry:
		g.Country = value
	case AttrRegion:
		g.Region = value
	case AttrSubregion:
		g.Subregion = value
	default:
		return false
	}
	return true
}

// Truth is the canonical ground truth a round is scored against. Empty
// fields have no scorable answer. HasSubregion drives the variable max.
type Truth struct {
	World     string `json:"world"`
	Variety   string `json:"variety"`
	Vintage   string `json:"vintage"` // "NV" or a 4-digit year
	Country   string `json:"country"`
	Region    string `json:"region"`
	Subregion string `json:"subregion"`
	HasSubregion bool `json:"has_subregion"`
}

// TruthFrom derives ground truth from the matched record, falling back to
// the label hints as weak truth for variety/vintage when no record matched.
func TruthFrom(wine *models.Wine, hints label.Hints) Truth {
	if wine == nil {
		t := Truth{Variety: hints.InferredVariety}
		if hints.IsNonVintage {
			t.Vintage = "NV"
		} else if hints.VintageYear != nil {
			t.Vintage = strconv.Itoa(*hints.VintageYear)
		}
		return t
	}
	t := Truth{
		World:     wine.World,
		Variety:   wine.Variety,
		Country:   wine.Country,
		Region:    wine.Region,
		Subregion: wine.Appellation,
	}
	if t.World == "" {
		t.World = label.WorldFor(wine.Country)
	}
	if t.Region == "" {
		t.Region = wine.Appellation
	}
	if wine.Vintage != nil {
		t.Vintage = strconv.Itoa(*wine.Vintage)
	} else {
		t.Vintage = "NV"
	}
	t.HasSubregion = strings.TrimSpace(wine.Appellation) != ""
	return t
}

// Result is a terminal score: Max is 5, or 6 when a sub-region ground truth
// exists.
type Result struct {
	Score int `json:"score"`
	Max   int `json:"max"`
}

// Score compares guesses against truth with trimmed, case-insensitive exact
// equality. No partial credit, no fuzzy matching; canonicalization is the
// option builder's burden. A missing guess is simply wrong, never an error.
func Score(g Guess, truth Truth) Result {
	r := Result{Max: 5}
	if truth.HasSubregion {
		r.Max = 6
	}
	pairs := [][2]string{
		{g.World, truth.World},
		{g.Variety, truth.Variety},
		{g.Vintage, truth.Vintage},
		{g.Country, truth.Country},
		{g.Region, truth.Region},
	}
	if truth.HasSubregion {
		pairs = append(pairs, [2]string{g.Subregion, truth.Subregion})
	}
	for _, p := range pairs {
		if answerEqual(p[0], p[1]) {
			r.Score++
		}
	}
	return r
}

func answerEqual(guess, truth string) bool {
	truth = strings.TrimSpace(truth)
	if truth == "" {
		return false // no ground truth, nothing to award
	}
	return strings.EqualFold(strings.TrimSpace(guess), truth)
}
