package quiz

import (
	"testing"

	"winequiz/models"
	"winequiz/pkg/label"
)

func TestScoreAllCorrectReachesMax(t *testing.T) {
	truth := TruthFrom(bordeauxWine, label.Hints{})
	g := Guess{World: "old world", Variety: "MERLOT", Vintage: "2015",
		Country: " France ", Region: "bordeaux", Subregion: "Margaux"}
	r := Score(g, truth)
	if r.Max != 6 {
		t.Fatalf("expected max 6 with appellation got %d", r.Max)
	}
	if r.Score != r.Max {
		t.Fatalf("case/whitespace variants must all match: got %d/%d", r.Score, r.Max)
	}
}

func TestScoreAllWrong(t *testing.T) {
	truth := TruthFrom(bordeauxWine, label.Hints{})
	g := Guess{World: "New World", Variety: "Syrah", Vintage: "NV",
		Country: "Italy", Region: "Tuscany", Subregion: "Barolo"}
	if r := Score(g, truth); r.Score != 0 {
		t.Fatalf("expected 0 got %d", r.Score)
	}
}

func TestScoreMaxWithoutSubregion(t *testing.T) {
	wine := &models.Wine{DisplayName: "Plain", Country: "France", Region: "Bordeaux", Variety: "Merlot", Vintage: intPtr(2015)}
	r := Score(Guess{}, TruthFrom(wine, label.Hints{}))
	if r.Max != 5 {
		t.Fatalf("expected max 5 without appellation got %d", r.Max)
	}
}

func TestScoreMissingGuessIsWrongNotError(t *testing.T) {
	truth := TruthFrom(bordeauxWine, label.Hints{})
	r := Score(Guess{Variety: "Merlot"}, truth)
	if r.Score != 1 {
		t.Fatalf("only the variety guess should score: got %d", r.Score)
	}
}

func TestEmptyTruthNeverMatches(t *testing.T) {
	// Unmatched round: empty geography truths must not be satisfiable, even
	// by an empty guess.
	truth := TruthFrom(nil, label.Hints{})
	if r := Score(Guess{}, truth); r.Score != 0 {
		t.Fatalf("empty truth matched empty guess: %+v", r)
	}
}

func TestTruthDerivesWorldAndRegionFallback(t *testing.T) {
	wine := &models.Wine{DisplayName: "Village Red", Country: "France", Appellation: "Pommard", Variety: "Pinot Noir", Vintage: intPtr(2019)}
	truth := TruthFrom(wine, label.Hints{})
	if truth.World != label.OldWorld {
		t.Fatalf("world should derive from country, got %q", truth.World)
	}
	if truth.Region != "Pommard" {
		t.Fatalf("region should fall back to appellation, got %q", truth.Region)
	}
	if !truth.HasSubregion {
		t.Fatalf("appellation present means sub-region truth exists")
	}
}

func TestTruthFromHintsOnly(t *testing.T) {
	y := 2015
	truth := TruthFrom(nil, label.Hints{VintageYear: &y, InferredVariety: "Merlot"})
	if truth.Vintage != "2015" || truth.Variety != "Merlot" {
		t.Fatalf("hints should provide weak truth: %+v", truth)
	}
	if truth.Country != "" || truth.World != "" || truth.HasSubregion {
		t.Fatalf("no geography truth without a record: %+v", truth)
	}
}
