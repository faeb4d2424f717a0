package quiz

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"testing"

	"winequiz/models"
	"winequiz/pkg/label"
)

type stubPools struct {
	countries  []string
	regions    []string
	subregions []string
	err        error
}

func (s stubPools) Countries(ctx context.Context) ([]string, error) {
	return s.countries, s.err
}
func (s stubPools) Regions(ctx context.Context, country string) ([]string, error) {
	return s.regions, s.err
}
func (s stubPools) Subregions(ctx context.Context, country, region string) ([]string, error) {
	return s.subregions, s.err
}

func testBuilder(seed int64, pools ChoicePools) *Builder {
	return &Builder{Pools: pools, Rand: rand.New(rand.NewSource(seed)), Year: 2026}
}

func intPtr(v int) *int { return &v }

var bordeauxWine = &models.Wine{
	ID: 1, DisplayName: "Château Example", Country: "France", Region: "Bordeaux",
	Appellation: "Margaux", Variety: "Merlot", Vintage: intPtr(2015), World: label.OldWorld,
}

func questionFor(t *testing.T, qs []Question, attr Attribute) Question {
	t.Helper()
	for _, q := range qs {
		if q.Attribute == attr {
			return q
		}
	}
	t.Fatalf("no %s question in %+v", attr, qs)
	return Question{}
}

func TestBuildFullRecord(t *testing.T) {
	b := testBuilder(1, stubPools{
		countries:  []string{"France", "Italy", "Spain", "Germany", "Chile"},
		regions:    []string{"Bordeaux", "Burgundy", "Loire", "Rhône"},
		subregions: []string{"Margaux", "Pauillac", "Saint-Julien", "Pessac-Léognan"},
	})
	qs := b.Build(context.Background(), bordeauxWine, label.Hints{})
	if len(qs) != 6 {
		t.Fatalf("expected 6 questions got %d", len(qs))
	}
	// Every correct index must be in range and point at the declared truth.
	truth := TruthFrom(bordeauxWine, label.Hints{})
	want := map[Attribute]string{
		AttrWorld: truth.World, AttrVariety: truth.Variety, AttrVintage: truth.Vintage,
		AttrCountry: truth.Country, AttrRegion: truth.Region, AttrSubregion: truth.Subregion,
	}
	for _, q := range qs {
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			t.Fatalf("%s: correct index %d out of range (%d options)", q.Attribute, q.CorrectIndex, len(q.Options))
		}
		if !strings.EqualFold(q.Options[q.CorrectIndex], want[q.Attribute]) {
			t.Fatalf("%s: options[%d]=%q want %q", q.Attribute, q.CorrectIndex, q.Options[q.CorrectIndex], want[q.Attribute])
		}
	}
	v := questionFor(t, qs, AttrVintage)
	if len(v.Options) != 4 {
		t.Fatalf("vintage question must have 4 options got %v", v.Options)
	}
	if !containsFold(v.Options, "2015") || !containsFold(v.Options, "NV") {
		t.Fatalf("vintage options must include 2015 and NV: %v", v.Options)
	}
}

func TestBuildDeterministicUnderSeed(t *testing.T) {
	pools := stubPools{countries: []string{"France", "Italy", "Spain", "Germany"}}
	a := testBuilder(42, pools).Build(context.Background(), bordeauxWine, label.Hints{})
	b := testBuilder(42, pools).Build(context.Background(), bordeauxWine, label.Hints{})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed must yield same questions")
	}
}

func TestOptionsDedupCaseInsensitive(t *testing.T) {
	b := testBuilder(3, stubPools{countries: []string{"FRANCE", "france", "Italy", "Spain", "USA"}})
	q := questionFor(t, b.Build(context.Background(), bordeauxWine, label.Hints{}), AttrCountry)
	seen := map[string]bool{}
	for _, o := range q.Options {
		k := strings.ToLower(o)
		if seen[k] {
			t.Fatalf("duplicate option %q in %v", o, q.Options)
		}
		seen[k] = true
	}
}

func TestPoolErrorFallsBack(t *testing.T) {
	b := testBuilder(4, stubPools{err: errors.New("catalog down")})
	q := questionFor(t, b.Build(context.Background(), bordeauxWine, label.Hints{}), AttrCountry)
	if len(q.Options) < 2 {
		t.Fatalf("fallback pool expected, got %v", q.Options)
	}
	if !containsFold(q.Options, "France") {
		t.Fatalf("correct country must survive fallback: %v", q.Options)
	}
}

// recordingPools captures the scope arguments of the sub-region lookup.
type recordingPools struct {
	stubPools
	mu            sync.Mutex
	subregionArgs []string
}

func (r *recordingPools) Subregions(ctx context.Context, country, region string) ([]string, error) {
	r.mu.Lock()
	r.subregionArgs = []string{country, region}
	r.mu.Unlock()
	return r.subregions, r.err
}

func TestSubregionPoolScopedByAppellationFallback(t *testing.T) {
	// A record with an appellation but no region must still scope the
	// sub-region pool, using the appellation as the region.
	wine := &models.Wine{DisplayName: "Lone Cru", Country: "France", Appellation: "Margaux",
		Variety: "Merlot", Vintage: intPtr(2015)}
	pools := &recordingPools{stubPools: stubPools{subregions: []string{"Margaux", "Pauillac", "Saint-Julien"}}}
	testBuilder(11, pools).Build(context.Background(), wine, label.Hints{})
	want := []string{"France", "Margaux"}
	if !reflect.DeepEqual(pools.subregionArgs, want) {
		t.Fatalf("sub-region lookup scoped by %v, want %v", pools.subregionArgs, want)
	}
}

func TestSubregionOmittedWithoutAppellation(t *testing.T) {
	wine := &models.Wine{DisplayName: "Plain Red", Country: "France", Region: "Bordeaux", Variety: "Merlot", Vintage: intPtr(2015)}
	qs := testBuilder(5, nil).Build(context.Background(), wine, label.Hints{})
	for _, q := range qs {
		if q.Attribute == AttrSubregion {
			t.Fatalf("sub-region question must be omitted without appellation")
		}
	}
	if len(qs) != 5 {
		t.Fatalf("expected 5 questions got %d", len(qs))
	}
}

func TestVintageOptionsAlwaysIncludeNV(t *testing.T) {
	// NV must survive the cap to four options for every shuffle outcome,
	// not just a lucky seed.
	for seed := int64(0); seed < 100; seed++ {
		q := questionFor(t, testBuilder(seed, nil).Build(context.Background(), bordeauxWine, label.Hints{}), AttrVintage)
		if len(q.Options) != 4 {
			t.Fatalf("seed %d: expected 4 vintage options got %v", seed, q.Options)
		}
		if !containsFold(q.Options, "2015") {
			t.Fatalf("seed %d: vintage options %v lack the record year", seed, q.Options)
		}
		if !containsFold(q.Options, "NV") {
			t.Fatalf("seed %d: vintage options %v lack NV", seed, q.Options)
		}
	}
}

func TestVintageNVPool(t *testing.T) {
	wine := &models.Wine{DisplayName: "House Fizz", Country: "France", Variety: "Chardonnay"} // nil vintage = NV
	q := questionFor(t, testBuilder(6, nil).Build(context.Background(), wine, label.Hints{}), AttrVintage)
	if len(q.Options) != 4 {
		t.Fatalf("expected 4 vintage options got %v", q.Options)
	}
	if q.CorrectIndex < 0 || !strings.EqualFold(q.Options[q.CorrectIndex], "NV") {
		t.Fatalf("NV must be the pinned correct option: %+v", q)
	}
}

func TestVintageFallbackPoolNoSignal(t *testing.T) {
	q := questionFor(t, testBuilder(7, nil).Build(context.Background(), nil, label.Hints{}), AttrVintage)
	if len(q.Options) != 4 {
		t.Fatalf("expected 4 options got %v", q.Options)
	}
	if q.CorrectIndex != -1 {
		t.Fatalf("no-signal vintage question has no ground truth, got index %d", q.CorrectIndex)
	}
	allowed := map[string]bool{"NV": true, "2026": true, "2025": true, "2024": true, "2023": true}
	for _, o := range q.Options {
		if !allowed[o] {
			t.Fatalf("unexpected option %q in fallback pool %v", o, q.Options)
		}
	}
}

func TestNotStatedInjectedForWeakSparkling(t *testing.T) {
	hints := label.Hints{Sparkling: true, IsNonVintage: true}
	q := questionFor(t, testBuilder(8, nil).Build(context.Background(), nil, hints), AttrVariety)
	if !containsFold(q.Options, NotStated) {
		t.Fatalf("expected %q option for weak-signal sparkling round: %v", NotStated, q.Options)
	}
}

func TestNotStatedNotInjectedForStrongSignal(t *testing.T) {
	hints := label.Hints{Sparkling: true, InferredVariety: "Chardonnay",
		InferredVarieties: []string{"Chardonnay"}, Confidence: label.Confidence{Variety: 0.6}}
	q := questionFor(t, testBuilder(9, nil).Build(context.Background(), nil, hints), AttrVariety)
	if containsFold(q.Options, NotStated) {
		t.Fatalf("strong variety signal must not inject %q: %v", NotStated, q.Options)
	}
	if q.CorrectIndex < 0 || !strings.EqualFold(q.Options[q.CorrectIndex], "Chardonnay") {
		t.Fatalf("hint variety should be weak ground truth: %+v", q)
	}
}

func TestUnmatchedRoundHasNoGeographyTruth(t *testing.T) {
	qs := testBuilder(10, nil).Build(context.Background(), nil, label.Hints{})
	for _, attr := range []Attribute{AttrWorld, AttrCountry, AttrRegion} {
		if q := questionFor(t, qs, attr); q.CorrectIndex != -1 {
			t.Fatalf("%s: unmatched round must have no ground truth, got %d", attr, q.CorrectIndex)
		}
	}
}
