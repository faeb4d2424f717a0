package quiz

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"winequiz/models"
	"winequiz/pkg/label"
)

// optionTarget is the option count every non-binary question is padded or
// truncated to.
const optionTarget = 4

// Builder constructs the question set for one round. Rand is injected so
// option order is deterministic under test and randomized in production.
type Builder struct {
	Pools         ChoicePools   // nil disables live lookups
	Rand          *rand.Rand    // required
	Year          int           // current year for vintage pools
	LookupTimeout time.Duration // bound on live pool lookups (default 3s)
}

// poolSet holds the live distractor pools gathered for a round.
type poolSet struct {
	countries  []string
	regions    []string
	subregions []string
}

// Build derives the question set from the matched record and the label hints.
// Questions are immutable once built for a round; re-derivation only happens
// on a new round. Live pool failures fall back silently to the seed lists, so
// the result always has a valid non-empty option set per question.
func (b *Builder) Build(ctx context.Context, wine *models.Wine, hints label.Hints) []Question {
	truth := TruthFrom(wine, hints)
	pools := b.gatherPools(ctx, wine)

	qs := make([]Question, 0, 6)
	qs = append(qs, b.worldQuestion(truth))
	qs = append(qs, b.varietyQuestion(truth, hints))
	qs = append(qs, b.vintageQuestion(truth, hints))
	qs = append(qs, b.ensureOptions(AttrCountry, truth.Country, firstNonEmpty(pools.countries, countrySeed)))
	qs = append(qs, b.ensureOptions(AttrRegion, truth.Region, firstNonEmpty(pools.regions, regionSeed)))
	// The sub-region question exists only when the matched record carries an
	// appellation and a broader context to scope distractors by.
	if truth.HasSubregion && (truth.Region != "" || truth.Country != "") {
		qs = append(qs, b.ensureOptions(AttrSubregion, truth.Subregion, firstNonEmpty(pools.subregions, subregionSeed)))
	}
	return qs
}

// gatherPools fans out the independent catalog lookups concurrently. There is
// no ordering requirement between them; only assembly waits for all. Errors
// and timeouts leave the corresponding pool nil.
func (b *Builder) gatherPools(ctx context.Context, wine *models.Wine) poolSet {
	var ps poolSet
	if b.Pools == nil {
		return ps
	}
	timeout := b.LookupTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	country, region := "", ""
	if wine != nil {
		country = wine.Country
		region = wine.Region
		if region == "" {
			region = wine.Appellation
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ps.countries, _ = b.Pools.Countries(lctx)
	}()
	go func() {
		defer wg.Done()
		ps.regions, _ = b.Pools.Regions(lctx, country)
	}()
	if wine != nil && wine.Appellation != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ps.subregions, _ = b.Pools.Subregions(lctx, country, region)
		}()
	}
	wg.Wait()
	return ps
}

func (b *Builder) worldQuestion(truth Truth) Question {
	opts := []string{label.OldWorld, label.NewWorld}
	b.shuffle(opts)
	return Question{Attribute: AttrWorld, Options: opts, CorrectIndex: indexOfFold(opts, truth.World)}
}

func (b *Builder) varietyQuestion(truth Truth, hints label.Hints) Question {
	pool := varietySeed
	if truth.Variety != "" && !containsFold(pool, truth.Variety) {
		// "Blend" and rarer catalog varieties are not in the seed list.
		pool = append([]string{truth.Variety}, pool...)
	}
	q := b.ensureOptions(AttrVariety, truth.Variety, pool)
	// Fizz with no usable grape signal: the label may genuinely not state a
	// variety, so offer that as an answer in place of one distractor.
	if hints.Sparkling && hints.Confidence.Variety < 0.5 && !containsFold(q.Options, NotStated) {
		for i := range q.Options {
			if i != q.CorrectIndex {
				q.Options[i] = NotStated
				break
			}
		}
	}
	return q
}

// vintageQuestion builds the NV/year option set. The correct value (NV or the
// target year) is never dropped by truncation, and a year truth always keeps
// NV among the options so the NV-or-not call stays part of the question.
func (b *Builder) vintageQuestion(truth Truth, hints label.Hints) Question {
	year := b.Year
	if year == 0 {
		year = time.Now().Year()
	}
	switch {
	case truth.Vintage == "NV":
		pool := []string{strconv.Itoa(year), strconv.Itoa(year - 1), strconv.Itoa(year - 2)}
		return b.ensureOptions(AttrVintage, "NV", pool)
	case truth.Vintage != "":
		t, _ := strconv.Atoi(truth.Vintage)
		pool := []string{
			strconv.Itoa(t - 1), strconv.Itoa(t + 1),
			strconv.Itoa(t - 2), strconv.Itoa(t + 2),
		}
		return b.ensureOptions(AttrVintage, truth.Vintage, pool, "NV")
	default:
		// No year, no NV signal: fixed recent-years pool, nothing scorable.
		pool := []string{"NV", strconv.Itoa(year), strconv.Itoa(year - 1), strconv.Itoa(year - 2), strconv.Itoa(year - 3)}
		return b.ensureOptions(AttrVintage, "", pool)
	}
}

// ensureOptions applies the ensure-four policy: pin the correct value and any
// pinned extras, pad with shuffled distractors from the pool, dedup
// case-insensitively, cap at the target and shuffle. With an empty correct
// value the question is still built (player picks freely) with
// CorrectIndex -1.
func (b *Builder) ensureOptions(attr Attribute, correct string, pool []string, pinned ...string) Question {
	seen := map[string]struct{}{}
	opts := make([]string, 0, optionTarget)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		opts = append(opts, s)
	}
	add(correct)
	for _, p := range pinned {
		add(p)
	}
	shuffled := append([]string(nil), pool...)
	b.shuffle(shuffled)
	for _, s := range shuffled {
		if len(opts) >= optionTarget {
			break
		}
		add(s)
	}
	b.shuffle(opts)
	return Question{Attribute: attr, Options: opts, CorrectIndex: indexOfFold(opts, correct)}
}

func (b *Builder) shuffle(s []string) {
	b.Rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

func indexOfFold(opts []string, v string) int {
	if strings.TrimSpace(v) == "" {
		return -1
	}
	for i, o := range opts {
		if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(v)) {
			return i
		}
	}
	return -1
}

func containsFold(opts []string, v string) bool {
	return indexOfFold(opts, v) >= 0
}

func firstNonEmpty(live, fallback []string) []string {
	if len(live) > 0 {
		return live
	}
	return fallback
}
