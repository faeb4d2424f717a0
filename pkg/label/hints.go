package label

import (
	"regexp"
	"strconv"
	"time"
)

// MinVintageYear is the lower bound for a plausible vintage year on a label.
// Bottles older than this are effectively absent from the catalog.
const MinVintageYear = 1950

// Confidence carries heuristic confidence for the extracted signals. These are
// not probabilities; they only gate whether the quiz surfaces an "uncertain"
// option downstream.
type Confidence struct {
	Variety float64 `json:"variety"`
	Vintage float64 `json:"vintage"`
}

// Hints is the structured result of scanning raw OCR text from a wine label.
// Invariants: IsNonVintage implies VintageYear == nil; more than one entry in
// InferredVarieties implies InferredVariety == "Blend".
type Hints struct {
	VintageYear       *int       `json:"vintage_year"`
	IsNonVintage      bool       `json:"is_non_vintage"`
	InferredVariety   string     `json:"inferred_variety"` // "" when no signal
	InferredVarieties []string   `json:"inferred_varieties"`
	Sparkling         bool       `json:"sparkling"`
	StyleWords        []string   `json:"style_words"`
	Confidence        Confidence `json:"confidence"`
}

var (
	yearRE = regexp.MustCompile(`\b(19[0-9]{2}|20[0-9]{2})\b`)
	nvRE   = regexp.MustCompile(`\bnv\b|non[-\s]?vintage`)
)

// ExtractHints scans raw OCR text and returns structured label hints. It is
// pure and total: any input, including the empty string, yields a valid Hints
// with zero confidence rather than an error.
func ExtractHints(text string) Hints {
	return extractHintsAt(text, time.Now().Year())
}

// extractHintsAt is the testable core with an explicit year ceiling.
func extractHintsAt(text string, maxYear int) Hints {
	norm := normalizeLabelText(text)
	h := Hints{}

	// Year candidate: first 4-digit token inside the plausible window. Labels
	// rarely print two plausible vintages, so first occurrence wins.
	for _, m := range yearRE.FindAllString(norm, -1) {
		y, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if y >= MinVintageYear && y <= maxYear {
			yv := y
			h.VintageYear = &yv
			h.Confidence.Vintage = 0.9
			break
		}
	}

	if nvRE.MatchString(norm) {
		h.IsNonVintage = true
		h.VintageYear = nil
		h.Confidence.Vintage = 0.8
	}

	h.Sparkling = hasSparklingCue(norm)
	// A clear fizz style with no plausible year reads as NV even without an
	// explicit marker (most sparkling wine is non-vintage).
	if h.Sparkling && h.VintageYear == nil && !h.IsNonVintage {
		h.IsNonVintage = true
		h.Confidence.Vintage = 0.4
	}

	h.StyleWords = findStyleWords(norm)

	vars, conf := inferVarieties(norm)
	h.InferredVarieties = vars
	h.Confidence.Variety = conf
	switch {
	case len(vars) == 1:
		h.InferredVariety = vars[0]
	case len(vars) > 1:
		h.InferredVariety = VarietyBlend
	}
	return h
}

// inferVarieties applies the variety rules in priority order: blanc de
// blancs/noirs first, then the keyword table. Keyword matches, when present,
// override the blanc-de inference.
func inferVarieties(norm string) ([]string, float64) {
	matched := scanVarietyKeywords(norm)
	if len(matched) == 1 {
		return matched, 0.6
	}
	if len(matched) > 1 {
		return matched, 0.5
	}
	if containsWord(norm, "blanc de blancs") {
		return []string{"Chardonnay"}, 0.5
	}
	if containsWord(norm, "blanc de noirs") {
		return []string{"Pinot Noir", "Pinot Meunier"}, 0.45
	}
	return nil, 0
}
