package label

import (
	"sort"
	"strings"
)

// VarietyBlend is the canonical value when more than one grape is inferred.
const VarietyBlend = "Blend"

// varietyKeywords maps label substrings to canonical grape names. Keys are
// normalized (lowercase, accents stripped); longer keys shadow shorter ones
// only through canonical dedup, so "pinot noir" and "pinot meunier" can both
// match the same text.
var varietyKeywords = map[string]string{
	"chardonnay":    "Chardonnay",
	"riesling":      "Riesling",
	"pinot noir":    "Pinot Noir",
	"pinot meunier": "Pinot Meunier",
	"pinot grigio":  "Pinot Grigio",
	"pinot gris":    "Pinot Gris",
	"sauvignon blanc": "Sauvignon Blanc",
	"merlot":        "Merlot",
	"zinfandel":     "Zinfandel",
	"primitivo":     "Primitivo",
	"syrah":         "Syrah",
	"shiraz":        "Syrah",
	"cabernet":      "Cabernet Sauvignon",
	"sangiovese":    "Sangiovese",
	"nebbiolo":      "Nebbiolo",
	"tempranillo":   "Tempranillo",
	"grenache":      "Grenache",
	"garnacha":      "Grenache",
	"gamay":         "Gamay",
	"chenin":        "Chenin Blanc",
	"semillon":      "Semillon",
	"malbec":        "Malbec",
	"viognier":      "Viognier",
}

// styleWords are winemaking style cues. They are recorded as signals but must
// never be conflated with grape identity.
var styleWords = []string{
	"extra brut", "brut", "demi-sec", "sec", "doux", "dosage", "cuvee",
}

// sparklingCues flag a sparkling/Champagne style label. Accented spellings are
// handled by normalization, so only the stripped forms appear here.
var sparklingCues = []string{
	"champagne", "epernay", "methode traditionnelle", "sparkling",
	"cremant", "prosecco", "cava",
}

// scanVarietyKeywords collects every distinct canonical variety whose keyword
// appears in the normalized text, sorted for deterministic output.
func scanVarietyKeywords(norm string) []string {
	seen := map[string]struct{}{}
	for kw, canonical := range varietyKeywords {
		if strings.Contains(norm, kw) {
			seen[canonical] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func hasSparklingCue(norm string) bool {
	for _, cue := range sparklingCues {
		if strings.Contains(norm, cue) {
			return true
		}
	}
	return false
}

// findStyleWords returns the style cues present, longest-first so "extra brut"
// is not double counted as "brut".
func findStyleWords(norm string) []string {
	var out []string
	rest := norm
	for _, w := range styleWords {
		if strings.Contains(rest, w) {
			out = append(out, w)
			rest = strings.ReplaceAll(rest, w, " ")
		}
	}
	return out
}

func containsWord(norm, phrase string) bool {
	return strings.Contains(norm, phrase)
}
