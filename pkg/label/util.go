package label

import "strings"

var accentFold = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"ç", "c",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
)

// normalizeLabelText lowercases, folds common accented letters and collapses
// whitespace so the cue tables can use plain substring matching.
func normalizeLabelText(t string) string {
	t = strings.ToLower(t)
	t = accentFold.Replace(t)
	return strings.Join(strings.Fields(t), " ")
}
