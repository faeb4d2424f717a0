package quiz

// Attribute identifies which wine attribute a question asks about.
type Attribute string

const (
	AttrWorld     Attribute = "world"
	AttrVariety   Attribute = "variety"
	AttrVintage   Attribute = "vintage"
	AttrCountry   Attribute = "country"
	AttrRegion    Attribute = "region"
	AttrSubregion Attribute = "subregion"
)

// Question is one multiple-choice question. Options are deduplicated
// case-insensitively and shuffled; when a ground truth exists it is always
// among them and CorrectIndex points at it. CorrectIndex is -1 when the round
// has no ground truth for the attribute (the question is shown but not
// scored).
type Question struct {
	Attribute    Attribute `json:"attribute"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correct_index"`
}
