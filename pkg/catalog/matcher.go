package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"

	"winequiz/models"
	"winequiz/pkg/label"
)

// maxSearchTokens caps how many label words feed the recall query.
const maxSearchTokens = 6

// Matcher finds a best-effort candidate wine for raw label text. It is
// recall-oriented: a single plausible row beats precision, and no match at
// all is a valid outcome.
type Matcher struct {
	DB      *gorm.DB
	Timeout time.Duration // per-query bound (default 5s)
}

// SearchTokens tokenizes label text into distinct lowercase alphabetic runs
// of length >= 3 (Unicode letters, so accented words survive), capped at the
// first few tokens.
func SearchTokens(text string) []string {
	var tokens []string
	seen := map[string]struct{}{}
	var run []rune
	flush := func() {
		if len(run) >= 3 {
			tok := strings.ToLower(string(run))
			if _, dup := seen[tok]; !dup {
				seen[tok] = struct{}{}
				tokens = append(tokens, tok)
			}
		}
		run = run[:0]
	}
	for _, r := range text {
		if unicode.IsLetter(r) {
			run = append(run, r)
			continue
		}
		flush()
		if len(tokens) >= maxSearchTokens {
			return tokens
		}
	}
	flush()
	if len(tokens) > maxSearchTokens {
		tokens = tokens[:maxSearchTokens]
	}
	return tokens
}

// Match queries the catalog for a single candidate. The narrowed query
// (variety/vintage from hints) runs first; zero rows falls back to the
// token-only search. nil,nil means no match; ErrUnavailable wraps transport
// failures.
func (m *Matcher) Match(ctx context.Context, text string, hints label.Hints) (*models.Wine, error) {
	tokens := SearchTokens(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wine, err := m.query(qctx, tokens, &hints)
	if err != nil {
		return nil, err
	}
	if wine == nil && (hints.InferredVariety != "" || hints.VintageYear != nil || hints.IsNonVintage) {
		// Hints were wrong or the catalog row disagrees; retry on tokens only.
		wine, err = m.query(qctx, tokens, nil)
		if err != nil {
			return nil, err
		}
	}
	if wine != nil && wine.World == "" {
		// Normalize once at the matcher boundary; unknown countries stay "".
		wine.World = label.WorldFor(wine.Country)
	}
	return wine, nil
}

func (m *Matcher) query(ctx context.Context, tokens []string, hints *label.Hints) (*models.Wine, error) {
	name := m.DB.Where("display_name ILIKE ?", like(tokens[0]))
	for _, tok := range tokens[1:] {
		name = name.Or("display_name ILIKE ?", like(tok))
	}
	q := m.DB.WithContext(ctx).Model(&models.Wine{}).Where(name)
	if hints != nil {
		if hints.InferredVariety != "" {
			q = q.Where("variety ILIKE ?", like(hints.InferredVariety))
		}
		if hints.IsNonVintage {
			q = q.Where("vintage IS NULL")
		} else if hints.VintageYear != nil {
			q = q.Where("vintage = ?", *hints.VintageYear)
		}
	}
	var wines []models.Wine
	if err := q.Order("id").Limit(1).Find(&wines).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(wines) == 0 {
		return nil, nil
	}
	return &wines[0], nil
}

func like(s string) string {
	return "%" + s + "%"
}
