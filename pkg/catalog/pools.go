package catalog

import (
	"context"
	"fmt"

	"winequiz/models"
)

// The scoped lookup surface: distinct countries, regions within a country and
// appellations within a region. Empty results are valid and never fatal;
// callers fall back to their fixed lists.

func (m *Matcher) Countries(ctx context.Context) ([]string, error) {
	var out []string
	err := m.DB.WithContext(ctx).Model(&models.Wine{}).
		Where("country <> ''").
		Distinct().Order("country").
		Pluck("country", &out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (m *Matcher) Regions(ctx context.Context, country string) ([]string, error) {
	q := m.DB.WithContext(ctx).Model(&models.Wine{}).Where("region <> ''")
	if country != "" {
		q = q.Where("country ILIKE ?", country)
	}
	var out []string
	if err := q.Distinct().Order("region").Pluck("region", &out).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

func (m *Matcher) Subregions(ctx context.Context, country, region string) ([]string, error) {
	q := m.DB.WithContext(ctx).Model(&models.Wine{}).Where("appellation <> ''")
	if country != "" {
		q = q.Where("country ILIKE ?", country)
	}
	if region != "" {
		q = q.Where("region ILIKE ?", region)
	}
	var out []string
	if err := q.Distinct().Order("appellation").Pluck("appellation", &out).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}
