package models

import "time"

// Wine is a catalog record. Rows are read-only from the engine's point of
// view; writes happen only through seeding/import tooling.
type Wine struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DisplayName string `gorm:"size:255;not null;index"`
	Country     string `gorm:"size:128;index"`
	Region      string `gorm:"size:128"`
	Appellation string `gorm:"size:128"` // sub-region, may be empty
	Variety     string `gorm:"size:128"`
	Vintage     *int   `gorm:"index"` // nil = non-vintage
	World       string `gorm:"size:16"` // "Old World"/"New World", derived when absent
}
