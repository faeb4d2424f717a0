package models

import "time"

// PointsEntry is one score award in the local points ledger. The unique index
// on RoundID enforces at-most-once awarding per completed round.
type PointsEntry struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint `gorm:"index;not null"`
	RoundID   uint `gorm:"not null;uniqueIndex"`
	Points    int  `gorm:"not null"`
	MaxPoints int  `gorm:"not null"`
}
