package models

import "time"

// LabelUpload tracks an uploaded label photo and the round it produced.
// Failed uploads keep their record (with reason) so they can be reviewed and
// retried instead of silently disappearing.
type LabelUpload struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID      uint   `gorm:"index;not null;uniqueIndex:idx_user_label_file"`
	FileName    string `gorm:"size:255;not null;uniqueIndex:idx_user_label_file"`
	StorePath   string `gorm:"column:store_path;size:512"`
	ContentType string `gorm:"size:128"`
	RoundID      *uint  `gorm:"index"` // FK to game_rounds.id (nullable)
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
