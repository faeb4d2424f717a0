package models

import "time"

// Round phases. Guesses are mutable only in built/guessing; scoring freezes
// the round permanently.
const (
	PhaseHints    = "hints"
	PhaseMatched  = "matched"
	PhaseBuilt    = "built"
	PhaseGuessing = "guessing"
	PhaseScored   = "scored"
)

// GameRound persists one play of the label-guessing game: the OCR text, the
// matched candidate (if any), the generated questions and the player's
// guesses. Hints/Questions/Guesses are stored as JSON blobs; the engine owns
// their shape.
type GameRound struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Token     string `gorm:"size:36;not null;uniqueIndex"` // share id (uuid)
	UserID    uint   `gorm:"index;not null"`
	OCRText   string `gorm:"type:text"`
	WineID    *uint  `gorm:"index"` // nil = no candidate matched
	Wine      *Wine  `gorm:"foreignKey:WineID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Hints     string `gorm:"type:text"`
	Questions string `gorm:"type:text"`
	Guesses   string `gorm:"type:text"`
	Phase     string `gorm:"size:16;not null;index"`
	Score     *int
	MaxScore  *int
}
