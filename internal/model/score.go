package model

import (
	"time"
)

// ScoreEvent records the aggregate score of one completed analysis run.
// Rows are append-only; there is no update or delete path.
type ScoreEvent struct {
	ID        uint      `gorm:"primaryKey"`
	Owner     string    `gorm:"size:100;index;not null"`
	Timestamp time.Time `gorm:"index;not null"`
	Score     int       `gorm:"not null"`
}

// TableName returns the table name for ScoreEvent
func (ScoreEvent) TableName() string {
	return "scores"
}
