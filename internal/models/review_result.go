package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReviewResult stores one automated-review attempt. The latest row by
// insertion order is authoritative for display.
type ReviewResult struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SubmissionID uint           `gorm:"not null;index" json:"submission_id"`
	Verdict      string         `gorm:"size:32" json:"verdict"`
	Reason       string         `gorm:"type:text" json:"reason"`
	DebugText    string         `gorm:"type:text" json:"debug_text"`
	Findings     datatypes.JSON `json:"findings"`
	CreatedAt    time.Time      `json:"created_at"`
}
