package models

import (
	"time"

	"gorm.io/gorm"
)

// StoryReport is a user's report against a story. A reporter can report a
// given story once.
type StoryReport struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	StoryID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_story_report_reporter" json:"story_id"`
	ReporterID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_story_report_reporter" json:"reporter_id"`
	Reason      string    `gorm:"type:varchar(100);not null" json:"reason"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r *StoryReport) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&r.ID)
	return
}
