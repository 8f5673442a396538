package models

import (
	"time"

	"gorm.io/gorm"
)

type Region struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	RegionName string    `gorm:"type:varchar(100);not null" json:"region_name"`
	City       string    `gorm:"type:varchar(50);not null;index" json:"city"`
	District   *string   `gorm:"type:varchar(50)" json:"district"`
	Latitude   *float64  `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude  *float64  `gorm:"type:decimal(11,8)" json:"longitude"`
	StoryCount int       `gorm:"default:0" json:"story_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *Region) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&r.ID)
	return
}
