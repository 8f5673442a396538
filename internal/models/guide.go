package models

import (
	"time"

	"gorm.io/gorm"
)

// Guide extends a User who offers tours, chat or home visits.
// There is at most one Guide per user.
type Guide struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Bio          string    `gorm:"type:text" json:"bio"`
	Rating       float64   `gorm:"type:decimal(3,2);default:0" json:"rating"`
	TotalReviews int       `gorm:"default:0" json:"total_reviews"`
	IsApproved   bool      `gorm:"default:false" json:"is_approved"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (g *Guide) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&g.ID)
	return
}
