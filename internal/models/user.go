package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account created on the first successful Kakao login.
// KakaoID never changes after creation.
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	KakaoID      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`
	Email        *string   `gorm:"type:varchar(255)" json:"email"`
	Nickname     string    `gorm:"type:varchar(100);not null" json:"nickname"`
	ProfileImage *string   `gorm:"type:varchar(500)" json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate is a GORM hook that assigns a UUID when the ID is empty.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&u.ID)
	return
}

// RefreshToken is a persisted refresh JWT. Deleting the row revokes it.
type RefreshToken struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Token     string    `gorm:"type:varchar(500);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&t.ID)
	return
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

func assignID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}
