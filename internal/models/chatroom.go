package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatRoom is the conversation between a traveler and a guide.
// There is at most one active room per (traveler, guide) pair.
type ChatRoom struct {
	// ID is the unique identifier for the chat room (UUID).
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
	// UserID is the traveler's user id.
	UserID string `gorm:"type:varchar(36);not null;index" json:"user_id"`
	// GuideID is the guide's user id, not the guides.id value.
	GuideID string `gorm:"type:varchar(36);not null;index" json:"guide_id"`
	// MatchingRequestID links the request whose acceptance created or reused the room.
	MatchingRequestID *string `gorm:"type:varchar(36);index" json:"matching_request_id"`
	// LastMessage and LastMessageAt are a denormalized preview for list sorting.
	LastMessage   *string    `gorm:"type:text" json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	// IsActive indicates whether the chat room accepts messages.
	IsActive bool `gorm:"default:true" json:"is_active"`
	// ActiveKey is "user:guide" while the room is active. Unique.
	ActiveKey *string   `gorm:"type:varchar(80);uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *ChatRoom) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&r.ID)
	return
}

// HasParty reports whether userID is one of the two room members.
func (r *ChatRoom) HasParty(userID string) bool {
	return userID == r.UserID || userID == r.GuideID
}

// Counterpart returns the member that is not userID.
func (r *ChatRoom) Counterpart(userID string) string {
	if userID == r.UserID {
		return r.GuideID
	}
	return r.UserID
}
