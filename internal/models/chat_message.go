package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatMessage is a message saved in a chat room. It is only ever mutated to
// flip IsRead, and is deleted together with its room.
type ChatMessage struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
	// ChatRoomID is the room the message was sent in.
	ChatRoomID string `gorm:"type:varchar(36);not null;index:idx_room_created" json:"chat_room_id"`
	// MatchingRequestID keeps the older per-request link for clients that still use it.
	MatchingRequestID *string `gorm:"type:varchar(36);index" json:"matching_request_id"`
	SenderID          string  `gorm:"type:varchar(36);not null" json:"sender_id"`
	// ReceiverID is always the other party of the room.
	ReceiverID string    `gorm:"type:varchar(36);not null;index" json:"receiver_id"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"index:idx_room_created" json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&m.ID)
	return
}
