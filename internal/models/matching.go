package models

import (
	"time"

	"gorm.io/gorm"
)

type MatchingType string

const (
	MatchingTypeOnlineChat MatchingType = "online_chat"
	MatchingTypeGuideTour  MatchingType = "guide_tour"
	MatchingTypeHomeVisit  MatchingType = "home_visit"
)

func (t MatchingType) Valid() bool {
	switch t {
	case MatchingTypeOnlineChat, MatchingTypeGuideTour, MatchingTypeHomeVisit:
		return true
	}
	return false
}

type MatchingStatus string

const (
	MatchingStatusPending   MatchingStatus = "pending"
	MatchingStatusAccepted  MatchingStatus = "accepted"
	MatchingStatusRejected  MatchingStatus = "rejected"
	MatchingStatusCompleted MatchingStatus = "completed"
	MatchingStatusCancelled MatchingStatus = "cancelled"
)

func (s MatchingStatus) Valid() bool {
	switch s {
	case MatchingStatusPending, MatchingStatusAccepted, MatchingStatusRejected,
		MatchingStatusCompleted, MatchingStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s. Only pending is not terminal.
func (s MatchingStatus) Terminal() bool {
	return s != MatchingStatusPending
}

// Active reports whether a request in status s blocks a new request for the
// same requester and guide.
func (s MatchingStatus) Active() bool {
	return s == MatchingStatusPending || s == MatchingStatusAccepted
}

// CanTransition reports whether from -> to is legal. The only legal moves are
// pending -> accepted | rejected | completed | cancelled.
func CanTransition(from, to MatchingStatus) bool {
	return from == MatchingStatusPending && to.Valid() && to != MatchingStatusPending
}

// MatchingRequest is a traveler's ask to a guide.
type MatchingRequest struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string         `gorm:"type:varchar(36);not null;index" json:"user_id"`
	GuideID       string         `gorm:"type:varchar(36);not null;index" json:"guide_id"`
	StoryID       *string        `gorm:"type:varchar(36)" json:"story_id"`
	MatchingType  MatchingType   `gorm:"type:varchar(20);not null" json:"matching_type"`
	Status        MatchingStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	RequestedDate string         `gorm:"type:varchar(10);not null" json:"requested_date"`
	RequestedTime *string        `gorm:"type:varchar(8)" json:"requested_time"`
	Message       *string        `gorm:"type:text" json:"message"`
	// ActiveKey is "requester:guide" while the request is pending or accepted
	// and NULL otherwise. Its unique index rejects a second active request.
	ActiveKey *string   `gorm:"type:varchar(80);uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *MatchingRequest) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&m.ID)
	return
}

// PairKey is the ActiveKey value for a requester and guide.
func PairKey(userID, guideID string) string {
	return userID + ":" + guideID
}
