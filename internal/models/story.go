package models

import (
	"time"

	"gorm.io/gorm"
)

type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
	MediaTypePDF   MediaType = "pdf"
	MediaTypeAudio MediaType = "audio"
)

// Story is a media post written by an approved guide.
type Story struct {
	ID      string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID  string  `gorm:"type:varchar(36);not null;index" json:"user_id"`
	GuideID *string `gorm:"type:varchar(36);index" json:"guide_id"`
	// RegionID1 is the region category (수도권, 강원, ...), RegionID2 the city.
	RegionID1    *string   `gorm:"column:region_id1;type:varchar(50);index" json:"region_id1"`
	RegionID2    *string   `gorm:"column:region_id2;type:varchar(50);index" json:"region_id2"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Content      *string   `gorm:"type:text" json:"content"`
	MediaType    MediaType `gorm:"type:varchar(10);not null" json:"media_type"`
	MediaURL     string    `gorm:"type:varchar(500);not null" json:"media_url"`
	ThumbnailURL *string   `gorm:"type:varchar(500)" json:"thumbnail_url"`
	Category     *string   `gorm:"type:varchar(50)" json:"category"`
	ViewCount    int       `gorm:"default:0" json:"view_count"`
	LikeCount    int       `gorm:"default:0" json:"like_count"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *Story) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&s.ID)
	return
}

// RegionName joins the category and city, or returns nil when either is unset.
func (s *Story) RegionName() *string {
	if s.RegionID1 == nil || s.RegionID2 == nil || *s.RegionID1 == "" || *s.RegionID2 == "" {
		return nil
	}
	name := *s.RegionID1 + " " + *s.RegionID2
	return &name
}

type StoryLike struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_story_like_user" json:"user_id"`
	StoryID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_story_like_user;index" json:"story_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *StoryLike) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&l.ID)
	return
}

type StoryBookmark struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_story_bookmark_user" json:"user_id"`
	StoryID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_story_bookmark_user;index" json:"story_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (b *StoryBookmark) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&b.ID)
	return
}

// StoryComment is a comment or, when ParentID is set, a reply to a
// top-level comment on the same story.
type StoryComment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	StoryID   string    `gorm:"type:varchar(36);not null;index" json:"story_id"`
	UserID    string    `gorm:"type:varchar(36);not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ParentID  *string   `gorm:"type:varchar(36);index" json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *StoryComment) BeforeCreate(tx *gorm.DB) (err error) {
	assignID(&c.ID)
	return
}
