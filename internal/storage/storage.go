// Package storage is the persisted store behind every service. Each concern
// gets a narrow interface; *Service implements all of them over gorm.
package storage

import (
	"context"
	"errors"
	"time"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"

	"gorm.io/gorm"
)

type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	UpsertKakaoUser(ctx context.Context, u *models.User) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id string, nickname, profileImage *string) (*models.User, error)
}

type TokenStore interface {
	SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type GuideStore interface {
	CreateGuide(ctx context.Context, g *models.Guide) error
	GetGuideByID(ctx context.Context, id string) (*models.Guide, error)
	GetGuideByUserID(ctx context.Context, userID string) (*models.Guide, error)
	GetGuidesByIDs(ctx context.Context, ids []string) (map[string]models.Guide, error)
	SetGuideApproval(ctx context.Context, id string, approved bool) error
}

type MatchingStore interface {
	CreateMatchingRequest(ctx context.Context, req *models.MatchingRequest) error
	GetMatchingRequest(ctx context.Context, id string) (*models.MatchingRequest, error)
	TransitionMatchingRequest(ctx context.Context, id, guideID string, to models.MatchingStatus) (*models.MatchingRequest, *models.ChatRoom, error)
	DeleteMatchingRequestCascade(ctx context.Context, id string) error
	ListMatchingRequests(ctx context.Context, f MatchingFilter) ([]models.MatchingRequest, int64, error)
	FindRoomForRequest(ctx context.Context, req *models.MatchingRequest, guideUserID string) (*models.ChatRoom, error)
}

type ChatStore interface {
	GetOrCreateRoom(ctx context.Context, userID, guideUserID string, matchingRequestID *string) (*models.ChatRoom, error)
	GetRoom(ctx context.Context, id string) (*models.ChatRoom, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error)
	UnreadCounts(ctx context.Context, roomIDs []string, userID string) (map[string]int64, error)
	SaveMessage(ctx context.Context, room *models.ChatRoom, msg *models.ChatMessage) error
	MarkMessagesRead(ctx context.Context, roomID, readerID string, ids []string) ([]string, error)
	ListMessages(ctx context.Context, roomID string, limit, offset int) ([]models.ChatMessage, error)
}

type StoryStore interface {
	CreateStory(ctx context.Context, s *models.Story) error
	GetStory(ctx context.Context, id string) (*models.Story, error)
	GetStoriesByIDs(ctx context.Context, ids []string) (map[string]models.Story, error)
	ListStories(ctx context.Context, f StoryFilter) ([]models.Story, int64, error)
	IncrementViewCount(ctx context.Context, id string, activeOnly bool) (int, error)
	ToggleLike(ctx context.Context, storyID, userID string) (bool, int, error)
	ToggleBookmark(ctx context.Context, storyID, userID string) (bool, error)
	LikedStoryIDs(ctx context.Context, userID string, storyIDs []string) (map[string]bool, error)
	BookmarkedStoryIDs(ctx context.Context, userID string, storyIDs []string) (map[string]bool, error)
	CommentCounts(ctx context.Context, storyIDs []string) (map[string]int64, error)
	CreateComment(ctx context.Context, c *models.StoryComment) error
	GetComment(ctx context.Context, id string) (*models.StoryComment, error)
	ListComments(ctx context.Context, storyID string) ([]models.StoryComment, error)
	DeleteStoryCascade(ctx context.Context, id string) error
	CountMediaReferences(ctx context.Context, url string) (int64, error)
	SetStoryActive(ctx context.Context, id string, active bool) error
}

type ReportStore interface {
	CreateReport(ctx context.Context, r *models.StoryReport) error
	ListReports(ctx context.Context, storyID string) ([]models.StoryReport, error)
}

type RegionStore interface {
	ListRegions(ctx context.Context, search string) ([]models.Region, error)
	ListMappedRegions(ctx context.Context) ([]models.Region, error)
	GetRegion(ctx context.Context, id string) (*models.Region, error)
	FindRegions(ctx context.Context, q RegionQuery) ([]models.Region, error)
	PopularCategories(ctx context.Context, category, city string, n int) ([]string, error)
	ReplaceRegions(ctx context.Context, regions []models.Region) error
}

// Storage is the full persisted store.
type Storage interface {
	UserStore
	TokenStore
	GuideStore
	MatchingStore
	ChatStore
	StoryStore
	ReportStore
	RegionStore
}

type Service struct {
	DB *gorm.DB
}

var _ Storage = (*Service)(nil)

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// notFound turns gorm.ErrRecordNotFound into an apperr NotFound with msg and
// passes every other error through.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

// conflict turns a unique-index violation into an apperr Conflict with msg.
func conflict(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.KindConflict, msg, err)
	}
	return err
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
