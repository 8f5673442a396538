// Package story serves travel stories, their likes, bookmarks and comments.
package story

import (
	"context"
	"strings"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"
	"storybook/backend/internal/storage"

	"go.uber.org/zap"
)

type Store interface {
	storage.StoryStore
	GetGuideByUserID(ctx context.Context, userID string) (*models.Guide, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// MediaRemover deletes a stored object by the URL it was served under.
type MediaRemover interface {
	Remove(ctx context.Context, url string) error
}

type Service struct {
	store  Store
	media  MediaRemover
	logger *zap.Logger
}

func NewService(store Store, media MediaRemover, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, media: media, logger: logger}
}

// View is a story as returned by the API.
type View struct {
	models.Story
	// RegionID mirrors region_id1 for older clients.
	RegionID           *string `json:"region_id"`
	RegionName         *string `json:"region_name"`
	AuthorNickname     string  `json:"author_nickname"`
	AuthorProfileImage *string `json:"author_profile_image"`
	IsLiked            bool    `json:"is_liked"`
	IsBookmarked       bool    `json:"is_bookmarked"`
	CommentsCount      int64   `json:"comments_count"`
}

type List struct {
	Stories []View `json:"stories"`
	Total   int64  `json:"total"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
}

type ListInput struct {
	RegionCategory string
	City           string
	Sort           storage.StorySort
	Page           int
	Limit          int
}

type CreateInput struct {
	Title        string
	Content      *string
	MediaType    models.MediaType
	MediaURL     string
	ThumbnailURL *string
	Category     *string
	RegionID1    *string
	RegionID2    *string
}

type LikeResult struct {
	IsLiked   bool `json:"is_liked"`
	LikeCount int  `json:"like_count"`
}

func (s *Service) List(ctx context.Context, viewerID string, in ListInput) (*List, error) {
	return s.list(ctx, viewerID, in.Page, in.Limit, storage.StoryFilter{
		Region:     in.RegionCategory,
		City:       in.City,
		Sort:       in.Sort,
		ActiveOnly: true,
	})
}

// Bookmarks lists the active stories userID bookmarked.
func (s *Service) Bookmarks(ctx context.Context, userID string, page, limit int) (*List, error) {
	return s.list(ctx, userID, page, limit, storage.StoryFilter{BookmarkedBy: userID, ActiveOnly: true})
}

// Liked lists the active stories userID liked.
func (s *Service) Liked(ctx context.Context, userID string, page, limit int) (*List, error) {
	return s.list(ctx, userID, page, limit, storage.StoryFilter{LikedBy: userID, ActiveOnly: true})
}

// Authored lists the active stories written by userID.
func (s *Service) Authored(ctx context.Context, userID string, page, limit int) (*List, error) {
	return s.list(ctx, userID, page, limit, storage.StoryFilter{UserID: userID, ActiveOnly: true})
}

// Mine is Authored for guides, addressed by skip instead of page.
func (s *Service) Mine(ctx context.Context, userID string, skip, limit int) ([]View, int64, error) {
	if _, err := s.store.GetGuideByUserID(ctx, userID); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, 0, apperr.Forbidden("Only guides can list their stories")
		}
		return nil, 0, err
	}
	stories, total, err := s.store.ListStories(ctx, storage.StoryFilter{UserID: userID, ActiveOnly: true, Offset: skip, Limit: limit})
	if err != nil {
		return nil, 0, err
	}
	views, err := s.views(ctx, userID, stories)
	return views, total, err
}

func (s *Service) list(ctx context.Context, viewerID string, page, limit int, f storage.StoryFilter) (*List, error) {
	f.Offset = (page - 1) * limit
	f.Limit = limit
	stories, total, err := s.store.ListStories(ctx, f)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, viewerID, stories)
	if err != nil {
		return nil, err
	}
	return &List{Stories: views, Total: total, Page: page, Limit: limit}, nil
}

// Create publishes a story. Only approved guides may post.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*View, error) {
	guide, err := s.store.GetGuideByUserID(ctx, userID)
	if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}
	if guide == nil || !guide.IsApproved {
		return nil, apperr.Forbidden("Only approved guides can create stories")
	}

	st := &models.Story{
		UserID:       userID,
		GuideID:      &guide.ID,
		RegionID1:    in.RegionID1,
		RegionID2:    in.RegionID2,
		Title:        strings.TrimSpace(in.Title),
		Content:      in.Content,
		MediaType:    in.MediaType,
		MediaURL:     in.MediaURL,
		ThumbnailURL: in.ThumbnailURL,
		Category:     in.Category,
		IsActive:     true,
	}
	if err := s.store.CreateStory(ctx, st); err != nil {
		return nil, err
	}
	s.logger.Info("story created", zap.String("story_id", st.ID), zap.String("user_id", userID))

	views, err := s.views(ctx, userID, []models.Story{*st})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Get returns a story and counts the view.
func (s *Service) Get(ctx context.Context, id, viewerID string) (*View, error) {
	count, err := s.store.IncrementViewCount(ctx, id, false)
	if err != nil {
		return nil, err
	}
	st, err := s.store.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	st.ViewCount = count

	views, err := s.views(ctx, viewerID, []models.Story{*st})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// CountView bumps the view counter of an active story.
func (s *Service) CountView(ctx context.Context, id string) (int, error) {
	return s.store.IncrementViewCount(ctx, id, true)
}

func (s *Service) ToggleLike(ctx context.Context, storyID, userID string) (*LikeResult, error) {
	liked, count, err := s.store.ToggleLike(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{IsLiked: liked, LikeCount: count}, nil
}

func (s *Service) ToggleBookmark(ctx context.Context, storyID, userID string) (bool, error) {
	return s.store.ToggleBookmark(ctx, storyID, userID)
}

// Delete removes the author's story with everything attached to it, then its
// media objects unless another story still uses them. Object removal is
// best effort.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	st, err := s.store.GetStory(ctx, id)
	if err != nil {
		return err
	}
	if st.UserID != userID {
		return apperr.Forbidden("You can only delete your own stories")
	}
	if err := s.store.DeleteStoryCascade(ctx, id); err != nil {
		return err
	}
	s.logger.Info("story deleted", zap.String("story_id", id), zap.String("user_id", userID))

	if s.media == nil {
		return nil
	}
	urls := []string{st.MediaURL}
	if st.ThumbnailURL != nil && *st.ThumbnailURL != st.MediaURL {
		urls = append(urls, *st.ThumbnailURL)
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		// Another story may point at the same object.
		refs, err := s.store.CountMediaReferences(ctx, u)
		if err != nil {
			s.logger.Warn("media reference check failed", zap.String("story_id", id), zap.String("url", u), zap.Error(err))
			continue
		}
		if refs > 0 {
			s.logger.Info("media kept, still referenced", zap.String("story_id", id), zap.String("url", u), zap.Int64("refs", refs))
			continue
		}
		if err := s.media.Remove(ctx, u); err != nil {
			s.logger.Warn("media cleanup failed", zap.String("story_id", id), zap.String("url", u), zap.Error(err))
		}
	}
	return nil
}

// SetActive hides or restores a story.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.store.SetStoryActive(ctx, id, active); err != nil {
		return err
	}
	s.logger.Info("story visibility changed", zap.String("story_id", id), zap.Bool("active", active))
	return nil
}

func (s *Service) views(ctx context.Context, viewerID string, stories []models.Story) ([]View, error) {
	if len(stories) == 0 {
		return []View{}, nil
	}

	ids := make([]string, 0, len(stories))
	authors := make([]string, 0, len(stories))
	for _, st := range stories {
		ids = append(ids, st.ID)
		authors = append(authors, st.UserID)
	}

	users, err := s.store.GetUsersByIDs(ctx, authors)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.CommentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	liked, err := s.store.LikedStoryIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	marked, err := s.store.BookmarkedStoryIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]View, 0, len(stories))
	for _, st := range stories {
		v := View{
			Story:          st,
			RegionID:       st.RegionID1,
			RegionName:     st.RegionName(),
			AuthorNickname: "Unknown",
			IsLiked:        liked[st.ID],
			IsBookmarked:   marked[st.ID],
			CommentsCount:  comments[st.ID],
		}
		if u, ok := users[st.UserID]; ok {
			v.AuthorNickname = u.Nickname
			v.AuthorProfileImage = u.ProfileImage
		}
		out = append(out, v)
	}
	return out, nil
}
