package storage

import (
	"context"
	"errors"

	"storybook/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StorySort string

const (
	StorySortLatest  StorySort = "latest"
	StorySortPopular StorySort = "popular"
)

// StoryFilter selects stories for ListStories. Region narrows by category
// when set, else by City.
type StoryFilter struct {
	Region       string
	City         string
	UserID       string
	LikedBy      string
	BookmarkedBy string
	ActiveOnly   bool
	Sort         StorySort
	Offset       int
	Limit        int
}

func (s *Service) CreateStory(ctx context.Context, st *models.Story) error {
	return s.DB.WithContext(ctx).Create(st).Error
}

func (s *Service) GetStory(ctx context.Context, id string) (*models.Story, error) {
	var st models.Story
	if err := s.DB.WithContext(ctx).First(&st, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Story not found")
	}
	return &st, nil
}

func (s *Service) GetStoriesByIDs(ctx context.Context, ids []string) (map[string]models.Story, error) {
	out := make(map[string]models.Story)
	ids = uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var stories []models.Story
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&stories).Error; err != nil {
		return nil, err
	}
	for _, st := range stories {
		out[st.ID] = st
	}
	return out, nil
}

func (s *Service) ListStories(ctx context.Context, f StoryFilter) ([]models.Story, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Story{})
	if f.ActiveOnly {
		q = q.Where("stories.is_active = ?", true)
	}
	switch {
	case f.Region != "":
		q = q.Where("stories.region_id1 = ?", f.Region)
	case f.City != "":
		q = q.Where("stories.region_id2 = ?", f.City)
	}
	if f.UserID != "" {
		q = q.Where("stories.user_id = ?", f.UserID)
	}
	if f.LikedBy != "" {
		q = q.Where("stories.id IN (?)", s.DB.Model(&models.StoryLike{}).Select("story_id").Where("user_id = ?", f.LikedBy))
	}
	if f.BookmarkedBy != "" {
		q = q.Where("stories.id IN (?)", s.DB.Model(&models.StoryBookmark{}).Select("story_id").Where("user_id = ?", f.BookmarkedBy))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Sort == StorySortPopular {
		q = q.Order("stories.like_count DESC, stories.view_count DESC, stories.created_at DESC")
	} else {
		q = q.Order("stories.created_at DESC")
	}

	var out []models.Story
	err := q.Offset(f.Offset).Limit(f.Limit).Find(&out).Error
	return out, total, err
}

// IncrementViewCount bumps the counter and returns the new value.
func (s *Service) IncrementViewCount(ctx context.Context, id string, activeOnly bool) (int, error) {
	var count int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Story{}).Where("id = ?", id)
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		res := q.UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "Story not found")
		}
		return tx.Model(&models.Story{}).Where("id = ?", id).Pluck("view_count", &count).Error
	})
	return count, err
}

// ToggleLike adds or removes userID's like and returns the new state and
// like count. The count never drops below zero.
func (s *Service) ToggleLike(ctx context.Context, storyID, userID string) (bool, int, error) {
	var (
		liked bool
		count int
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var story models.Story
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&story, "id = ?", storyID).Error; err != nil {
			return notFound(err, "Story not found")
		}

		var like models.StoryLike
		err := tx.Where("story_id = ? AND user_id = ?", storyID, userID).First(&like).Error
		switch {
		case err == nil:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
			count = story.LikeCount - 1
			if count < 0 {
				count = 0
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.StoryLike{StoryID: storyID, UserID: userID}).Error; err != nil {
				return err
			}
			liked = true
			count = story.LikeCount + 1
		default:
			return err
		}
		return tx.Model(&models.Story{}).Where("id = ?", storyID).UpdateColumn("like_count", count).Error
	})
	return liked, count, err
}

func (s *Service) ToggleBookmark(ctx context.Context, storyID, userID string) (bool, error) {
	var bookmarked bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Story{}).Where("id = ?", storyID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return notFound(gorm.ErrRecordNotFound, "Story not found")
		}

		var bm models.StoryBookmark
		err := tx.Where("story_id = ? AND user_id = ?", storyID, userID).First(&bm).Error
		switch {
		case err == nil:
			return tx.Delete(&bm).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			bookmarked = true
			return tx.Create(&models.StoryBookmark{StoryID: storyID, UserID: userID}).Error
		default:
			return err
		}
	})
	return bookmarked, err
}

func (s *Service) LikedStoryIDs(ctx context.Context, userID string, storyIDs []string) (map[string]bool, error) {
	return s.markedStoryIDs(ctx, &models.StoryLike{}, userID, storyIDs)
}

func (s *Service) BookmarkedStoryIDs(ctx context.Context, userID string, storyIDs []string) (map[string]bool, error) {
	return s.markedStoryIDs(ctx, &models.StoryBookmark{}, userID, storyIDs)
}

func (s *Service) markedStoryIDs(ctx context.Context, model interface{}, userID string, storyIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	storyIDs = uniq(storyIDs)
	if userID == "" || len(storyIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := s.DB.WithContext(ctx).Model(model).
		Where("user_id = ? AND story_id IN ?", userID, storyIDs).
		Pluck("story_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *Service) CommentCounts(ctx context.Context, storyIDs []string) (map[string]int64, error) {
	out := make(map[string]int64)
	storyIDs = uniq(storyIDs)
	if len(storyIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		StoryID string
		Count   int64
	}
	err := s.DB.WithContext(ctx).Model(&models.StoryComment{}).
		Select("story_id, COUNT(*) AS count").
		Where("story_id IN ?", storyIDs).
		Group("story_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.StoryID] = r.Count
	}
	return out, nil
}

func (s *Service) CreateComment(ctx context.Context, c *models.StoryComment) error {
	return s.DB.WithContext(ctx).Create(c).Error
}

func (s *Service) GetComment(ctx context.Context, id string) (*models.StoryComment, error) {
	var c models.StoryComment
	if err := s.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Comment not found")
	}
	return &c, nil
}

// ListComments returns every comment of the story, oldest first.
func (s *Service) ListComments(ctx context.Context, storyID string) ([]models.StoryComment, error) {
	var out []models.StoryComment
	err := s.DB.WithContext(ctx).Where("story_id = ?", storyID).Order("created_at ASC").Find(&out).Error
	return out, err
}

// DeleteStoryCascade removes the story with its comments, likes, bookmarks
// and reports.
func (s *Service) DeleteStoryCascade(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&models.StoryComment{}, &models.StoryLike{}, &models.StoryBookmark{}, &models.StoryReport{}} {
			if err := tx.Where("story_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.Story{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "Story not found")
		}
		return nil
	})
}

// CountMediaReferences counts the stories that use url as media or
// thumbnail.
func (s *Service) CountMediaReferences(ctx context.Context, url string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Story{}).
		Where("media_url = ? OR thumbnail_url = ?", url, url).
		Count(&n).Error
	return n, err
}

func (s *Service) SetStoryActive(ctx context.Context, id string, active bool) error {
	res := s.DB.WithContext(ctx).Model(&models.Story{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "Story not found")
	}
	return nil
}
