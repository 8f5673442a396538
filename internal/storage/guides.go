package storage

import (
	"context"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"
)

// CreateGuide returns Conflict when the user is already a guide.
func (s *Service) CreateGuide(ctx context.Context, g *models.Guide) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Guide{}).Where("user_id = ?", g.UserID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict("Already registered as guide")
	}
	return conflict(s.DB.WithContext(ctx).Create(g).Error, "Already registered as guide")
}

func (s *Service) GetGuideByID(ctx context.Context, id string) (*models.Guide, error) {
	var g models.Guide
	if err := s.DB.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Guide not found")
	}
	return &g, nil
}

func (s *Service) GetGuideByUserID(ctx context.Context, userID string) (*models.Guide, error) {
	var g models.Guide
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&g).Error; err != nil {
		return nil, notFound(err, "Guide not found")
	}
	return &g, nil
}

func (s *Service) GetGuidesByIDs(ctx context.Context, ids []string) (map[string]models.Guide, error) {
	out := make(map[string]models.Guide)
	ids = uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var guides []models.Guide
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&guides).Error; err != nil {
		return nil, err
	}
	for _, g := range guides {
		out[g.ID] = g
	}
	return out, nil
}

func (s *Service) SetGuideApproval(ctx context.Context, id string, approved bool) error {
	res := s.DB.WithContext(ctx).Model(&models.Guide{}).Where("id = ?", id).Update("is_approved", approved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Guide not found")
	}
	return nil
}
