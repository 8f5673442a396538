package storage

import (
	"context"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"
)

const duplicateReportMsg = "You have already reported this story"

// CreateReport returns Conflict when the reporter already reported the story.
func (s *Service) CreateReport(ctx context.Context, r *models.StoryReport) error {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.StoryReport{}).
		Where("story_id = ? AND reporter_id = ?", r.StoryID, r.ReporterID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflict(duplicateReportMsg)
	}
	return conflict(s.DB.WithContext(ctx).Create(r).Error, duplicateReportMsg)
}

func (s *Service) ListReports(ctx context.Context, storyID string) ([]models.StoryReport, error) {
	var out []models.StoryReport
	err := s.DB.WithContext(ctx).Where("story_id = ?", storyID).Order("created_at ASC").Find(&out).Error
	return out, err
}
