// Package report handles story reports and hides stories whose weighted
// report score reaches the configured threshold.
package report

import (
	"context"
	"strings"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/config"
	"storybook/backend/internal/models"

	"go.uber.org/zap"
)

type Store interface {
	GetStory(ctx context.Context, id string) (*models.Story, error)
	SetStoryActive(ctx context.Context, id string, active bool) error
	CreateReport(ctx context.Context, r *models.StoryReport) error
	ListReports(ctx context.Context, storyID string) ([]models.StoryReport, error)
}

// Service handles the business logic for reports.
type Service struct {
	store         Store
	hideThreshold int
	logger        *zap.Logger
}

// NewService creates a report service. A hideThreshold of zero or less turns
// automatic hiding off.
func NewService(store Store, hideThreshold int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, hideThreshold: hideThreshold, logger: logger}
}

// Weight returns the moderation weight of a report reason.
// Unknown reasons weigh 1.
func Weight(reason string) int {
	if w, ok := config.ReportReasonWeights[strings.ToLower(strings.TrimSpace(reason))]; ok {
		return w
	}
	return 1
}

// Score sums the weights of reports.
func Score(reports []models.StoryReport) int {
	total := 0
	for _, r := range reports {
		total += Weight(r.Reason)
	}
	return total
}

// Submit records reporterID's report against an active story, then checks
// whether the story should be hidden.
func (s *Service) Submit(ctx context.Context, storyID, reporterID, reason string, description *string) (*models.StoryReport, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("Reason is required", map[string]string{"reason": "required"})
	}

	st, err := s.store.GetStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if !st.IsActive {
		return nil, apperr.NotFound("Story not found")
	}
	if st.UserID == reporterID {
		return nil, apperr.InvalidState("You cannot report your own story")
	}

	r := &models.StoryReport{StoryID: storyID, ReporterID: reporterID, Reason: reason, Description: description}
	if err := s.store.CreateReport(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("story reported",
		zap.String("story_id", storyID),
		zap.String("reporter_id", reporterID),
		zap.String("reason", reason))

	if err := s.checkForHide(ctx, storyID); err != nil {
		// The report is stored; a failed check is retried by the next report.
		s.logger.Error("report moderation failed", zap.String("story_id", storyID), zap.Error(err))
	}
	return r, nil
}

// List returns the reports against a story with their combined score.
func (s *Service) List(ctx context.Context, storyID string) ([]models.StoryReport, int, error) {
	reports, err := s.store.ListReports(ctx, storyID)
	if err != nil {
		return nil, 0, err
	}
	return reports, Score(reports), nil
}

func (s *Service) checkForHide(ctx context.Context, storyID string) error {
	if s.hideThreshold <= 0 {
		return nil
	}
	reports, err := s.store.ListReports(ctx, storyID)
	if err != nil {
		return err
	}
	score := Score(reports)
	if score < s.hideThreshold {
		return nil
	}
	if err := s.store.SetStoryActive(ctx, storyID, false); err != nil {
		return err
	}
	s.logger.Warn("story hidden by reports",
		zap.String("story_id", storyID),
		zap.Int("score", score),
		zap.Int("threshold", s.hideThreshold))
	return nil
}
