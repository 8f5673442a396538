package matching

import (
	"context"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"

	"go.uber.org/zap"
)

// GuideView is a guide with its user's public profile.
type GuideView struct {
	models.Guide
	Nickname     string  `json:"nickname"`
	ProfileImage *string `json:"profile_image"`
}

type GuideStatus struct {
	IsGuide    bool          `json:"is_guide"`
	IsApproved bool          `json:"is_approved"`
	Guide      *models.Guide `json:"guide"`
}

// ApplyGuide registers userID as a guide. Conflict if already registered.
func (s *Service) ApplyGuide(ctx context.Context, userID, bio string) (*GuideView, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	g := &models.Guide{UserID: userID, Bio: bio, IsApproved: s.autoApprove}
	if err := s.store.CreateGuide(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info("guide registered",
		zap.String("guide_id", g.ID),
		zap.String("user_id", userID),
		zap.Bool("approved", g.IsApproved))

	return &GuideView{Guide: *g, Nickname: user.Nickname, ProfileImage: user.ProfileImage}, nil
}

func (s *Service) GetGuide(ctx context.Context, guideID string) (*GuideView, error) {
	g, err := s.store.GetGuideByID(ctx, guideID)
	if err != nil {
		return nil, err
	}
	view := &GuideView{Guide: *g, Nickname: "Unknown"}
	u, err := s.store.GetUserByID(ctx, g.UserID)
	switch {
	case err == nil:
		view.Nickname = u.Nickname
		view.ProfileImage = u.ProfileImage
	case apperr.KindOf(err) != apperr.KindNotFound:
		return nil, err
	}
	return view, nil
}

func (s *Service) Status(ctx context.Context, userID string) (*GuideStatus, error) {
	g, err := s.store.GetGuideByUserID(ctx, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return &GuideStatus{}, nil
		}
		return nil, err
	}
	return &GuideStatus{IsGuide: true, IsApproved: g.IsApproved, Guide: g}, nil
}

// GuideOfUser returns the guide record of userID, nil when the user is not a
// guide. NotFound when the user does not exist.
func (s *Service) GuideOfUser(ctx context.Context, userID string) (*models.Guide, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	g, err := s.store.GetGuideByUserID(ctx, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}

// SetApproval is the admin switch for a guide's approval.
func (s *Service) SetApproval(ctx context.Context, guideID string, approved bool) error {
	if err := s.store.SetGuideApproval(ctx, guideID, approved); err != nil {
		return err
	}
	s.logger.Info("guide approval changed", zap.String("guide_id", guideID), zap.Bool("approved", approved))
	return nil
}
