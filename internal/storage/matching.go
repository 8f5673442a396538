package storage

import (
	"context"
	"errors"
	"time"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"

	"gorm.io/gorm"
)

// MatchingFilter selects requests for ListMatchingRequests. Exactly one of
// UserID or GuideID is set.
type MatchingFilter struct {
	UserID  string
	GuideID string
	Status  *models.MatchingStatus
	Offset  int
	Limit   int
}

const activeRequestMsg = "An active matching request already exists for this guide"

// CreateMatchingRequest inserts a pending request. Conflict when the pair
// already has a pending or accepted request; the unique active_key catches
// concurrent creates that pass the pre-check together.
func (s *Service) CreateMatchingRequest(ctx context.Context, req *models.MatchingRequest) error {
	key := models.PairKey(req.UserID, req.GuideID)
	req.Status = models.MatchingStatusPending
	req.ActiveKey = &key

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.MatchingRequest{}).
			Where("user_id = ? AND guide_id = ? AND status IN ?", req.UserID, req.GuideID,
				[]models.MatchingStatus{models.MatchingStatusPending, models.MatchingStatusAccepted}).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict(activeRequestMsg)
		}
		return tx.Create(req).Error
	})
	return conflict(err, activeRequestMsg)
}

func (s *Service) GetMatchingRequest(ctx context.Context, id string) (*models.MatchingRequest, error) {
	var req models.MatchingRequest
	if err := s.DB.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Matching request not found")
	}
	return &req, nil
}

// TransitionMatchingRequest moves a pending request addressed to guideID to
// status to. Accepting provisions the chat room in the same transaction; the
// returned room is nil for every other status.
func (s *Service) TransitionMatchingRequest(ctx context.Context, id, guideID string, to models.MatchingStatus) (*models.MatchingRequest, *models.ChatRoom, error) {
	var (
		req  models.MatchingRequest
		room *models.ChatRoom
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND guide_id = ?", id, guideID).First(&req).Error; err != nil {
			return notFound(err, "Matching request not found")
		}
		if !models.CanTransition(req.Status, to) {
			return apperr.InvalidState("Cannot change status from " + string(req.Status) + " to " + string(to))
		}

		if to == models.MatchingStatusAccepted {
			var guide models.Guide
			if err := tx.First(&guide, "id = ?", guideID).Error; err != nil {
				return notFound(err, "Guide not found")
			}
			var err error
			room, err = getOrCreateRoomTx(tx, req.UserID, guide.UserID, &req.ID)
			if err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		}
		if !to.Active() {
			updates["active_key"] = nil
		}

		res := tx.Model(&models.MatchingRequest{}).
			Where("id = ? AND status = ?", req.ID, models.MatchingStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("Matching request is no longer pending")
		}

		req.Status = to
		if !to.Active() {
			req.ActiveKey = nil
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &req, room, nil
}

// DeleteMatchingRequestCascade removes the request together with its room and
// every message of that room or referencing the request.
func (s *Service) DeleteMatchingRequestCascade(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.MatchingRequest
		if err := tx.First(&req, "id = ?", id).Error; err != nil {
			return notFound(err, "Matching request not found")
		}

		var roomIDs []string
		if err := tx.Model(&models.ChatRoom{}).Where("matching_request_id = ?", id).Pluck("id", &roomIDs).Error; err != nil {
			return err
		}

		msgs := tx.Where("matching_request_id = ?", id)
		if len(roomIDs) > 0 {
			msgs = tx.Where("chat_room_id IN ? OR matching_request_id = ?", roomIDs, id)
		}
		if err := msgs.Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if len(roomIDs) > 0 {
			if err := tx.Where("id IN ?", roomIDs).Delete(&models.ChatRoom{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&req).Error
	})
}

func (s *Service) ListMatchingRequests(ctx context.Context, f MatchingFilter) ([]models.MatchingRequest, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.MatchingRequest{})
	if f.GuideID != "" {
		q = q.Where("guide_id = ?", f.GuideID)
	} else {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.MatchingRequest
	err := q.Order("created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&out).Error
	return out, total, err
}

// FindRoomForRequest returns the room linked to the request, or else the
// active room between its requester and guideUserID. Nil when neither exists.
func (s *Service) FindRoomForRequest(ctx context.Context, req *models.MatchingRequest, guideUserID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.WithContext(ctx).Where("matching_request_id = ?", req.ID).First(&room).Error
	if err == nil {
		return &room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND guide_id = ? AND is_active = ?", req.UserID, guideUserID, true).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}
