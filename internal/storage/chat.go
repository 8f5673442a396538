package storage

import (
	"context"
	"errors"
	"time"

	"storybook/backend/internal/models"

	"gorm.io/gorm"
)

// GetOrCreateRoom returns the active room for the ordered pair, creating it
// when there is none.
func (s *Service) GetOrCreateRoom(ctx context.Context, userID, guideUserID string, matchingRequestID *string) (*models.ChatRoom, error) {
	var room *models.ChatRoom
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		room, err = getOrCreateRoomTx(tx, userID, guideUserID, matchingRequestID)
		return err
	})
	return room, err
}

// getOrCreateRoomTx runs inside the caller's transaction. The insert gets its
// own savepoint so a lost unique race can be rolled back and the winner read.
func getOrCreateRoomTx(tx *gorm.DB, userID, guideUserID string, matchingRequestID *string) (*models.ChatRoom, error) {
	key := models.PairKey(userID, guideUserID)

	room, err := activeRoomTx(tx, key)
	if err != nil {
		return nil, err
	}
	if room != nil {
		if room.MatchingRequestID == nil && matchingRequestID != nil {
			if err := tx.Model(room).Update("matching_request_id", *matchingRequestID).Error; err != nil {
				return nil, err
			}
			room.MatchingRequestID = matchingRequestID
		}
		return room, nil
	}

	room = &models.ChatRoom{
		UserID:            userID,
		GuideID:           guideUserID,
		MatchingRequestID: matchingRequestID,
		IsActive:          true,
		ActiveKey:         &key,
	}
	err = tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(room).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		winner, err := activeRoomTx(tx, key)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, gorm.ErrDuplicatedKey
		}
		return winner, nil
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

func activeRoomTx(tx *gorm.DB, key string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := tx.Where("active_key = ?", key).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Service) GetRoom(ctx context.Context, id string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.DB.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Chat room not found")
	}
	return &room, nil
}

// ListRoomsForUser returns the active rooms userID is a party of, most
// recently used first; rooms without messages sort last.
func (s *Service) ListRoomsForUser(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.DB.WithContext(ctx).
		Where("is_active = ? AND (user_id = ? OR guide_id = ?)", true, userID, userID).
		Order("last_message_at IS NULL, last_message_at DESC, created_at DESC").
		Find(&rooms).Error
	return rooms, err
}

func (s *Service) UnreadCounts(ctx context.Context, roomIDs []string, userID string) (map[string]int64, error) {
	out := make(map[string]int64)
	roomIDs = uniq(roomIDs)
	if len(roomIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ChatRoomID string
		Count      int64
	}
	err := s.DB.WithContext(ctx).Model(&models.ChatMessage{}).
		Select("chat_room_id, COUNT(*) AS count").
		Where("chat_room_id IN ? AND receiver_id = ? AND is_read = ?", roomIDs, userID, false).
		Group("chat_room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ChatRoomID] = r.Count
	}
	return out, nil
}

// SaveMessage persists msg in room and updates the room's preview in the
// same transaction.
func (s *Service) SaveMessage(ctx context.Context, room *models.ChatRoom, msg *models.ChatMessage) error {
	msg.ChatRoomID = room.ID
	if msg.MatchingRequestID == nil {
		msg.MatchingRequestID = room.MatchingRequestID
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		now := time.Now()
		err := tx.Model(&models.ChatRoom{}).Where("id = ?", room.ID).Updates(map[string]interface{}{
			"last_message":    msg.Message,
			"last_message_at": msg.CreatedAt,
			"updated_at":      now,
		}).Error
		if err != nil {
			return err
		}
		room.LastMessage = &msg.Message
		room.LastMessageAt = &msg.CreatedAt
		return nil
	})
}

// MarkMessagesRead flips is_read on the given messages of roomID whose
// receiver is readerID and returns the ids that actually changed.
func (s *Service) MarkMessagesRead(ctx context.Context, roomID, readerID string, ids []string) ([]string, error) {
	ids = uniq(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	var flipped []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.ChatMessage{}).
			Where("id IN ? AND chat_room_id = ? AND receiver_id = ? AND is_read = ?", ids, roomID, readerID, false).
			Pluck("id", &flipped).Error
		if err != nil || len(flipped) == 0 {
			return err
		}
		return tx.Model(&models.ChatMessage{}).
			Where("id IN ? AND is_read = ?", flipped, false).
			Update("is_read", true).Error
	})
	if err != nil {
		return nil, err
	}
	return flipped, nil
}

// ListMessages returns a page of the room's messages, newest first.
func (s *Service) ListMessages(ctx context.Context, roomID string, limit, offset int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := s.DB.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&msgs).Error
	return msgs, err
}
