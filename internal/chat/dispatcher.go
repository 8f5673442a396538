package chat

import (
	"context"
	"encoding/json"

	"storybook/backend/internal/models"

	"go.uber.org/zap"
)

// Dispatcher handles inbound frames from live channels. It implements
// chathub.FrameHandler.
type Dispatcher struct {
	chat   *Service
	logger *zap.Logger
}

func NewDispatcher(chat *Service, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{chat: chat, logger: logger}
}

func (d *Dispatcher) HandleFrame(ctx context.Context, userID string, raw []byte) []models.Event {
	var f models.InboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return []models.Event{models.ErrorEvent("Invalid message format")}
	}

	action := f.ResolvedAction()
	switch action {
	case models.ActionJoinRoom:
		return []models.Event{models.RoomJoinedEvent(f.RoomID)}

	case models.ActionLeaveRoom:
		return []models.Event{models.RoomLeftEvent(f.RoomID)}

	case models.ActionPing:
		return []models.Event{models.PongEvent()}

	case models.ActionSendMessage:
		// Messages are sent over REST; the frame is accepted for old clients.
		d.logger.Debug("ignoring send_message frame", zap.String("user_id", userID))
		return nil

	case models.ActionReadReceipt:
		if _, err := d.chat.MarkRead(ctx, f.RoomID, userID, f.MessageIDs); err != nil {
			d.logger.Warn("read receipt failed",
				zap.String("user_id", userID),
				zap.String("room_id", f.RoomID),
				zap.Error(err))
			return []models.Event{models.ErrorEvent(err.Error())}
		}
		return nil
	}

	d.logger.Warn("unknown frame", zap.String("user_id", userID), zap.String("action", f.Action), zap.String("type", f.Type))
	return nil
}
