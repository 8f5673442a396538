// Package chat serves chat rooms and messages and pushes message and read
// receipt events to the other party's live channels.
package chat

import (
	"context"
	"strings"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"
	"storybook/backend/internal/storage"

	"go.uber.org/zap"
)

// Notifier pushes an event to a user's live channels on any instance.
// *chathub.ManagerService implements it.
type Notifier interface {
	Notify(ctx context.Context, userID string, ev models.Event)
}

type Store interface {
	storage.ChatStore
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

func NewService(store Store, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, logger: logger}
}

// RoomView is a room with both parties' profiles and the caller's unread count.
type RoomView struct {
	models.ChatRoom
	UserNickname      string  `json:"user_nickname"`
	UserProfileImage  *string `json:"user_profile_image"`
	GuideNickname     string  `json:"guide_nickname"`
	GuideProfileImage *string `json:"guide_profile_image"`
	UnreadCount       int64   `json:"unread_count"`
}

type RoomList struct {
	Rooms []RoomView `json:"rooms"`
	Total int        `json:"total"`
}

type MessageList struct {
	Messages []models.ChatMessagePayload `json:"messages"`
	Total    int                         `json:"total"`
}

func (s *Service) ListRooms(ctx context.Context, userID string) (*RoomList, error) {
	rooms, err := s.store.ListRoomsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views, err := s.roomViews(ctx, rooms, userID)
	if err != nil {
		return nil, err
	}
	return &RoomList{Rooms: views, Total: len(views)}, nil
}

func (s *Service) GetRoom(ctx context.Context, roomID, userID string) (*RoomView, error) {
	room, err := s.partyRoom(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	views, err := s.roomViews(ctx, []models.ChatRoom{*room}, userID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListMessages returns a page of messages oldest first. The page is fetched
// newest first so offset 0 is always the latest messages. Messages on the
// page addressed to userID are marked read.
func (s *Service) ListMessages(ctx context.Context, roomID, userID string, limit, offset int) (*MessageList, error) {
	if _, err := s.partyRoom(ctx, roomID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	var unread []string
	for _, m := range msgs {
		if m.ReceiverID == userID && !m.IsRead {
			unread = append(unread, m.ID)
		}
	}
	if len(unread) > 0 {
		flipped, err := s.store.MarkMessagesRead(ctx, roomID, userID, unread)
		if err != nil {
			return nil, err
		}
		done := make(map[string]bool, len(flipped))
		for _, id := range flipped {
			done[id] = true
		}
		for i := range msgs {
			if done[msgs[i].ID] {
				msgs[i].IsRead = true
			}
		}
	}

	senderIDs := make([]string, 0, 2)
	for _, m := range msgs {
		senderIDs = append(senderIDs, m.SenderID)
	}
	users, err := s.store.GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	out := make([]models.ChatMessagePayload, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, payload(m, users[m.SenderID]))
	}
	return &MessageList{Messages: out, Total: len(out)}, nil
}

// SendMessage persists body from senderID and pushes it to the other party.
// The push is best effort: failures are logged, never returned.
func (s *Service) SendMessage(ctx context.Context, roomID, senderID, body string) (*models.ChatMessagePayload, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation("Message must not be empty", map[string]string{"message": "required"})
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, apperr.NotFound("Chat room not found")
	}
	if !room.HasParty(senderID) {
		return nil, apperr.Forbidden("Not authorized")
	}

	sender, err := s.store.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		SenderID:   senderID,
		ReceiverID: room.Counterpart(senderID),
		Message:    body,
	}
	if err := s.store.SaveMessage(ctx, room, msg); err != nil {
		return nil, err
	}

	p := payload(*msg, *sender)
	ev, err := models.MessageEvent(p)
	if err != nil {
		s.logger.Error("encode message event", zap.String("message_id", msg.ID), zap.Error(err))
		return &p, nil
	}
	s.notifier.Notify(ctx, msg.ReceiverID, ev)

	s.logger.Debug("message sent",
		zap.String("room_id", room.ID),
		zap.String("message_id", msg.ID),
		zap.String("receiver_id", msg.ReceiverID))
	return &p, nil
}

// MarkRead flips the given messages of roomID that readerID received and
// tells the other party which ones changed. Unknown rooms and empty input
// are ignored.
func (s *Service) MarkRead(ctx context.Context, roomID, readerID string, messageIDs []string) ([]string, error) {
	if roomID == "" || len(messageIDs) == 0 {
		return nil, nil
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, nil
		}
		return nil, err
	}

	flipped, err := s.store.MarkMessagesRead(ctx, roomID, readerID, messageIDs)
	if err != nil {
		return nil, err
	}
	if len(flipped) == 0 || !room.HasParty(readerID) {
		return flipped, nil
	}

	s.notifier.Notify(ctx, room.Counterpart(readerID), models.ReadReceiptEvent(roomID, readerID, flipped))
	return flipped, nil
}

func (s *Service) partyRoom(ctx context.Context, roomID, userID string) (*models.ChatRoom, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParty(userID) {
		return nil, apperr.Forbidden("Not authorized")
	}
	return room, nil
}

func (s *Service) roomViews(ctx context.Context, rooms []models.ChatRoom, userID string) ([]RoomView, error) {
	if len(rooms) == 0 {
		return []RoomView{}, nil
	}

	ids := make([]string, 0, len(rooms))
	people := make([]string, 0, len(rooms)*2)
	for _, r := range rooms {
		ids = append(ids, r.ID)
		people = append(people, r.UserID, r.GuideID)
	}
	users, err := s.store.GetUsersByIDs(ctx, people)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.UnreadCounts(ctx, ids, userID)
	if err != nil {
		return nil, err
	}

	out := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		v := RoomView{ChatRoom: r, UserNickname: "Unknown", GuideNickname: "Unknown", UnreadCount: unread[r.ID]}
		if u, ok := users[r.UserID]; ok {
			v.UserNickname = u.Nickname
			v.UserProfileImage = u.ProfileImage
		}
		if u, ok := users[r.GuideID]; ok {
			v.GuideNickname = u.Nickname
			v.GuideProfileImage = u.ProfileImage
		}
		out = append(out, v)
	}
	return out, nil
}

func payload(m models.ChatMessage, sender models.User) models.ChatMessagePayload {
	nickname := sender.Nickname
	if nickname == "" {
		nickname = "Unknown"
	}
	return models.ChatMessagePayload{
		ChatMessage:        m,
		SenderNickname:     nickname,
		SenderProfileImage: sender.ProfileImage,
	}
}
