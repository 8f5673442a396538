// Package matching implements guide applications and the matching request
// state machine: pending -> accepted | rejected | completed | cancelled.
package matching

import (
	"context"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"
	"storybook/backend/internal/storage"

	"go.uber.org/zap"
)

// Store is the persistence the matching service needs.
type Store interface {
	storage.MatchingStore
	storage.GuideStore
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	GetStoriesByIDs(ctx context.Context, ids []string) (map[string]models.Story, error)
}

type Service struct {
	store       Store
	autoApprove bool
	logger      *zap.Logger
}

func NewService(store Store, autoApprove bool, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, autoApprove: autoApprove, logger: logger}
}

// CreateInput is a traveler's request to a guide.
type CreateInput struct {
	GuideID       string
	StoryID       *string
	MatchingType  models.MatchingType
	RequestedDate string
	RequestedTime *string
	Message       *string
}

// RequestView is a request enriched for API responses.
type RequestView struct {
	models.MatchingRequest
	UserNickname      string  `json:"user_nickname"`
	UserProfileImage  *string `json:"user_profile_image"`
	GuideNickname     string  `json:"guide_nickname"`
	GuideProfileImage *string `json:"guide_profile_image"`
	StoryTitle        *string `json:"story_title"`
	ChatRoomID        *string `json:"chat_room_id"`
}

// ListInput selects the caller's sent requests, or with AsGuide the
// requests addressed to the caller's guide record.
type ListInput struct {
	Status  *models.MatchingStatus
	AsGuide bool
	Page    int
	Limit   int
}

type ListResult struct {
	Requests []RequestView `json:"requests"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	Limit    int           `json:"limit"`
}

// CreateRequest persists a pending request from requesterID.
func (s *Service) CreateRequest(ctx context.Context, requesterID string, in CreateInput) (*RequestView, error) {
	if !in.MatchingType.Valid() {
		return nil, apperr.Validation("Invalid matching type", map[string]string{"matching_type": "oneof"})
	}

	guide, err := s.store.GetGuideByID(ctx, in.GuideID)
	if err != nil {
		return nil, err
	}
	if !guide.IsApproved {
		return nil, apperr.InvalidState("Guide is not approved yet")
	}

	req := &models.MatchingRequest{
		UserID:        requesterID,
		GuideID:       guide.ID,
		StoryID:       in.StoryID,
		MatchingType:  in.MatchingType,
		RequestedDate: in.RequestedDate,
		RequestedTime: in.RequestedTime,
		Message:       in.Message,
	}
	if err := s.store.CreateMatchingRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("matching request created",
		zap.String("request_id", req.ID),
		zap.String("user_id", requesterID),
		zap.String("guide_id", guide.ID))

	views, err := s.enrich(ctx, []models.MatchingRequest{*req}, map[string]models.Guide{guide.ID: *guide})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Transition applies a guide's decision. Only the guide the request is
// addressed to may change it, and only while it is pending.
func (s *Service) Transition(ctx context.Context, requestID, actingUserID string, to models.MatchingStatus) (*RequestView, error) {
	if !to.Valid() {
		return nil, apperr.Validation("Invalid status", map[string]string{"status": "oneof"})
	}

	guide, err := s.store.GetGuideByUserID(ctx, actingUserID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Forbidden("Not a guide")
		}
		return nil, err
	}

	req, room, err := s.store.TransitionMatchingRequest(ctx, requestID, guide.ID, to)
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("request_id", req.ID),
		zap.String("guide_id", guide.ID),
		zap.String("status", string(to)),
	}
	if room != nil {
		fields = append(fields, zap.String("room_id", room.ID))
	}
	s.logger.Info("matching request transitioned", fields...)

	views, err := s.enrich(ctx, []models.MatchingRequest{*req}, map[string]models.Guide{guide.ID: *guide})
	if err != nil {
		return nil, err
	}
	view := &views[0]
	if room != nil {
		view.ChatRoomID = &room.ID
	}
	return view, nil
}

// Delete removes a request with its room and messages. Either the requester
// or the guide's user may delete it.
func (s *Service) Delete(ctx context.Context, requestID, actingUserID string) error {
	req, err := s.store.GetMatchingRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if req.UserID != actingUserID {
		guide, err := s.store.GetGuideByID(ctx, req.GuideID)
		if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return err
		}
		if guide == nil || guide.UserID != actingUserID {
			return apperr.Forbidden("Not authorized to delete this matching request")
		}
	}

	if err := s.store.DeleteMatchingRequestCascade(ctx, requestID); err != nil {
		return err
	}
	s.logger.Info("matching request deleted",
		zap.String("request_id", requestID),
		zap.String("user_id", actingUserID))
	return nil
}

func (s *Service) List(ctx context.Context, userID string, in ListInput) (*ListResult, error) {
	f := storage.MatchingFilter{
		Status: in.Status,
		Offset: (in.Page - 1) * in.Limit,
		Limit:  in.Limit,
	}
	if in.AsGuide {
		guide, err := s.store.GetGuideByUserID(ctx, userID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil, apperr.Forbidden("Not a guide")
			}
			return nil, err
		}
		f.GuideID = guide.ID
	} else {
		f.UserID = userID
	}

	reqs, total, err := s.store.ListMatchingRequests(ctx, f)
	if err != nil {
		return nil, err
	}
	views, err := s.enrich(ctx, reqs, nil)
	if err != nil {
		return nil, err
	}
	return &ListResult{Requests: views, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// enrich attaches party profiles, story titles and, for accepted requests,
// the chat room id. guides may pre-seed known guide records.
func (s *Service) enrich(ctx context.Context, reqs []models.MatchingRequest, guides map[string]models.Guide) ([]RequestView, error) {
	if len(reqs) == 0 {
		return []RequestView{}, nil
	}

	var guideIDs, storyIDs []string
	for _, r := range reqs {
		if _, ok := guides[r.GuideID]; !ok {
			guideIDs = append(guideIDs, r.GuideID)
		}
		if r.StoryID != nil {
			storyIDs = append(storyIDs, *r.StoryID)
		}
	}

	loaded, err := s.store.GetGuidesByIDs(ctx, guideIDs)
	if err != nil {
		return nil, err
	}
	for id, g := range guides {
		loaded[id] = g
	}

	userIDs := make([]string, 0, len(reqs)*2)
	for _, r := range reqs {
		userIDs = append(userIDs, r.UserID)
		if g, ok := loaded[r.GuideID]; ok {
			userIDs = append(userIDs, g.UserID)
		}
	}
	users, err := s.store.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	stories, err := s.store.GetStoriesByIDs(ctx, storyIDs)
	if err != nil {
		return nil, err
	}

	out := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		v := RequestView{MatchingRequest: r, UserNickname: "Unknown", GuideNickname: "Unknown"}
		if u, ok := users[r.UserID]; ok {
			v.UserNickname = u.Nickname
			v.UserProfileImage = u.ProfileImage
		}
		g, hasGuide := loaded[r.GuideID]
		if hasGuide {
			if u, ok := users[g.UserID]; ok {
				v.GuideNickname = u.Nickname
				v.GuideProfileImage = u.ProfileImage
			}
		}
		if r.StoryID != nil {
			if st, ok := stories[*r.StoryID]; ok {
				title := st.Title
				v.StoryTitle = &title
			}
		}
		if r.Status == models.MatchingStatusAccepted && hasGuide {
			req := r
			room, err := s.store.FindRoomForRequest(ctx, &req, g.UserID)
			if err != nil {
				return nil, err
			}
			if room != nil {
				id := room.ID
				v.ChatRoomID = &id
			}
		}
		out = append(out, v)
	}
	return out, nil
}
