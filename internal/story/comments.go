package story

import (
	"context"
	"sort"
	"strings"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"
)

// CommentView is a comment with its author and, for top-level comments, the
// replies oldest first.
type CommentView struct {
	models.StoryComment
	UserNickname     string        `json:"user_nickname"`
	UserProfileImage *string       `json:"user_profile_image"`
	Replies          []CommentView `json:"replies"`
}

// Comments returns the top-level comments newest first.
func (s *Service) Comments(ctx context.Context, storyID string) ([]CommentView, error) {
	all, err := s.store.ListComments(ctx, storyID)
	if err != nil {
		return nil, err
	}

	authors := make([]string, 0, len(all))
	for _, c := range all {
		authors = append(authors, c.UserID)
	}
	users, err := s.store.GetUsersByIDs(ctx, authors)
	if err != nil {
		return nil, err
	}

	replies := make(map[string][]CommentView)
	var top []CommentView
	// all is oldest first, so replies keep that order.
	for _, c := range all {
		v := commentView(c, users)
		if c.ParentID != nil {
			replies[*c.ParentID] = append(replies[*c.ParentID], v)
			continue
		}
		top = append(top, v)
	}

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].CreatedAt.After(top[j].CreatedAt)
	})
	for i := range top {
		if r, ok := replies[top[i].ID]; ok {
			top[i].Replies = r
		}
	}
	if top == nil {
		top = []CommentView{}
	}
	return top, nil
}

// AddComment posts a comment, or a reply when parentID is set. The parent
// must be a top-level comment of the same story.
func (s *Service) AddComment(ctx context.Context, storyID, userID, content string, parentID *string) (*CommentView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("Comment must not be empty", map[string]string{"content": "required"})
	}
	if _, err := s.store.GetStory(ctx, storyID); err != nil {
		return nil, err
	}

	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		parent, err := s.store.GetComment(ctx, *parentID)
		if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
		if parent == nil || parent.StoryID != storyID || parent.ParentID != nil {
			return nil, apperr.Validation("Invalid parent comment", map[string]string{"parent_id": "invalid"})
		}
	}

	c := &models.StoryComment{StoryID: storyID, UserID: userID, Content: content, ParentID: parentID}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := commentView(*c, map[string]models.User{user.ID: *user})
	return &v, nil
}

func commentView(c models.StoryComment, users map[string]models.User) CommentView {
	v := CommentView{StoryComment: c, UserNickname: "Unknown", Replies: []CommentView{}}
	if u, ok := users[c.UserID]; ok {
		v.UserNickname = u.Nickname
		v.UserProfileImage = u.ProfileImage
	}
	return v
}
