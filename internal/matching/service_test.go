package matching_test

import (
	"context"
	"testing"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/matching"
	"storybook/backend/internal/models"
	"storybook/backend/internal/storage"
	"storybook/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	ctx   context.Context
	db    *gorm.DB
	store *storage.Service
	svc   *matching.Service
	fx    storagetest.Fixture
}

func newEnv(t *testing.T) env {
	db := storagetest.NewDB(t)
	store := storage.NewStorageService(db)
	return env{
		ctx:   context.Background(),
		db:    db,
		store: store,
		svc:   matching.NewService(store, true, nil),
		fx:    storagetest.Seed(t, db),
	}
}

func (e env) tour() matching.CreateInput {
	return matching.CreateInput{
		GuideID:       e.fx.Guide.ID,
		MatchingType:  models.MatchingTypeGuideTour,
		RequestedDate: "2026-11-01",
	}
}

func TestCreateRequest(t *testing.T) {
	e := newEnv(t)

	view, err := e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, e.tour())
	require.NoError(t, err)
	assert.Equal(t, models.MatchingStatusPending, view.Status)
	assert.Equal(t, "traveler", view.UserNickname)
	assert.Equal(t, "guide", view.GuideNickname)
	assert.Nil(t, view.ChatRoomID)

	_, err = e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, e.tour())
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateRequest_GuideChecks(t *testing.T) {
	e := newEnv(t)

	in := e.tour()
	in.GuideID = "missing"
	_, err := e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, in)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, e.store.SetGuideApproval(e.ctx, e.fx.Guide.ID, false))
	_, err = e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, e.tour())
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	in = e.tour()
	in.MatchingType = "sightseeing"
	_, err = e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestTransition_AcceptReturnsRoom(t *testing.T) {
	e := newEnv(t)
	created, err := e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, e.tour())
	require.NoError(t, err)

	view, err := e.svc.Transition(e.ctx, created.ID, e.fx.GuideUser.ID, models.MatchingStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.MatchingStatusAccepted, view.Status)
	require.NotNil(t, view.ChatRoomID)

	room, err := e.store.GetRoom(e.ctx, *view.ChatRoomID)
	require.NoError(t, err)
	assert.Equal(t, e.fx.Traveler.ID, room.UserID)
	assert.Equal(t, e.fx.GuideUser.ID, room.GuideID)

	_, err = e.svc.Transition(e.ctx, created.ID, e.fx.GuideUser.ID, models.MatchingStatusAccepted)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestTransition_Authorization(t *testing.T) {
	e := newEnv(t)
	created, err := e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, e.tour())
	require.NoError(t, err)

	_, err = e.svc.Transition(e.ctx, created.ID, e.fx.Traveler.ID, models.MatchingStatusAccepted)
	assert.ErrorIs(t, err, apperr.ErrForbidden, "travelers are not guides")

	otherUser := storagetest.User(t, e.db, "other guide")
	_, err = e.svc.ApplyGuide(e.ctx, otherUser.ID, "")
	require.NoError(t, err)
	_, err = e.svc.Transition(e.ctx, created.ID, otherUser.ID, models.MatchingStatusAccepted)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "a request addressed to another guide is invisible")

	_, err = e.svc.Transition(e.ctx, created.ID, e.fx.GuideUser.ID, "archived")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestReRequestAfterReject(t *testing.T) {
	e := newEnv(t)
	created, err := e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, e.tour())
	require.NoError(t, err)

	_, err = e.svc.Transition(e.ctx, created.ID, e.fx.GuideUser.ID, models.MatchingStatusRejected)
	require.NoError(t, err)

	again, err := e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, e.tour())
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, again.ID)
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	stranger := storagetest.User(t, e.db, "stranger")

	created, err := e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, e.tour())
	require.NoError(t, err)
	accepted, err := e.svc.Transition(e.ctx, created.ID, e.fx.GuideUser.ID, models.MatchingStatusAccepted)
	require.NoError(t, err)

	assert.ErrorIs(t, e.svc.Delete(e.ctx, created.ID, stranger.ID), apperr.ErrForbidden)

	// The guide's user may delete too.
	require.NoError(t, e.svc.Delete(e.ctx, created.ID, e.fx.GuideUser.ID))
	_, err = e.store.GetRoom(e.ctx, *accepted.ChatRoomID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, e.svc.Delete(e.ctx, created.ID, e.fx.Traveler.ID), apperr.ErrNotFound)
}

func TestList(t *testing.T) {
	e := newEnv(t)

	story := &models.Story{UserID: e.fx.GuideUser.ID, Title: "Night market", MediaType: models.MediaTypeImage, MediaURL: "/uploads/a.jpg"}
	require.NoError(t, e.db.Create(story).Error)

	in := e.tour()
	in.StoryID = &story.ID
	created, err := e.svc.CreateRequest(e.ctx, e.fx.Traveler.ID, in)
	require.NoError(t, err)
	_, err = e.svc.Transition(e.ctx, created.ID, e.fx.GuideUser.ID, models.MatchingStatusAccepted)
	require.NoError(t, err)

	sent, err := e.svc.List(e.ctx, e.fx.Traveler.ID, matching.ListInput{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, sent.Total)
	require.Len(t, sent.Requests, 1)
	got := sent.Requests[0]
	require.NotNil(t, got.StoryTitle)
	assert.Equal(t, "Night market", *got.StoryTitle)
	assert.NotNil(t, got.ChatRoomID)

	received, err := e.svc.List(e.ctx, e.fx.GuideUser.ID, matching.ListInput{AsGuide: true, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, received.Requests, 1)

	pending := models.MatchingStatusPending
	none, err := e.svc.List(e.ctx, e.fx.GuideUser.ID, matching.ListInput{AsGuide: true, Status: &pending, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, none.Requests)

	_, err = e.svc.List(e.ctx, e.fx.Traveler.ID, matching.ListInput{AsGuide: true, Page: 1, Limit: 20})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGuides(t *testing.T) {
	e := newEnv(t)
	u := storagetest.User(t, e.db, "newbie")

	status, err := e.svc.Status(e.ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, status.IsGuide)

	g, err := e.svc.GuideOfUser(e.ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, g)
	_, err = e.svc.GuideOfUser(e.ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	view, err := e.svc.ApplyGuide(e.ctx, u.ID, "I know every alley")
	require.NoError(t, err)
	assert.True(t, view.IsApproved, "auto approval is on")
	assert.Equal(t, "newbie", view.Nickname)

	_, err = e.svc.ApplyGuide(e.ctx, u.ID, "again")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	fetched, err := e.svc.GetGuide(e.ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "I know every alley", fetched.Bio)

	require.NoError(t, e.svc.SetApproval(e.ctx, view.ID, false))
	status, err = e.svc.Status(e.ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, status.IsGuide)
	assert.False(t, status.IsApproved)
}

func TestApplyGuide_ManualApproval(t *testing.T) {
	db := storagetest.NewDB(t)
	store := storage.NewStorageService(db)
	svc := matching.NewService(store, false, nil)
	u := storagetest.User(t, db, "pending guide")

	view, err := svc.ApplyGuide(context.Background(), u.ID, "")
	require.NoError(t, err)
	assert.False(t, view.IsApproved)
}
