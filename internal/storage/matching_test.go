package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"
	"storybook/backend/internal/storage"
	"storybook/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(f storagetest.Fixture) *models.MatchingRequest {
	return &models.MatchingRequest{
		UserID:        f.Traveler.ID,
		GuideID:       f.Guide.ID,
		MatchingType:  models.MatchingTypeGuideTour,
		RequestedDate: "2026-11-01",
	}
}

func TestCreateMatchingRequest_ConflictWhileActive(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	s := storage.NewStorageService(db)
	f := storagetest.Seed(t, db)

	first := newRequest(f)
	require.NoError(t, s.CreateMatchingRequest(ctx, first))
	assert.Equal(t, models.MatchingStatusPending, first.Status)

	err := s.CreateMatchingRequest(ctx, newRequest(f))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, _, err = s.TransitionMatchingRequest(ctx, first.ID, f.Guide.ID, models.MatchingStatusAccepted)
	require.NoError(t, err)
	err = s.CreateMatchingRequest(ctx, newRequest(f))
	assert.ErrorIs(t, err, apperr.ErrConflict, "accepted still blocks a new request")
}

func TestCreateMatchingRequest_AllowedAfterTerminal(t *testing.T) {
	for _, status := range []models.MatchingStatus{
		models.MatchingStatusRejected,
		models.MatchingStatusCompleted,
		models.MatchingStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			ctx := context.Background()
			db := storagetest.NewDB(t)
			s := storage.NewStorageService(db)
			f := storagetest.Seed(t, db)

			first := newRequest(f)
			require.NoError(t, s.CreateMatchingRequest(ctx, first))

			updated, room, err := s.TransitionMatchingRequest(ctx, first.ID, f.Guide.ID, status)
			require.NoError(t, err)
			assert.Nil(t, room)
			assert.Equal(t, status, updated.Status)
			assert.Nil(t, updated.ActiveKey)

			assert.NoError(t, s.CreateMatchingRequest(ctx, newRequest(f)))
		})
	}
}

func TestCreateMatchingRequest_ConcurrentCreatesOneWins(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	s := storage.NewStorageService(db)
	f := storagetest.Seed(t, db)

	const n = 5
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.CreateMatchingRequest(ctx, newRequest(f))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)
}

func TestTransitionMatchingRequest_AcceptCreatesRoom(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	s := storage.NewStorageService(db)
	f := storagetest.Seed(t, db)

	req := newRequest(f)
	require.NoError(t, s.CreateMatchingRequest(ctx, req))

	updated, room, err := s.TransitionMatchingRequest(ctx, req.ID, f.Guide.ID, models.MatchingStatusAccepted)
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, models.MatchingStatusAccepted, updated.Status)
	assert.Equal(t, f.Traveler.ID, room.UserID)
	assert.Equal(t, f.GuideUser.ID, room.GuideID, "room stores the guide's user id")
	require.NotNil(t, room.MatchingRequestID)
	assert.Equal(t, req.ID, *room.MatchingRequestID)

	var count int64
	require.NoError(t, db.Model(&models.ChatRoom{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTransitionMatchingRequest_AcceptReusesExistingRoom(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	s := storage.NewStorageService(db)
	f := storagetest.Seed(t, db)

	existing, err := s.GetOrCreateRoom(ctx, f.Traveler.ID, f.GuideUser.ID, nil)
	require.NoError(t, err)

	req := newRequest(f)
	require.NoError(t, s.CreateMatchingRequest(ctx, req))

	_, room, err := s.TransitionMatchingRequest(ctx, req.ID, f.Guide.ID, models.MatchingStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, room.ID)
	require.NotNil(t, room.MatchingRequestID, "null link is backfilled")
	assert.Equal(t, req.ID, *room.MatchingRequestID)

	var count int64
	require.NoError(t, db.Model(&models.ChatRoom{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestTransitionMatchingRequest_Errors(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	s := storage.NewStorageService(db)
	f := storagetest.Seed(t, db)

	req := newRequest(f)
	require.NoError(t, s.CreateMatchingRequest(ctx, req))

	_, _, err := s.TransitionMatchingRequest(ctx, req.ID, "other-guide", models.MatchingStatusAccepted)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "guide id must match")

	_, _, err = s.TransitionMatchingRequest(ctx, "missing", f.Guide.ID, models.MatchingStatusAccepted)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, _, err = s.TransitionMatchingRequest(ctx, req.ID, f.Guide.ID, models.MatchingStatusPending)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, _, err = s.TransitionMatchingRequest(ctx, req.ID, f.Guide.ID, models.MatchingStatusAccepted)
	require.NoError(t, err)

	_, _, err = s.TransitionMatchingRequest(ctx, req.ID, f.Guide.ID, models.MatchingStatusAccepted)
	assert.ErrorIs(t, err, apperr.ErrInvalidState, "re-accepting is rejected")

	_, _, err = s.TransitionMatchingRequest(ctx, req.ID, f.Guide.ID, models.MatchingStatusCancelled)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestDeleteMatchingRequestCascade(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	s := storage.NewStorageService(db)
	f := storagetest.Seed(t, db)

	req := newRequest(f)
	require.NoError(t, s.CreateMatchingRequest(ctx, req))
	_, room, err := s.TransitionMatchingRequest(ctx, req.ID, f.Guide.ID, models.MatchingStatusAccepted)
	require.NoError(t, err)

	for _, body := range []string{"hello", "hi there"} {
		msg := &models.ChatMessage{SenderID: f.Traveler.ID, ReceiverID: f.GuideUser.ID, Message: body}
		require.NoError(t, s.SaveMessage(ctx, room, msg))
	}

	// An unrelated room between other users must survive.
	other := storagetest.User(t, db, "other")
	otherRoom, err := s.GetOrCreateRoom(ctx, other.ID, f.GuideUser.ID, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveMessage(ctx, otherRoom, &models.ChatMessage{SenderID: other.ID, ReceiverID: f.GuideUser.ID, Message: "keep"}))

	require.NoError(t, s.DeleteMatchingRequestCascade(ctx, req.ID))

	_, err = s.GetMatchingRequest(ctx, req.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var remaining []models.ChatMessage
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "keep", remaining[0].Message)

	assert.ErrorIs(t, s.DeleteMatchingRequestCascade(ctx, req.ID), apperr.ErrNotFound)
}

func TestListMatchingRequests(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	s := storage.NewStorageService(db)
	f := storagetest.Seed(t, db)

	older := newRequest(f)
	require.NoError(t, s.CreateMatchingRequest(ctx, older))
	_, _, err := s.TransitionMatchingRequest(ctx, older.ID, f.Guide.ID, models.MatchingStatusRejected)
	require.NoError(t, err)
	require.NoError(t, db.Model(older).Update("created_at", time.Now().Add(-time.Hour)).Error)

	newer := newRequest(f)
	require.NoError(t, s.CreateMatchingRequest(ctx, newer))

	sent, total, err := s.ListMatchingRequests(ctx, storage.MatchingFilter{UserID: f.Traveler.ID, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, sent, 2)
	assert.Equal(t, newer.ID, sent[0].ID)

	pending := models.MatchingStatusPending
	received, total, err := s.ListMatchingRequests(ctx, storage.MatchingFilter{GuideID: f.Guide.ID, Status: &pending, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, received, 1)
	assert.Equal(t, newer.ID, received[0].ID)
}

func TestFindRoomForRequest(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	s := storage.NewStorageService(db)
	f := storagetest.Seed(t, db)

	req := newRequest(f)
	require.NoError(t, s.CreateMatchingRequest(ctx, req))

	room, err := s.FindRoomForRequest(ctx, req, f.GuideUser.ID)
	require.NoError(t, err)
	assert.Nil(t, room)

	_, created, err := s.TransitionMatchingRequest(ctx, req.ID, f.Guide.ID, models.MatchingStatusAccepted)
	require.NoError(t, err)

	room, err = s.FindRoomForRequest(ctx, req, f.GuideUser.ID)
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, created.ID, room.ID)
}
