package report_test

import (
	"context"
	"testing"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"
	"storybook/backend/internal/report"
	"storybook/backend/internal/storage"
	"storybook/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWeight(t *testing.T) {
	tests := []struct {
		reason string
		want   int
	}{
		{"spam", 1},
		{"violence", 3},
		{" Hate ", 3},
		{"copyright", 2},
		{"something else", 1},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			assert.Equal(t, tt.want, report.Weight(tt.reason))
		})
	}
}

func newStory(t *testing.T, db *gorm.DB, userID string) *models.Story {
	t.Helper()
	st := &models.Story{UserID: userID, Title: "t", MediaType: models.MediaTypeImage, MediaURL: "/x.jpg", IsActive: true}
	require.NoError(t, db.Create(st).Error)
	return st
}

func TestSubmit_Rules(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	store := storage.NewStorageService(db)
	fx := storagetest.Seed(t, db)
	svc := report.NewService(store, 0, nil)

	st := newStory(t, db, fx.GuideUser.ID)
	hidden := newStory(t, db, fx.GuideUser.ID)
	require.NoError(t, store.SetStoryActive(ctx, hidden.ID, false))

	r, err := svc.Submit(ctx, st.ID, fx.Traveler.ID, "spam", nil)
	require.NoError(t, err)
	assert.Equal(t, "spam", r.Reason)

	tests := []struct {
		name     string
		storyID  string
		reporter string
		reason   string
		want     error
	}{
		{"duplicate", st.ID, fx.Traveler.ID, "hate", apperr.ErrConflict},
		{"own story", st.ID, fx.GuideUser.ID, "spam", apperr.ErrInvalidState},
		{"missing story", "missing", fx.Traveler.ID, "spam", apperr.ErrNotFound},
		{"hidden story", hidden.ID, fx.Traveler.ID, "spam", apperr.ErrNotFound},
		{"empty reason", st.ID, fx.Traveler.ID, " ", apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.storyID, tt.reporter, tt.reason, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	got, err := store.GetStory(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive, "threshold zero never hides")
}

func TestSubmit_HidesAtThreshold(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	store := storage.NewStorageService(db)
	fx := storagetest.Seed(t, db)
	svc := report.NewService(store, 4, nil)
	st := newStory(t, db, fx.GuideUser.ID)

	_, err := svc.Submit(ctx, st.ID, fx.Traveler.ID, "violence", nil)
	require.NoError(t, err)
	got, err := store.GetStory(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	other := storagetest.User(t, db, "other")
	_, err = svc.Submit(ctx, st.ID, other.ID, "spam", nil)
	require.NoError(t, err)
	got, err = store.GetStory(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	reports, score, err := svc.List(ctx, st.ID)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	assert.Equal(t, 4, score)
}
