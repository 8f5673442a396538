package story_test

import (
	"context"
	"errors"
	"testing"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/models"
	"storybook/backend/internal/storage"
	"storybook/backend/internal/storage/storagetest"
	"storybook/backend/internal/story"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockRemover struct {
	mock.Mock
}

func (m *mockRemover) Remove(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func strPtr(s string) *string { return &s }

type fixture struct {
	ctx     context.Context
	db      *gorm.DB
	store   *storage.Service
	remover *mockRemover
	svc     *story.Service
	fx      storagetest.Fixture
}

func setup(t *testing.T) fixture {
	db := storagetest.NewDB(t)
	store := storage.NewStorageService(db)
	r := new(mockRemover)
	return fixture{
		ctx:     context.Background(),
		db:      db,
		store:   store,
		remover: r,
		svc:     story.NewService(store, r, nil),
		fx:      storagetest.Seed(t, db),
	}
}

func (f fixture) post(t *testing.T, title string) *story.View {
	t.Helper()
	v, err := f.svc.Create(f.ctx, f.fx.GuideUser.ID, story.CreateInput{
		Title:        "  " + title + "  ",
		MediaType:    models.MediaTypeImage,
		MediaURL:     "/uploads/stories/" + title + ".jpg",
		ThumbnailURL: strPtr("/uploads/stories/thumb_" + title + ".jpg"),
		RegionID1:    strPtr("수도권"),
		RegionID2:    strPtr("서울"),
	})
	require.NoError(t, err)
	return v
}

func TestCreate(t *testing.T) {
	f := setup(t)

	v := f.post(t, "palace")
	assert.Equal(t, "palace", v.Title)
	assert.Equal(t, f.fx.Guide.ID, *v.GuideID)
	assert.Equal(t, "guide", v.AuthorNickname)
	assert.Equal(t, "수도권 서울", *v.RegionName)
	assert.Equal(t, "수도권", *v.RegionID)
	assert.True(t, v.IsActive)

	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{"not a guide", func(t *testing.T) string { return f.fx.Traveler.ID }},
		{"unapproved guide", func(t *testing.T) string {
			u := storagetest.User(t, f.db, "pending guide")
			require.NoError(t, f.db.Create(&models.Guide{UserID: u.ID}).Error)
			return u.ID
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx, tt.setup(t), story.CreateInput{Title: "x", MediaType: models.MediaTypeImage, MediaURL: "/x.jpg"})
			assert.ErrorIs(t, err, apperr.ErrForbidden)
		})
	}
}

func TestGet_CountsViews(t *testing.T) {
	f := setup(t)
	v := f.post(t, "market")

	got, err := f.svc.Get(f.ctx, v.ID, f.fx.Traveler.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)

	count, err := f.svc.CountView(f.ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, f.svc.SetActive(f.ctx, v.ID, false))
	_, err = f.svc.CountView(f.ctx, v.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err = f.svc.Get(f.ctx, v.ID, "")
	require.NoError(t, err, "hidden stories stay readable by id")
	assert.Equal(t, 3, got.ViewCount)

	_, err = f.svc.Get(f.ctx, "missing", "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLikesAndBookmarks(t *testing.T) {
	f := setup(t)
	v := f.post(t, "beach")
	other := f.post(t, "harbor")

	res, err := f.svc.ToggleLike(f.ctx, v.ID, f.fx.Traveler.ID)
	require.NoError(t, err)
	assert.Equal(t, &story.LikeResult{IsLiked: true, LikeCount: 1}, res)

	on, err := f.svc.ToggleBookmark(f.ctx, other.ID, f.fx.Traveler.ID)
	require.NoError(t, err)
	assert.True(t, on)

	list, err := f.svc.List(f.ctx, f.fx.Traveler.ID, story.ListInput{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.EqualValues(t, 2, list.Total)
	flags := map[string][2]bool{}
	for _, s := range list.Stories {
		flags[s.ID] = [2]bool{s.IsLiked, s.IsBookmarked}
	}
	assert.Equal(t, [2]bool{true, false}, flags[v.ID])
	assert.Equal(t, [2]bool{false, true}, flags[other.ID])

	liked, err := f.svc.Liked(f.ctx, f.fx.Traveler.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, liked.Stories, 1)
	assert.Equal(t, v.ID, liked.Stories[0].ID)

	marked, err := f.svc.Bookmarks(f.ctx, f.fx.Traveler.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, marked.Stories, 1)
	assert.Equal(t, other.ID, marked.Stories[0].ID)

	res, err = f.svc.ToggleLike(f.ctx, v.ID, f.fx.Traveler.ID)
	require.NoError(t, err)
	assert.Equal(t, &story.LikeResult{IsLiked: false, LikeCount: 0}, res)

	anon, err := f.svc.List(f.ctx, "", story.ListInput{Page: 1, Limit: 20})
	require.NoError(t, err)
	for _, s := range anon.Stories {
		assert.False(t, s.IsLiked)
		assert.False(t, s.IsBookmarked)
	}
}

func TestMine(t *testing.T) {
	f := setup(t)
	f.post(t, "one")
	f.post(t, "two")

	views, total, err := f.svc.Mine(f.ctx, f.fx.GuideUser.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, views, 1)

	_, _, err = f.svc.Mine(f.ctx, f.fx.Traveler.ID, 0, 10)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	authored, err := f.svc.Authored(f.ctx, f.fx.Traveler.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, authored.Stories)
}

func TestComments_Tree(t *testing.T) {
	f := setup(t)
	v := f.post(t, "temple")
	other := f.post(t, "river")

	first, err := f.svc.AddComment(f.ctx, v.ID, f.fx.Traveler.ID, "first", nil)
	require.NoError(t, err)
	assert.Equal(t, "traveler", first.UserNickname)
	second, err := f.svc.AddComment(f.ctx, v.ID, f.fx.GuideUser.ID, "second", strPtr(""))
	require.NoError(t, err)
	assert.Nil(t, second.ParentID)

	r1, err := f.svc.AddComment(f.ctx, v.ID, f.fx.GuideUser.ID, "reply one", &first.ID)
	require.NoError(t, err)
	r2, err := f.svc.AddComment(f.ctx, v.ID, f.fx.Traveler.ID, "reply two", &first.ID)
	require.NoError(t, err)

	tree, err := f.svc.Comments(f.ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, second.ID, tree[0].ID, "newest top-level comment first")
	assert.Empty(t, tree[0].Replies)
	require.Len(t, tree[1].Replies, 2)
	assert.Equal(t, r1.ID, tree[1].Replies[0].ID, "replies oldest first")
	assert.Equal(t, r2.ID, tree[1].Replies[1].ID)

	list, err := f.svc.List(f.ctx, "", story.ListInput{Page: 1, Limit: 20})
	require.NoError(t, err)
	for _, s := range list.Stories {
		if s.ID == v.ID {
			assert.EqualValues(t, 4, s.CommentsCount)
		}
	}

	tests := []struct {
		name    string
		storyID string
		content string
		parent  *string
		kind    error
	}{
		{"empty", v.ID, "   ", nil, apperr.ErrValidation},
		{"missing story", "missing", "hi", nil, apperr.ErrNotFound},
		{"unknown parent", v.ID, "hi", strPtr("missing"), apperr.ErrValidation},
		{"parent on another story", other.ID, "hi", &first.ID, apperr.ErrValidation},
		{"reply to a reply", v.ID, "hi", &r1.ID, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddComment(f.ctx, tt.storyID, f.fx.Traveler.ID, tt.content, tt.parent)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	empty, err := f.svc.Comments(f.ctx, other.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestDelete(t *testing.T) {
	f := setup(t)
	v := f.post(t, "castle")
	_, err := f.svc.AddComment(f.ctx, v.ID, f.fx.Traveler.ID, "nice", nil)
	require.NoError(t, err)

	err = f.svc.Delete(f.ctx, v.ID, f.fx.Traveler.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	f.remover.On("Remove", mock.Anything, v.MediaURL).Return(nil).Once()
	f.remover.On("Remove", mock.Anything, *v.ThumbnailURL).Return(errors.New("gone")).Once()

	require.NoError(t, f.svc.Delete(f.ctx, v.ID, f.fx.GuideUser.ID), "cleanup failures are not reported")
	f.remover.AssertExpectations(t)

	_, err = f.store.GetStory(f.ctx, v.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	var comments int64
	require.NoError(t, f.db.Model(&models.StoryComment{}).Count(&comments).Error)
	assert.Zero(t, comments)

	err = f.svc.Delete(f.ctx, v.ID, f.fx.GuideUser.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete_KeepsSharedMedia(t *testing.T) {
	f := setup(t)
	mine := f.post(t, "lighthouse")

	other := storagetest.User(t, f.db, "second guide")
	require.NoError(t, f.db.Create(&models.Guide{UserID: other.ID, IsApproved: true}).Error)
	copycat, err := f.svc.Create(f.ctx, other.ID, story.CreateInput{
		Title:        "borrowed",
		MediaType:    models.MediaTypeImage,
		MediaURL:     mine.MediaURL,
		ThumbnailURL: mine.ThumbnailURL,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.ctx, copycat.ID, other.ID))
	f.remover.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)

	f.remover.On("Remove", mock.Anything, mine.MediaURL).Return(nil).Once()
	f.remover.On("Remove", mock.Anything, *mine.ThumbnailURL).Return(nil).Once()
	require.NoError(t, f.svc.Delete(f.ctx, mine.ID, f.fx.GuideUser.ID))
	f.remover.AssertExpectations(t)
}
