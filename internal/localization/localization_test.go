package localization_test

import (
	"testing"
	"testing/fstest"

	"storybook/backend/internal/localization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogs(t *testing.T) {
	l, err := localization.NewDefault()
	require.NoError(t, err)

	assert.Equal(t, "북마크에 추가되었습니다", l.GetString("ko", localization.BookmarkAdded))
	assert.Equal(t, "Added to bookmarks", l.GetString("en", localization.BookmarkAdded))

	for _, key := range []string{
		localization.BookmarkAdded,
		localization.BookmarkRemoved,
		localization.StoryDeleted,
		localization.MatchingRequestDeleted,
		localization.ReportSubmitted,
		localization.LoggedOut,
	} {
		assert.NotEqual(t, key, l.GetString("ko", key), "ko is missing %s", key)
		assert.NotEqual(t, key, l.GetString("en", key), "en is missing %s", key)
	}
}

func TestGetStringFallback(t *testing.T) {
	fsys := fstest.MapFS{
		"i18n/en.json":    {Data: []byte(`{"hello":"Hello","only_en":"English only"}`)},
		"i18n/ko.json":    {Data: []byte(`{"hello":"안녕하세요"}`)},
		"i18n/README.txt": {Data: []byte("ignored")},
	}
	l, err := localization.NewLocalizer(fsys, "i18n")
	require.NoError(t, err)

	assert.Equal(t, "안녕하세요", l.GetString("ko", "hello"))
	assert.Equal(t, "English only", l.GetString("ko", "only_en"))
	assert.Equal(t, "Hello", l.GetString("fr", "hello"))
	assert.Equal(t, "missing_key", l.GetString("ko", "missing_key"))
}

func TestNewLocalizerErrors(t *testing.T) {
	_, err := localization.NewLocalizer(fstest.MapFS{}, "nope")
	assert.Error(t, err)

	_, err = localization.NewLocalizer(fstest.MapFS{"d/en.json": {Data: []byte("{")}}, "d")
	assert.Error(t, err)
}

func TestLanguageFromHeader(t *testing.T) {
	l, err := localization.NewDefault()
	require.NoError(t, err)

	tests := []struct {
		header string
		want   string
	}{
		{"", "ko"},
		{"en-US,en;q=0.9", "en"},
		{"ko-KR,ko;q=0.9,en;q=0.8", "ko"},
		{"fr-FR, en;q=0.5", "en"},
		{"fr, de", "ko"},
		{"*", "ko"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.LanguageFromHeader(tt.header), tt.header)
	}
}
