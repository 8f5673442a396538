package models_test

import (
	"reflect"
	"testing"
	"time"

	"storybook/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	user := &models.User{KakaoID: "123456789", Nickname: "traveler"}

	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	err := user.BeforeCreate(nil) // nil *gorm.DB is acceptable for this hook

	assert.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	parsed, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
	assert.Len(t, user.ID, 36)
}

// TestUserBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	user := &models.User{ID: existingID, KakaoID: "987654321", Nickname: "guide"}

	err := user.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, user.ID)
}

// TestBeforeCreate_AllModelsGetUniqueIDs runs every model hook and checks the ids are distinct.
func TestBeforeCreate_AllModelsGetUniqueIDs(t *testing.T) {
	u := &models.User{}
	g := &models.Guide{}
	m := &models.MatchingRequest{}
	r := &models.ChatRoom{}
	c := &models.ChatMessage{}
	s := &models.Story{}
	tok := &models.RefreshToken{}

	assert.NoError(t, u.BeforeCreate(nil))
	assert.NoError(t, g.BeforeCreate(nil))
	assert.NoError(t, m.BeforeCreate(nil))
	assert.NoError(t, r.BeforeCreate(nil))
	assert.NoError(t, c.BeforeCreate(nil))
	assert.NoError(t, s.BeforeCreate(nil))
	assert.NoError(t, tok.BeforeCreate(nil))

	seen := map[string]bool{}
	for _, id := range []string{u.ID, g.ID, m.ID, r.ID, c.ID, s.ID, tok.ID} {
		assert.NotContains(t, seen, id, "Each model should get a unique ID")
		seen[id] = true
	}
}

// TestUserStructTags guards the tags the storage layer relies on.
func TestUserStructTags(t *testing.T) {
	userType := reflect.TypeOf(models.User{})

	idField, found := userType.FieldByName("ID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")
	assert.Equal(t, "id", idField.Tag.Get("json"))

	kakaoField, found := userType.FieldByName("KakaoID")
	assert.True(t, found)
	assert.Contains(t, kakaoField.Tag.Get("gorm"), "uniqueIndex")
	assert.Equal(t, "-", kakaoField.Tag.Get("json"), "KakaoID must not leak into responses")
}

func TestRefreshTokenExpired(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"future", now.Add(time.Hour), false},
		{"exactly now", now, true},
		{"past", now.Add(-time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := models.RefreshToken{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, tok.Expired(now))
		})
	}
}
