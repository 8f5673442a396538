// Package storagetest opens throwaway in-memory databases for tests.
package storagetest

import (
	"fmt"
	"testing"

	"storybook/backend/internal/models"
	"storybook/backend/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB returns a migrated sqlite database private to t. It is closed when
// the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), storage.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every statement on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, storage.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewService wraps NewDB in a storage.Service.
func NewService(t testing.TB) *storage.Service {
	return storage.NewStorageService(NewDB(t))
}

// Fixture seeds a traveler, a guide user and an approved guide record.
type Fixture struct {
	Traveler  *models.User
	GuideUser *models.User
	Guide     *models.Guide
}

func Seed(t testing.TB, db *gorm.DB) Fixture {
	t.Helper()

	traveler := &models.User{KakaoID: "k-" + uuid.NewString(), Nickname: "traveler"}
	guideUser := &models.User{KakaoID: "k-" + uuid.NewString(), Nickname: "guide"}
	require.NoError(t, db.Create(traveler).Error)
	require.NoError(t, db.Create(guideUser).Error)

	guide := &models.Guide{UserID: guideUser.ID, Bio: "local guide", IsApproved: true}
	require.NoError(t, db.Create(guide).Error)

	return Fixture{Traveler: traveler, GuideUser: guideUser, Guide: guide}
}

// User inserts a user with the given nickname.
func User(t testing.TB, db *gorm.DB, nickname string) *models.User {
	t.Helper()
	u := &models.User{KakaoID: "k-" + uuid.NewString(), Nickname: nickname}
	require.NoError(t, db.Create(u).Error)
	return u
}
