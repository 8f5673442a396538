package storage

import (
	"context"
	"errors"
	"time"

	"storybook/backend/internal/models"

	"gorm.io/gorm"
)

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "User not found")
	}
	return &u, nil
}

func (s *Service) GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User)
	ids = uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// UpsertKakaoUser returns the user with u.KakaoID, creating it from u on the
// first login. Existing users keep their edited nickname and image.
func (s *Service) UpsertKakaoUser(ctx context.Context, u *models.User) (*models.User, error) {
	var existing models.User
	err := s.DB.WithContext(ctx).Where("kakao_id = ?", u.KakaoID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		// A concurrent first login created the row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := s.DB.WithContext(ctx).Where("kakao_id = ?", u.KakaoID).First(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) UpdateUserProfile(ctx context.Context, id string, nickname, profileImage *string) (*models.User, error) {
	updates := map[string]interface{}{}
	if nickname != nil && *nickname != "" {
		updates["nickname"] = *nickname
	}
	if profileImage != nil {
		updates["profile_image"] = *profileImage
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return s.GetUserByID(ctx, id)
}

func (s *Service) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return s.DB.WithContext(ctx).Create(t).Error
}

func (s *Service) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := s.DB.WithContext(ctx).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, notFound(err, "Refresh token not found")
	}
	return &t, nil
}

func (s *Service) DeleteRefreshToken(ctx context.Context, token string) error {
	return s.DB.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error
}

func (s *Service) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
