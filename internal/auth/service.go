// Package auth signs users in with Kakao and manages their JWTs.
package auth

import (
	"context"
	"errors"
	"time"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/config"
	"storybook/backend/internal/models"
	"storybook/backend/internal/storage"

	"go.uber.org/zap"
)

type Store interface {
	storage.UserStore
	storage.TokenStore
}

type Service struct {
	store  Store
	kakao  ProfileFetcher
	tokens *Tokens
	logger *zap.Logger
}

func NewService(store Store, kakao ProfileFetcher, tokens *Tokens, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, kakao: kakao, tokens: tokens, logger: logger}
}

type LoginResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         *models.User `json:"user"`
}

type RefreshResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// KakaoLogin exchanges a Kakao access token for our own token pair, creating
// the user on first login.
func (s *Service) KakaoLogin(ctx context.Context, kakaoToken string) (*LoginResult, error) {
	profile, err := s.kakao.FetchProfile(ctx, kakaoToken)
	if err != nil {
		if errors.Is(err, ErrKakaoRejected) {
			return nil, apperr.Unauthorized("Invalid Kakao token")
		}
		s.logger.Error("kakao profile lookup failed", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindUnauthorized, "Invalid Kakao token", err)
	}

	user, err := s.store.UpsertKakaoUser(ctx, &models.User{
		KakaoID:      profile.KakaoID,
		Email:        profile.Email,
		Nickname:     profile.Nickname,
		ProfileImage: profile.ProfileImage,
	})
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.Access(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, exp, err := s.tokens.Refresh(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveRefreshToken(ctx, &models.RefreshToken{UserID: user.ID, Token: refresh, ExpiresAt: exp}); err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    config.TokenType,
		User:         user,
	}, nil
}

// Refresh issues a new access token for a valid, unrevoked refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if _, err := s.tokens.Parse(refreshToken, config.RefreshTokenType); err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}
	row, err := s.store.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("Refresh token expired or not found")
		}
		return nil, err
	}
	if row.Expired(s.tokens.now()) {
		return nil, apperr.Unauthorized("Refresh token expired or not found")
	}

	access, err := s.tokens.Access(row.UserID)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: access, TokenType: config.TokenType}, nil
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.store.DeleteRefreshToken(ctx, refreshToken)
}

// Authenticate resolves the user behind an access token.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	userID, err := s.tokens.Parse(accessToken, config.AccessTokenType)
	if err != nil {
		return nil, apperr.Unauthorized("Could not validate credentials")
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized("User not found")
		}
		return nil, err
	}
	return user, nil
}

// PurgeExpired deletes refresh tokens that expired before now.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredRefreshTokens(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	s.logger.Info("expired refresh tokens purged", zap.Int64("count", n))
	return n, nil
}

// UpdateProfile edits the caller's nickname and avatar. Nil fields are kept.
func (s *Service) UpdateProfile(ctx context.Context, userID string, nickname, profileImage *string) (*models.User, error) {
	return s.store.UpdateUserProfile(ctx, userID, nickname, profileImage)
}
