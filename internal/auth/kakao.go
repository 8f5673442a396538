package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"storybook/backend/internal/config"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ErrKakaoRejected means Kakao did not accept the access token.
var ErrKakaoRejected = errors.New("kakao rejected the access token")

// KakaoProfile is the part of the Kakao user that becomes a local user.
type KakaoProfile struct {
	KakaoID      string
	Email        *string
	Nickname     string
	ProfileImage *string
}

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*KakaoProfile, error)
}

// KakaoClient reads the user behind a Kakao access token. Calls go through a
// circuit breaker that only counts transport and 5xx failures.
type KakaoClient struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*KakaoProfile]
	logger  *zap.Logger
}

func NewKakaoClient(cfg config.KakaoConfig, logger *zap.Logger) *KakaoClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker[*KakaoProfile](gobreaker.Settings{
		Name:    "kakao-api",
		Timeout: config.KakaoBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.KakaoBreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrKakaoRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &KakaoClient{
		baseURL: strings.TrimRight(cfg.APIBase, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb:     cb,
		logger: logger,
	}
}

type kakaoUser struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email *string `json:"email"`
	} `json:"kakao_account"`
	Properties struct {
		Nickname     *string `json:"nickname"`
		ProfileImage *string `json:"profile_image"`
	} `json:"properties"`
}

func (c *KakaoClient) FetchProfile(ctx context.Context, accessToken string) (*KakaoProfile, error) {
	return c.cb.Execute(func() (*KakaoProfile, error) {
		return c.fetch(ctx, accessToken)
	})
}

func (c *KakaoClient) fetch(ctx context.Context, accessToken string) (*KakaoProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/user/me", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("kakao returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.logger.Info("kakao token rejected", zap.Int("status_code", resp.StatusCode), zap.String("body", string(body)))
		return nil, ErrKakaoRejected
	}

	var u kakaoUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if u.ID == 0 {
		return nil, ErrKakaoRejected
	}

	id := strconv.FormatInt(u.ID, 10)
	p := &KakaoProfile{
		KakaoID:      id,
		Email:        u.KakaoAccount.Email,
		Nickname:     "사용자" + id,
		ProfileImage: u.Properties.ProfileImage,
	}
	if u.Properties.Nickname != nil && *u.Properties.Nickname != "" {
		p.Nickname = *u.Properties.Nickname
	}
	return p, nil
}
