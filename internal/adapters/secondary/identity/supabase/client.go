package supabase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lifecode-app/lifecode-server/internal/ports/service"
)

const (
	endpointOTP    = "/auth/v1/otp"
	endpointVerify = "/auth/v1/verify"
	endpointUser   = "/auth/v1/user"
)

// Client клиент Supabase Auth (email OTP)
type Client struct {
	cfg    *Config
	client *resty.Client
	log    *slog.Logger
}

func NewClient(cfg *Config, log *slog.Logger) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(15 * time.Second).
		SetHeader("apikey", cfg.AnonKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		cfg:    cfg,
		client: client,
		log:    log,
	}
}

type errorResponse struct {
	Message   string `json:"msg"`
	ErrorCode string `json:"error_code"`
}

type verifyResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SendOTP запрашивает отправку одноразового кода на email
func (c *Client) SendOTP(ctx context.Context, email string) error {
	var errResp errorResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"email":       email,
			"create_user": true,
		}).
		SetError(&errResp).
		Post(endpointOTP)
	if err != nil {
		return fmt.Errorf("supabase otp request failed: %w", err)
	}

	if resp.IsError() {
		c.log.Debug("supabase otp rejected",
			"status_code", resp.StatusCode(),
			"error_code", errResp.ErrorCode,
		)
		return fmt.Errorf("supabase otp error [status=%d]: %s", resp.StatusCode(), errResp.Message)
	}

	return nil
}

// VerifyOTP проверяет код и возвращает access token Supabase
func (c *Client) VerifyOTP(ctx context.Context, email string, code string) (string, error) {
	var (
		okResp  verifyResponse
		errResp errorResponse
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"type":  "email",
			"email": email,
			"token": code,
		}).
		SetResult(&okResp).
		SetError(&errResp).
		Post(endpointVerify)
	if err != nil {
		return "", fmt.Errorf("supabase verify request failed: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("supabase verify error [status=%d]: %s", resp.StatusCode(), errResp.Message)
	}

	if okResp.AccessToken == "" {
		return "", fmt.Errorf("supabase verify returned empty access token")
	}

	return okResp.AccessToken, nil
}

// GetUser обменивает access token на данные пользователя
func (c *Client) GetUser(ctx context.Context, accessToken string) (*service.IdentityUser, error) {
	var (
		okResp  userResponse
		errResp errorResponse
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken).
		SetResult(&okResp).
		SetError(&errResp).
		Get(endpointUser)
	if err != nil {
		return nil, fmt.Errorf("supabase user request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("supabase user error [status=%d]: %s", resp.StatusCode(), errResp.Message)
	}

	if okResp.ID == "" {
		return nil, fmt.Errorf("supabase returned user without id")
	}

	return &service.IdentityUser{
		ID:    okResp.ID,
		Email: okResp.Email,
	}, nil
}
