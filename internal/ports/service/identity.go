package service

import "context"

// IdentityUser пользователь в системе внешнего identity-провайдера
type IdentityUser struct {
	ID    string
	Email string
}

// IIdentityService внешний identity-провайдер (Supabase Auth, email OTP)
type IIdentityService interface {
	// SendOTP отправляет одноразовый код на email
	SendOTP(ctx context.Context, email string) error

	// VerifyOTP проверяет код и возвращает access token провайдера
	VerifyOTP(ctx context.Context, email string, code string) (string, error)

	// GetUser обменивает access token провайдера на данные пользователя
	GetUser(ctx context.Context, accessToken string) (*IdentityUser, error)
}
