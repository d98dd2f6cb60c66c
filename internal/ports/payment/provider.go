package payment

import (
	"context"

	"github.com/google/uuid"
)

// CreateCheckoutRequest запрос на создание платёжной сессии
type CreateCheckoutRequest struct {
	UserID      uuid.UUID
	Energy      int64  // количество энергии к начислению
	PriceCents  int64  // цена в центах
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession созданная сессия у провайдера
type CheckoutSession struct {
	SessionID string
	URL       string // redirect URL для пользователя
}

// WebhookEvent разобранное и проверенное по подписи входящее событие
type WebhookEvent struct {
	Type        string
	SessionID   string
	UserID      uuid.UUID
	Energy      int64
	AmountCents int64
}

// IPaymentProvider платёжный провайдер (Stripe). Use case зависит
// только от этого интерфейса, не зная деталей реализации.
type IPaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req CreateCheckoutRequest) (*CheckoutSession, error)

	// ParseWebhookEvent проверяет подпись и разбирает payload вебхука.
	// Ошибка подписи/формата отдаётся провайдеру как 400, чтобы
	// сработал его собственный retry.
	ParseWebhookEvent(payload []byte, signatureHeader string) (*WebhookEvent, error)
}
