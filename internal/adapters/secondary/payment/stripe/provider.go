package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	stripesdk "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/lifecode-app/lifecode-server/internal/ports/payment"
)

const (
	metadataUserID = "user_id"
	metadataEnergy = "energy"

	eventCheckoutCompleted = "checkout.session.completed"
)

// Provider платёжный провайдер поверх Stripe Checkout
type Provider struct {
	cfg *Config
	log *slog.Logger
}

func NewProvider(cfg *Config, log *slog.Logger) *Provider {
	stripesdk.Key = cfg.SecretKey

	return &Provider{
		cfg: cfg,
		log: log,
	}
}

// CreateCheckoutSession создаёт Checkout-сессию. user_id и energy
// кладутся в metadata и возвращаются Stripe в событии вебхука.
func (p *Provider) CreateCheckoutSession(ctx context.Context, req payment.CreateCheckoutRequest) (*payment.CheckoutSession, error) {
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = p.cfg.SuccessURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = p.cfg.CancelURL
	}

	params := &stripesdk.CheckoutSessionParams{
		Mode:       stripesdk.String(string(stripesdk.CheckoutSessionModePayment)),
		SuccessURL: stripesdk.String(successURL),
		CancelURL:  stripesdk.String(cancelURL),
		LineItems: []*stripesdk.CheckoutSessionLineItemParams{
			{
				PriceData: &stripesdk.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripesdk.String(req.Currency),
					UnitAmount: stripesdk.Int64(req.PriceCents),
					ProductData: &stripesdk.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripesdk.String(req.ProductName),
					},
				},
				Quantity: stripesdk.Int64(1),
			},
		},
		Metadata: map[string]string{
			metadataUserID: req.UserID.String(),
			metadataEnergy: strconv.FormatInt(req.Energy, 10),
		},
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}

	p.log.Info("stripe checkout session created",
		"session_id", sess.ID,
		"user_id", req.UserID,
		"energy", req.Energy,
	)

	return &payment.CheckoutSession{
		SessionID: sess.ID,
		URL:       sess.URL,
	}, nil
}

// ParseWebhookEvent проверяет подпись Stripe-Signature и разбирает
// событие. Не-checkout события отдаются с пустым SessionID, их
// обработка - решение use case.
func (p *Provider) ParseWebhookEvent(payload []byte, signatureHeader string) (*payment.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, p.cfg.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}

	result := &payment.WebhookEvent{Type: string(event.Type)}

	if event.Type != eventCheckoutCompleted {
		return result, nil
	}

	var sess stripesdk.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	userID, err := uuid.Parse(sess.Metadata[metadataUserID])
	if err != nil {
		return nil, fmt.Errorf("invalid user_id in session metadata [session=%s]: %w", sess.ID, err)
	}

	energy, err := strconv.ParseInt(sess.Metadata[metadataEnergy], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid energy in session metadata [session=%s]: %w", sess.ID, err)
	}

	result.SessionID = sess.ID
	result.UserID = userID
	result.Energy = energy
	result.AmountCents = sess.AmountTotal

	return result, nil
}
