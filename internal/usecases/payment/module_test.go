package payment

import (
	"context"
	"errors"
	"io"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	paymentPort "github.com/lifecode-app/lifecode-server/internal/ports/payment"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
)

type fakeUserRepo struct {
	balances map[uuid.UUID]int64
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.balances[user.ID] = user.Energy
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return &domain.User{ID: id, Energy: r.balances[id]}, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) UpdateLastSeen(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeUserRepo) SpendEnergy(_ context.Context, id uuid.UUID, delta int64) error {
	r.balances[id] -= delta
	return nil
}

func (r *fakeUserRepo) CreditEnergy(_ context.Context, id uuid.UUID, delta int64) error {
	r.balances[id] += delta
	return nil
}

func (r *fakeUserRepo) SpendEnergyTx(ctx context.Context, _ persistence.Transaction, id uuid.UUID, delta int64) error {
	return r.SpendEnergy(ctx, id, delta)
}

func (r *fakeUserRepo) CreditEnergyTx(ctx context.Context, _ persistence.Transaction, id uuid.UUID, delta int64) error {
	return r.CreditEnergy(ctx, id, delta)
}

func (r *fakeUserRepo) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return fn(ctx, nil)
}

type fakeTxRepo struct {
	created   []domain.Transaction
	keys      map[string]bool
	createErr error
}

func (r *fakeTxRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	return r.CreateTx(ctx, nil, tx)
}

func (r *fakeTxRepo) CreateTx(_ context.Context, _ persistence.Transaction, tx *domain.Transaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	if tx.IdempotencyKey != nil {
		if r.keys[*tx.IdempotencyKey] {
			return domain.ErrDuplicateIdempotencyKey
		}
		r.keys[*tx.IdempotencyKey] = true
	}
	r.created = append(r.created, *tx)
	return nil
}

func (r *fakeTxRepo) ListByUser(_ context.Context, _ uuid.UUID, _ int) ([]domain.Transaction, error) {
	return r.created, nil
}

func (r *fakeTxRepo) ExistsByIdempotencyKey(_ context.Context, key string) (bool, error) {
	return r.keys[key], nil
}

type fakeProvider struct {
	event    *paymentPort.WebhookEvent
	parseErr error
	session  *paymentPort.CheckoutSession
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, _ paymentPort.CreateCheckoutRequest) (*paymentPort.CheckoutSession, error) {
	return p.session, nil
}

func (p *fakeProvider) ParseWebhookEvent(_ []byte, _ string) (*paymentPort.WebhookEvent, error) {
	if p.parseErr != nil {
		return nil, p.parseErr
	}
	return p.event, nil
}

func newTestService(provider *fakeProvider) (*Service, *fakeUserRepo, *fakeTxRepo) {
	users := &fakeUserRepo{balances: make(map[uuid.UUID]int64)}
	ledger := &fakeTxRepo{keys: make(map[string]bool)}
	svc := New(users, ledger, provider, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, users, ledger
}

func TestHandleWebhookCreditsOnce(t *testing.T) {
	userID := uuid.New()
	provider := &fakeProvider{event: &paymentPort.WebhookEvent{
		Type:        "checkout.session.completed",
		SessionID:   "cs_test_123",
		UserID:      userID,
		Energy:      1000,
		AmountCents: 799,
	}}
	svc, users, ledger := newTestService(provider)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	assert.Equal(t, int64(1000), users.balances[userID])
	require.Len(t, ledger.created, 1)
	assert.Equal(t, domain.ReasonPurchase, ledger.created[0].Reason)
	require.NotNil(t, ledger.created[0].IdempotencyKey)
	assert.Equal(t, "cs_test_123", *ledger.created[0].IdempotencyKey)

	// повторная доставка того же события - no-op
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Equal(t, int64(1000), users.balances[userID])
	assert.Len(t, ledger.created, 1)
}

func TestHandleWebhookVerificationFailure(t *testing.T) {
	provider := &fakeProvider{parseErr: errors.New("bad signature")}
	svc, _, _ := newTestService(provider)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWebhookVerification)
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	provider := &fakeProvider{event: &paymentPort.WebhookEvent{Type: "invoice.paid"}}
	svc, users, ledger := newTestService(provider)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	assert.Empty(t, users.balances)
	assert.Empty(t, ledger.created)
}

func TestHandleWebhookConcurrentDuplicateIsSuccess(t *testing.T) {
	provider := &fakeProvider{event: &paymentPort.WebhookEvent{
		Type:      "checkout.session.completed",
		SessionID: "cs_race",
		UserID:    uuid.New(),
		Energy:    300,
	}}
	svc, _, ledger := newTestService(provider)
	// гонка: ключ уже в леджере, но ExistsByIdempotencyKey ещё его не видел
	ledger.createErr = domain.ErrDuplicateIdempotencyKey

	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
}

func TestFindPackage(t *testing.T) {
	pkg, ok := FindPackage("standard")
	require.True(t, ok)
	assert.Equal(t, int64(1000), pkg.Energy)

	_, ok = FindPackage("nonexistent")
	assert.False(t, ok)
}

func TestCreateCheckoutUnknownPackage(t *testing.T) {
	svc, _, _ := newTestService(&fakeProvider{})

	_, err := svc.CreateCheckout(context.Background(), uuid.New(), "mega")
	assert.Error(t, err)
}
