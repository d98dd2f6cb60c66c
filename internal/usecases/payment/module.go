package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	paymentPort "github.com/lifecode-app/lifecode-server/internal/ports/payment"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
	"github.com/lifecode-app/lifecode-server/internal/ports/repository"
	"github.com/lifecode-app/lifecode-server/internal/ports/service"
)

// ErrWebhookVerification подпись или формат события не прошли проверку
var ErrWebhookVerification = errors.New("webhook verification failed")

// EnergyPackage продаваемый пакет энергии
type EnergyPackage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Energy     int64  `json:"energy"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

// Packages фиксированный прайс-лист
var Packages = []EnergyPackage{
	{ID: "starter", Name: "入門包 300 能量", Energy: 300, PriceCents: 299, Currency: "usd"},
	{ID: "standard", Name: "標準包 1000 能量", Energy: 1000, PriceCents: 799, Currency: "usd"},
	{ID: "premium", Name: "尊享包 3000 能量", Energy: 3000, PriceCents: 1999, Currency: "usd"},
}

// Service платёжные сценарии: создание checkout-сессии и обработка
// вебхука с идемпотентным начислением
type Service struct {
	UserRepo        repository.IUserRepo
	TxRepo          repository.ITransactionRepo
	PaymentProvider paymentPort.IPaymentProvider
	Alerter         service.IAlerterService
	Log             *slog.Logger
}

// New создаёт платёжный сервис
func New(
	userRepo repository.IUserRepo,
	txRepo repository.ITransactionRepo,
	paymentProvider paymentPort.IPaymentProvider,
	alerter service.IAlerterService,
	log *slog.Logger,
) *Service {
	return &Service{
		UserRepo:        userRepo,
		TxRepo:          txRepo,
		PaymentProvider: paymentProvider,
		Alerter:         alerter,
		Log:             log,
	}
}

// FindPackage ищет пакет по id
func FindPackage(id string) (EnergyPackage, bool) {
	for _, p := range Packages {
		if p.ID == id {
			return p, true
		}
	}
	return EnergyPackage{}, false
}

// CreateCheckout создаёт платёжную сессию для пакета энергии
func (s *Service) CreateCheckout(ctx context.Context, userID uuid.UUID, packageID string) (*paymentPort.CheckoutSession, error) {
	pkg, ok := FindPackage(packageID)
	if !ok {
		return nil, fmt.Errorf("unknown energy package: %s", packageID)
	}

	session, err := s.PaymentProvider.CreateCheckoutSession(ctx, paymentPort.CreateCheckoutRequest{
		UserID:      userID,
		Energy:      pkg.Energy,
		PriceCents:  pkg.PriceCents,
		Currency:    pkg.Currency,
		ProductName: pkg.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.Log.Info("checkout session created",
		"user_id", userID,
		"package", packageID,
		"session_id", session.SessionID,
	)
	return session, nil
}

// HandleWebhook обрабатывает подписанное событие провайдера.
// Идемпотентность - уникальный idempotency_key (session id) в леджере:
// повторная доставка события не начисляет энергию второй раз.
// Ошибки возвращаются наружу, чтобы провайдер повторил доставку.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.PaymentProvider.ParseWebhookEvent(payload, signatureHeader)
	if err != nil {
		s.Log.Error("webhook verification failed",
			"error", err,
			"payload_size", len(payload),
		)
		return fmt.Errorf("%w: %v", ErrWebhookVerification, err)
	}

	if event.SessionID == "" {
		// не checkout.session.completed, подтверждаем без обработки
		s.Log.Debug("ignoring webhook event", "type", event.Type)
		return nil
	}

	processed, err := s.TxRepo.ExistsByIdempotencyKey(ctx, event.SessionID)
	if err != nil {
		return err
	}
	if processed {
		s.Log.Info("webhook already processed", "session_id", event.SessionID)
		return nil
	}

	err = s.UserRepo.WithTransaction(ctx, func(txCtx context.Context, tx persistence.Transaction) error {
		if err := s.UserRepo.CreditEnergyTx(txCtx, tx, event.UserID, event.Energy); err != nil {
			return err
		}
		key := event.SessionID
		return s.TxRepo.CreateTx(txCtx, tx, &domain.Transaction{
			ID:             uuid.New(),
			UserID:         event.UserID,
			Delta:          event.Energy,
			Reason:         domain.ReasonPurchase,
			Description:    fmt.Sprintf("energy purchase, %d cents", event.AmountCents),
			IdempotencyKey: &key,
			CreatedAt:      time.Now(),
		})
	})
	if err != nil {
		// гонка двух доставок одного события: вторая упирается в
		// уникальный индекс и считается успешной
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			s.Log.Info("webhook processed concurrently", "session_id", event.SessionID)
			return nil
		}
		s.Log.Error("webhook crediting failed",
			"error", err,
			"session_id", event.SessionID,
			"user_id", event.UserID,
		)
		if s.Alerter != nil {
			alertMsg := fmt.Sprintf("payment webhook failed: session=%s user=%s error=%v",
				event.SessionID, event.UserID, err)
			if alertErr := s.Alerter.SendAlert(ctx, alertMsg); alertErr != nil {
				s.Log.Warn("failed to send alert", "error", alertErr)
			}
		}
		return err
	}

	s.Log.Info("energy credited from payment",
		"user_id", event.UserID,
		"session_id", event.SessionID,
		"energy", event.Energy,
	)
	return nil
}
