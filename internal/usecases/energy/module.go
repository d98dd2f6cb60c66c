package energy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
	"github.com/lifecode-app/lifecode-server/internal/ports/repository"
)

const defaultTransactionsLimit = 50

// Service операции с балансом энергии: леджер, коды пополнения,
// админские корректировки
type Service struct {
	UserRepo       repository.IUserRepo
	TxRepo         repository.ITransactionRepo
	RedemptionRepo repository.IRedemptionRepo
	Log            *slog.Logger
}

// New создаёт сервис энергии
func New(
	userRepo repository.IUserRepo,
	txRepo repository.ITransactionRepo,
	redemptionRepo repository.IRedemptionRepo,
	log *slog.Logger,
) *Service {
	return &Service{
		UserRepo:       userRepo,
		TxRepo:         txRepo,
		RedemptionRepo: redemptionRepo,
		Log:            log,
	}
}

// Balance текущий баланс пользователя
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	user, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Energy, nil
}

// Transactions последние движения энергии
func (s *Service) Transactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > defaultTransactionsLimit {
		limit = defaultTransactionsLimit
	}
	return s.TxRepo.ListByUser(ctx, userID, limit)
}

// Redeem активирует код пополнения: расход использования, начисление и
// строка леджера в одной транзакции БД
func (s *Service) Redeem(ctx context.Context, userID uuid.UUID, code string) (int64, error) {
	redemption, err := s.RedemptionRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.WrapBusinessError(domain.ErrCodeNotUsable, "invalid_code")
		}
		return 0, err
	}
	if !redemption.IsUsable(time.Now()) {
		return 0, domain.WrapBusinessError(domain.ErrCodeNotUsable, "invalid_code")
	}

	err = s.UserRepo.WithTransaction(ctx, func(txCtx context.Context, tx persistence.Transaction) error {
		if err := s.RedemptionRepo.ConsumeUseTx(txCtx, tx, redemption.ID); err != nil {
			return err
		}
		if err := s.UserRepo.CreditEnergyTx(txCtx, tx, userID, redemption.Energy); err != nil {
			return err
		}
		refID := redemption.ID
		return s.TxRepo.CreateTx(txCtx, tx, &domain.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			Delta:       redemption.Energy,
			Reason:      domain.ReasonRedemption,
			Description: fmt.Sprintf("redemption code %s", redemption.Code),
			ReferenceID: &refID,
			CreatedAt:   time.Now(),
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotUsable) {
			return 0, domain.WrapBusinessError(err, "invalid_code")
		}
		return 0, err
	}

	s.Log.Info("redemption code used",
		"user_id", userID,
		"code_id", redemption.ID,
		"energy", redemption.Energy,
	)
	return redemption.Energy, nil
}

// CreateCode создаёт код пополнения (админ)
func (s *Service) CreateCode(ctx context.Context, code string, energy int64, maxUses int, expiresAt *time.Time) (*domain.RedemptionCode, error) {
	if code == "" || energy <= 0 {
		return nil, fmt.Errorf("code and positive energy amount are required")
	}
	redemption := &domain.RedemptionCode{
		ID:        uuid.New(),
		Code:      code,
		Energy:    energy,
		MaxUses:   maxUses,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.RedemptionRepo.Create(ctx, redemption); err != nil {
		return nil, err
	}
	return redemption, nil
}

// ListCodes возвращает все коды (админ)
func (s *Service) ListCodes(ctx context.Context) ([]domain.RedemptionCode, error) {
	return s.RedemptionRepo.List(ctx)
}

// DeleteCode удаляет код (админ)
func (s *Service) DeleteCode(ctx context.Context, id uuid.UUID) error {
	return s.RedemptionRepo.Delete(ctx, id)
}

// AdminAdjust ручная корректировка баланса с записью в леджер
func (s *Service) AdminAdjust(ctx context.Context, userID uuid.UUID, delta int64, description string) error {
	if delta == 0 {
		return fmt.Errorf("delta must be non-zero")
	}

	return s.UserRepo.WithTransaction(ctx, func(txCtx context.Context, tx persistence.Transaction) error {
		if delta > 0 {
			if err := s.UserRepo.CreditEnergyTx(txCtx, tx, userID, delta); err != nil {
				return err
			}
		} else {
			if err := s.UserRepo.SpendEnergyTx(txCtx, tx, userID, -delta); err != nil {
				return err
			}
		}
		return s.TxRepo.CreateTx(txCtx, tx, &domain.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			Delta:       delta,
			Reason:      domain.ReasonAdminAdjust,
			Description: description,
			CreatedAt:   time.Now(),
		})
	})
}
