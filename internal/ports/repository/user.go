package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
)

// IUserRepo репозиторий пользователей
type IUserRepo interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID) error

	// SpendEnergy атомарно списывает энергию условным UPDATE
	// (energy = energy - delta WHERE energy >= delta).
	// Возвращает domain.ErrInsufficientEnergy, если баланса не хватает.
	SpendEnergy(ctx context.Context, id uuid.UUID, delta int64) error

	// CreditEnergy атомарно начисляет энергию
	CreditEnergy(ctx context.Context, id uuid.UUID, delta int64) error

	// SpendEnergyTx / CreditEnergyTx то же в рамках транзакции:
	// мутация баланса и строка леджера коммитятся вместе
	SpendEnergyTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID, delta int64) error
	CreditEnergyTx(ctx context.Context, tx persistence.Transaction, id uuid.UUID, delta int64) error

	WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error
}
