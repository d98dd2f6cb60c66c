package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
)

// ITransactionRepo репозиторий леджера энергии
type ITransactionRepo interface {
	// Create вставляет строку леджера. Дубликат idempotency_key
	// возвращает ErrDuplicateIdempotencyKey (уникальный индекс в БД).
	Create(ctx context.Context, tx *domain.Transaction) error

	// CreateTx то же в рамках транзакции БД
	CreateTx(ctx context.Context, dbTx persistence.Transaction, tx *domain.Transaction) error

	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error)

	// ExistsByIdempotencyKey проверка обработанности платёжной сессии
	ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error)
}

// IRedemptionRepo репозиторий кодов пополнения
type IRedemptionRepo interface {
	Create(ctx context.Context, code *domain.RedemptionCode) error
	GetByCode(ctx context.Context, code string) (*domain.RedemptionCode, error)
	List(ctx context.Context) ([]domain.RedemptionCode, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ConsumeUse атомарно инкрементирует used_count с проверкой лимита;
	// возвращает domain.ErrCodeNotUsable, если код исчерпан
	ConsumeUse(ctx context.Context, id uuid.UUID) error

	// ConsumeUseTx то же в рамках транзакции БД
	ConsumeUseTx(ctx context.Context, dbTx persistence.Transaction, id uuid.UUID) error
}
