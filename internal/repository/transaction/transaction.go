package transactionRepo

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
	ports "github.com/lifecode-app/lifecode-server/internal/ports/repository"
)

const pgUniqueViolation = "23505"

type txColumns struct {
	TableName      string
	ID             string
	UserID         string
	Delta          string
	Reason         string
	Description    string
	ReferenceID    string
	IdempotencyKey string
	CreatedAt      string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns txColumns
}

// New создаёт репозиторий леджера энергии
func New(db persistence.Persistence, log *slog.Logger) ports.ITransactionRepo {
	cols := txColumns{
		TableName:      "transactions",
		ID:             "id",
		UserID:         "user_id",
		Delta:          "delta",
		Reason:         "reason",
		Description:    "description",
		ReferenceID:    "reference_id",
		IdempotencyKey: "idempotency_key",
		CreatedAt:      "created_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (8 колонок)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.UserID,
		r.columns.Delta,
		r.columns.Reason,
		r.columns.Description,
		r.columns.ReferenceID,
		r.columns.IdempotencyKey,
		r.columns.CreatedAt)
}

func (r *Repository) insertQuery() string {
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.columns.TableName,
		r.allColumns())
}

func (r *Repository) mapInsertError(err error, tx *domain.Transaction) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		r.Log.Debug("duplicate idempotency key",
			"user_id", tx.UserID,
			"reason", tx.Reason)
		return domain.ErrDuplicateIdempotencyKey
	}
	r.Log.Error("failed to create transaction",
		"error", err,
		"transaction_id", tx.ID,
		"user_id", tx.UserID)
	return fmt.Errorf("failed to create transaction: %w", err)
}

// Create вставляет строку леджера
func (r *Repository) Create(ctx context.Context, tx *domain.Transaction) error {
	err := r.db.Exec(ctx, r.insertQuery(),
		tx.ID,
		tx.UserID,
		tx.Delta,
		tx.Reason,
		tx.Description,
		tx.ReferenceID,
		tx.IdempotencyKey,
		tx.CreatedAt)
	if err != nil {
		return r.mapInsertError(err, tx)
	}
	r.Log.Debug("transaction created",
		"transaction_id", tx.ID,
		"user_id", tx.UserID,
		"delta", tx.Delta,
		"reason", tx.Reason)
	return nil
}

// CreateTx вставляет строку леджера в транзакции БД
func (r *Repository) CreateTx(ctx context.Context, dbTx persistence.Transaction, tx *domain.Transaction) error {
	err := dbTx.Exec(ctx, r.insertQuery(),
		tx.ID,
		tx.UserID,
		tx.Delta,
		tx.Reason,
		tx.Description,
		tx.ReferenceID,
		tx.IdempotencyKey,
		tx.CreatedAt)
	if err != nil {
		return r.mapInsertError(err, tx)
	}
	return nil
}

// ListByUser возвращает последние движения энергии пользователя
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC LIMIT $2`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.CreatedAt)
	err := r.db.Select(ctx, &transactions, query, userID, limit)
	if err != nil {
		r.Log.Error("failed to list transactions",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// ExistsByIdempotencyKey проверяет, обработан ли ключ
func (r *Repository) ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)`,
		r.columns.TableName,
		r.columns.IdempotencyKey)
	err := r.db.Get(ctx, &exists, query, key)
	if err != nil {
		r.Log.Error("failed to check idempotency key", "error", err)
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return exists, nil
}
