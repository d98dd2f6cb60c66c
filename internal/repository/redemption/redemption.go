package redemptionRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"log/slog"

	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
	ports "github.com/lifecode-app/lifecode-server/internal/ports/repository"
)

type codeColumns struct {
	TableName string
	ID        string
	Code      string
	Energy    string
	MaxUses   string
	UsedCount string
	ExpiresAt string
	CreatedAt string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns codeColumns
}

// New создаёт репозиторий кодов пополнения
func New(db persistence.Persistence, log *slog.Logger) ports.IRedemptionRepo {
	cols := codeColumns{
		TableName: "redemption_codes",
		ID:        "id",
		Code:      "code",
		Energy:    "energy",
		MaxUses:   "max_uses",
		UsedCount: "used_count",
		ExpiresAt: "expires_at",
		CreatedAt: "created_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (7 колонок)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.Code,
		r.columns.Energy,
		r.columns.MaxUses,
		r.columns.UsedCount,
		r.columns.ExpiresAt,
		r.columns.CreatedAt)
}

// Create создаёт код пополнения
func (r *Repository) Create(ctx context.Context, code *domain.RedemptionCode) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.columns.TableName,
		r.allColumns())
	err := r.db.Exec(ctx, query,
		code.ID,
		code.Code,
		code.Energy,
		code.MaxUses,
		code.UsedCount,
		code.ExpiresAt,
		code.CreatedAt)
	if err != nil {
		r.Log.Error("failed to create redemption code",
			"error", err,
			"code_id", code.ID)
		return fmt.Errorf("failed to create redemption code: %w", err)
	}
	r.Log.Debug("redemption code created", "code_id", code.ID)
	return nil
}

// GetByCode получает код по его строковому значению
func (r *Repository) GetByCode(ctx context.Context, code string) (*domain.RedemptionCode, error) {
	var result domain.RedemptionCode
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.Code)
	err := r.db.Get(ctx, &result, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("redemption code not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get redemption code", "error", err)
		return nil, fmt.Errorf("failed to get redemption code: %w", err)
	}
	return &result, nil
}

// List возвращает все коды
func (r *Repository) List(ctx context.Context) ([]domain.RedemptionCode, error) {
	var codes []domain.RedemptionCode
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.CreatedAt)
	err := r.db.Select(ctx, &codes, query)
	if err != nil {
		r.Log.Error("failed to list redemption codes", "error", err)
		return nil, fmt.Errorf("failed to list redemption codes: %w", err)
	}
	return codes, nil
}

// Delete удаляет код
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		r.columns.TableName,
		r.columns.ID)
	rowsAffected, err := r.db.ExecWithResult(ctx, query, id)
	if err != nil {
		r.Log.Error("failed to delete redemption code",
			"error", err,
			"code_id", id)
		return fmt.Errorf("failed to delete redemption code: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("redemption code not found: %w", domain.ErrNotFound)
	}
	return nil
}

// consumeQuery инкремент used_count с проверкой лимита и срока:
// строка не обновляется, если код исчерпан или истёк
func (r *Repository) consumeQuery() string {
	return fmt.Sprintf(`UPDATE %s SET %s = %s + 1
		WHERE %s = $1
		AND (%s <= 0 OR %s < %s)
		AND (%s IS NULL OR %s > NOW())`,
		r.columns.TableName,
		r.columns.UsedCount,
		r.columns.UsedCount,
		r.columns.ID,
		r.columns.MaxUses,
		r.columns.UsedCount,
		r.columns.MaxUses,
		r.columns.ExpiresAt,
		r.columns.ExpiresAt)
}

// ConsumeUse атомарно расходует одно использование кода
func (r *Repository) ConsumeUse(ctx context.Context, id uuid.UUID) error {
	rowsAffected, err := r.db.ExecWithResult(ctx, r.consumeQuery(), id)
	if err != nil {
		r.Log.Error("failed to consume redemption code use",
			"error", err,
			"code_id", id)
		return fmt.Errorf("failed to consume redemption code use: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrCodeNotUsable
	}
	return nil
}

// ConsumeUseTx то же в транзакции БД
func (r *Repository) ConsumeUseTx(ctx context.Context, dbTx persistence.Transaction, id uuid.UUID) error {
	rowsAffected, err := dbTx.ExecWithResult(ctx, r.consumeQuery(), id)
	if err != nil {
		r.Log.Error("failed to consume redemption code use in transaction",
			"error", err,
			"code_id", id)
		return fmt.Errorf("failed to consume redemption code use in transaction: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrCodeNotUsable
	}
	return nil
}
