package userRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
	ports "github.com/lifecode-app/lifecode-server/internal/ports/repository"
)

type userColumns struct {
	TableName  string
	ID         string
	Email      string
	Energy     string
	IsAdmin    string
	CreatedAt  string
	UpdatedAt  string
	LastSeenAt string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns userColumns
}

// New создаёт репозиторий пользователей
func New(db persistence.Persistence, log *slog.Logger) ports.IUserRepo {
	cols := userColumns{
		TableName:  "users",
		ID:         "id",
		Email:      "email",
		Energy:     "energy",
		IsAdmin:    "is_admin",
		CreatedAt:  "created_at",
		UpdatedAt:  "updated_at",
		LastSeenAt: "last_seen_at",
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
		r.columns.Email,
		r.columns.Energy,
		r.columns.IsAdmin,
		r.columns.CreatedAt,
		r.columns.UpdatedAt,
		r.columns.LastSeenAt)
}

// Create создаёт нового пользователя
func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.columns.TableName,
		r.allColumns())
	err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Energy,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
		user.LastSeenAt)
	if err != nil {
		r.Log.Error("failed to create user",
			"error", err,
			"user_id", user.ID)
		return fmt.Errorf("failed to create user: %w", err)
	}
	r.Log.Debug("user created successfully", "user_id", user.ID)
	return nil
}

// GetByID получает пользователя по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)
	err := r.db.Get(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get user by id",
			"error", err,
			"user_id", id)
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// GetByEmail получает пользователя по email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.Email)
	err := r.db.Get(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get user by email",
			"error", err)
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// UpdateLastSeen обновляет время последней активности пользователя
func (r *Repository) UpdateLastSeen(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2 WHERE %s = $3`,
		r.columns.TableName,
		r.columns.LastSeenAt,
		r.columns.UpdatedAt,
		r.columns.ID)
	rowsAffected, err := r.db.ExecWithResult(ctx, query, now, now, userID)
	if err != nil {
		r.Log.Error("failed to update last seen",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return nil
}

// spendQuery условное списание: строка обновляется только при
// достаточном балансе, отсутствие строки - нехватка энергии
func (r *Repository) spendQuery() string {
	return fmt.Sprintf(`UPDATE %s SET %s = %s - $1, %s = $2 WHERE %s = $3 AND %s >= $1`,
		r.columns.TableName,
		r.columns.Energy,
		r.columns.Energy,
		r.columns.UpdatedAt,
		r.columns.ID,
		r.columns.Energy)
}

func (r *Repository) creditQuery() string {
	return fmt.Sprintf(`UPDATE %s SET %s = %s + $1, %s = $2 WHERE %s = $3`,
		r.columns.TableName,
		r.columns.Energy,
		r.columns.Energy,
		r.columns.UpdatedAt,
		r.columns.ID)
}

// SpendEnergy атомарно списывает энергию
func (r *Repository) SpendEnergy(ctx context.Context, userID uuid.UUID, delta int64) error {
	rowsAffected, err := r.db.ExecWithResult(ctx, r.spendQuery(), delta, time.Now(), userID)
	if err != nil {
		r.Log.Error("failed to spend energy",
			"error", err,
			"user_id", userID,
			"delta", delta)
		return fmt.Errorf("failed to spend energy: %w", err)
	}
	if rowsAffected == 0 {
		r.Log.Debug("insufficient energy", "user_id", userID, "delta", delta)
		return domain.ErrInsufficientEnergy
	}
	r.Log.Debug("energy spent", "user_id", userID, "delta", delta)
	return nil
}

// CreditEnergy атомарно начисляет энергию
func (r *Repository) CreditEnergy(ctx context.Context, userID uuid.UUID, delta int64) error {
	rowsAffected, err := r.db.ExecWithResult(ctx, r.creditQuery(), delta, time.Now(), userID)
	if err != nil {
		r.Log.Error("failed to credit energy",
			"error", err,
			"user_id", userID,
			"delta", delta)
		return fmt.Errorf("failed to credit energy: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	r.Log.Debug("energy credited", "user_id", userID, "delta", delta)
	return nil
}

// SpendEnergyTx списывает энергию в транзакции
func (r *Repository) SpendEnergyTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, delta int64) error {
	rowsAffected, err := tx.ExecWithResult(ctx, r.spendQuery(), delta, time.Now(), userID)
	if err != nil {
		r.Log.Error("failed to spend energy in transaction",
			"error", err,
			"user_id", userID,
			"delta", delta)
		return fmt.Errorf("failed to spend energy in transaction: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrInsufficientEnergy
	}
	return nil
}

// CreditEnergyTx начисляет энергию в транзакции
func (r *Repository) CreditEnergyTx(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, delta int64) error {
	rowsAffected, err := tx.ExecWithResult(ctx, r.creditQuery(), delta, time.Now(), userID)
	if err != nil {
		r.Log.Error("failed to credit energy in transaction",
			"error", err,
			"user_id", userID,
			"delta", delta)
		return fmt.Errorf("failed to credit energy in transaction: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return nil
}

// WithTransaction выполняет функцию в транзакции с автоматическим commit/rollback
func (r *Repository) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return r.db.WithTransaction(ctx, fn)
}
