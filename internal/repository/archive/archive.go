package archiveRepo

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

type archiveColumns struct {
	TableName string
	ID        string
	UserID    string
	Name      string
	Gender    string
	Calendar  string
	BirthTime string
	LunarDate string
	LeapMonth string
	TimeMode  string
	SlotIndex string
	Location  string
	FpDate    string
	FpSlot    string
	CreatedAt string
	UpdatedAt string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns archiveColumns
}

// New создаёт репозиторий архивов
func New(db persistence.Persistence, log *slog.Logger) ports.IArchiveRepo {
	cols := archiveColumns{
		TableName: "archives",
		ID:        "id",
		UserID:    "user_id",
		Name:      "name",
		Gender:    "gender",
		Calendar:  "calendar",
		BirthTime: "birth_time",
		LunarDate: "lunar_date",
		LeapMonth: "leap_month",
		TimeMode:  "time_mode",
		SlotIndex: "slot_index",
		Location:  "location",
		FpDate:    "fp_date",
		FpSlot:    "fp_slot",
		CreatedAt: "created_at",
		UpdatedAt: "updated_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (15 колонок)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.UserID,
		r.columns.Name,
		r.columns.Gender,
		r.columns.Calendar,
		r.columns.BirthTime,
		r.columns.LunarDate,
		r.columns.LeapMonth,
		r.columns.TimeMode,
		r.columns.SlotIndex,
		r.columns.Location,
		r.columns.FpDate,
		r.columns.FpSlot,
		r.columns.CreatedAt,
		r.columns.UpdatedAt)
}

// Create создаёт архив
func (r *Repository) Create(ctx context.Context, archive *domain.Archive) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.columns.TableName,
		r.allColumns())
	err := r.db.Exec(ctx, query,
		archive.ID,
		archive.UserID,
		archive.Name,
		archive.Gender,
		archive.Calendar,
		archive.BirthTime,
		archive.LunarDate,
		archive.LeapMonth,
		archive.TimeMode,
		archive.SlotIndex,
		archive.Location,
		archive.FpDate,
		archive.FpSlot,
		archive.CreatedAt,
		archive.UpdatedAt)
	if err != nil {
		r.Log.Error("failed to create archive",
			"error", err,
			"archive_id", archive.ID,
			"user_id", archive.UserID)
		return fmt.Errorf("failed to create archive: %w", err)
	}
	r.Log.Debug("archive created successfully",
		"archive_id", archive.ID,
		"fingerprint", archive.Fingerprint())
	return nil
}

// GetByID получает архив по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Archive, error) {
	var archive domain.Archive
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)
	err := r.db.Get(ctx, &archive, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("archive not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get archive by id",
			"error", err,
			"archive_id", id)
		return nil, fmt.Errorf("failed to get archive by id: %w", err)
	}
	return &archive, nil
}

// ListByUser возвращает архивы пользователя в порядке создания
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Archive, error) {
	var archives []domain.Archive
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.CreatedAt)
	err := r.db.Select(ctx, &archives, query, userID)
	if err != nil {
		r.Log.Error("failed to list archives",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}
	return archives, nil
}

// Delete удаляет архив владельца (проверка владения в запросе)
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		r.columns.TableName,
		r.columns.ID,
		r.columns.UserID)
	rowsAffected, err := r.db.ExecWithResult(ctx, query, id, userID)
	if err != nil {
		r.Log.Error("failed to delete archive",
			"error", err,
			"archive_id", id)
		return fmt.Errorf("failed to delete archive: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("archive not found: %w", domain.ErrNotFound)
	}
	r.Log.Debug("archive deleted", "archive_id", id, "user_id", userID)
	return nil
}

// FindByFingerprint ищет архивы с тем же полом и отпечатком,
// исключая сам архив. Порядок по created_at: первым проверяется
// самый старый кандидат.
func (r *Repository) FindByFingerprint(ctx context.Context, gender domain.Gender, fp domain.Fingerprint, excludeID uuid.UUID) ([]domain.Archive, error) {
	var archives []domain.Archive
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3 AND %s != $4 ORDER BY %s`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.Gender,
		r.columns.FpDate,
		r.columns.FpSlot,
		r.columns.ID,
		r.columns.CreatedAt)
	err := r.db.Select(ctx, &archives, query, gender, fp.Date, fp.Slot, excludeID)
	if err != nil {
		r.Log.Error("failed to find archives by fingerprint",
			"error", err,
			"fingerprint", fp)
		return nil, fmt.Errorf("failed to find archives by fingerprint: %w", err)
	}
	r.Log.Debug("fingerprint lookup finished",
		"fingerprint", fp,
		"candidates", len(archives))
	return archives, nil
}
