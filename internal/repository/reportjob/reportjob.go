package reportJobRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
	ports "github.com/lifecode-app/lifecode-server/internal/ports/repository"
)

const pgUniqueViolation = "23505"

type jobColumns struct {
	TableName    string
	ID           string
	ArchiveID    string
	UserID       string
	ReportType   string
	Status       string
	FreeRetry    string
	ErrorMessage string
	CreatedAt    string
	StartedAt    string
	FinishedAt   string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns jobColumns
}

// New создаёт репозиторий джоб генерации отчётов
func New(db persistence.Persistence, log *slog.Logger) ports.IReportJobRepo {
	cols := jobColumns{
		TableName:    "report_jobs",
		ID:           "id",
		ArchiveID:    "archive_id",
		UserID:       "user_id",
		ReportType:   "report_type",
		Status:       "status",
		FreeRetry:    "free_retry",
		ErrorMessage: "error_message",
		CreatedAt:    "created_at",
		StartedAt:    "started_at",
		FinishedAt:   "finished_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

// allColumns возвращает строку со всеми колонками (10 колонок)
func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.ArchiveID,
		r.columns.UserID,
		r.columns.ReportType,
		r.columns.Status,
		r.columns.FreeRetry,
		r.columns.ErrorMessage,
		r.columns.CreatedAt,
		r.columns.StartedAt,
		r.columns.FinishedAt)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Create вставляет джобу. Частичный уникальный индекс по активным
// статусам гарантирует одну активную джобу на (архив, тип).
func (r *Repository) Create(ctx context.Context, job *domain.ReportJob) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.columns.TableName,
		r.allColumns())
	err := r.db.Exec(ctx, query,
		job.ID,
		job.ArchiveID,
		job.UserID,
		job.ReportType,
		job.Status,
		job.FreeRetry,
		job.ErrorMessage,
		job.CreatedAt,
		job.StartedAt,
		job.FinishedAt)
	if err != nil {
		if isUniqueViolation(err) {
			r.Log.Debug("active job already exists",
				"archive_id", job.ArchiveID,
				"report_type", job.ReportType)
			return domain.ErrJobAlreadyRunning
		}
		r.Log.Error("failed to create report job",
			"error", err,
			"job_id", job.ID,
			"archive_id", job.ArchiveID)
		return fmt.Errorf("failed to create report job: %w", err)
	}
	r.Log.Debug("report job created",
		"job_id", job.ID,
		"archive_id", job.ArchiveID,
		"report_type", job.ReportType)
	return nil
}

// GetByID получает джобу по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReportJob, error) {
	var job domain.ReportJob
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)
	err := r.db.Get(ctx, &job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report job not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get report job",
			"error", err,
			"job_id", id)
		return nil, fmt.Errorf("failed to get report job: %w", err)
	}
	return &job, nil
}

// ClaimNext атомарно забирает старейшую running-джобу: подзапрос с
// FOR UPDATE SKIP LOCKED отдаёт строку ровно одному воркеру, UPDATE
// переводит её в processing. Возвращает (nil, nil), если джоб нет.
func (r *Repository) ClaimNext(ctx context.Context) (*domain.ReportJob, error) {
	var job domain.ReportJob
	query := fmt.Sprintf(`UPDATE %s SET %s = $1
		WHERE %s = (
			SELECT %s FROM %s
			WHERE %s = $2
			ORDER BY %s
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.ID,
		r.columns.ID,
		r.columns.TableName,
		r.columns.Status,
		r.columns.CreatedAt,
		r.allColumns())
	err := r.db.Get(ctx, &job, query, domain.JobStatusProcessing, domain.JobStatusRunning)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.Log.Error("failed to claim next job", "error", err)
		return nil, fmt.Errorf("failed to claim next job: %w", err)
	}
	r.Log.Debug("job claimed",
		"job_id", job.ID,
		"report_type", job.ReportType)
	return &job, nil
}

// MarkRunning переводит pending-джобу в running
func (r *Repository) MarkRunning(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2 WHERE %s = $3 AND %s = $4`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.StartedAt,
		r.columns.ID,
		r.columns.Status)
	rowsAffected, err := r.db.ExecWithResult(ctx, query,
		domain.JobStatusRunning, time.Now(), id, domain.JobStatusPending)
	if err != nil {
		r.Log.Error("failed to mark job running",
			"error", err,
			"job_id", id)
		return fmt.Errorf("failed to mark job running: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("job is not pending: %w", domain.ErrNotFound)
	}
	return nil
}

// Finish записывает терминальный статус. Условие по нетерминальным
// статусам делает терминальные джобы иммутабельными.
func (r *Repository) Finish(ctx context.Context, id uuid.UUID, status domain.JobStatus, errorMessage *string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, %s = $2, %s = $3
		WHERE %s = $4 AND %s IN ($5, $6, $7)`,
		r.columns.TableName,
		r.columns.Status,
		r.columns.ErrorMessage,
		r.columns.FinishedAt,
		r.columns.ID,
		r.columns.Status)
	rowsAffected, err := r.db.ExecWithResult(ctx, query,
		status, errorMessage, time.Now(), id,
		domain.JobStatusPending, domain.JobStatusRunning, domain.JobStatusProcessing)
	if err != nil {
		r.Log.Error("failed to finish job",
			"error", err,
			"job_id", id,
			"status", status)
		return fmt.Errorf("failed to finish job: %w", err)
	}
	if rowsAffected == 0 {
		// либо джобы нет, либо она уже в терминальном статусе
		var current domain.JobStatus
		checkQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
			r.columns.Status,
			r.columns.TableName,
			r.columns.ID)
		if checkErr := r.db.Get(ctx, &current, checkQuery, id); checkErr != nil {
			if errors.Is(checkErr, sql.ErrNoRows) {
				return fmt.Errorf("report job not found: %w", domain.ErrNotFound)
			}
			return fmt.Errorf("failed to check job status: %w", checkErr)
		}
		r.Log.Warn("attempt to overwrite terminal job status",
			"job_id", id,
			"current", current,
			"requested", status)
		return domain.ErrJobTerminal
	}
	r.Log.Debug("job finished", "job_id", id, "status", status)
	return nil
}

// GetActive возвращает нетерминальную джобу по архиву и типу
func (r *Repository) GetActive(ctx context.Context, archiveID uuid.UUID, reportType domain.ReportType) (*domain.ReportJob, error) {
	var job domain.ReportJob
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE %s = $1 AND %s = $2 AND %s IN ($3, $4, $5)
		ORDER BY %s DESC LIMIT 1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ArchiveID,
		r.columns.ReportType,
		r.columns.Status,
		r.columns.CreatedAt)
	err := r.db.Get(ctx, &job, query, archiveID, reportType,
		domain.JobStatusPending, domain.JobStatusRunning, domain.JobStatusProcessing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.Log.Error("failed to get active job",
			"error", err,
			"archive_id", archiveID)
		return nil, fmt.Errorf("failed to get active job: %w", err)
	}
	return &job, nil
}

// GetLast возвращает последнюю джобу по архиву и типу
func (r *Repository) GetLast(ctx context.Context, archiveID uuid.UUID, reportType domain.ReportType) (*domain.ReportJob, error) {
	var job domain.ReportJob
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE %s = $1 AND %s = $2
		ORDER BY %s DESC LIMIT 1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ArchiveID,
		r.columns.ReportType,
		r.columns.CreatedAt)
	err := r.db.Get(ctx, &job, query, archiveID, reportType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.Log.Error("failed to get last job",
			"error", err,
			"archive_id", archiveID)
		return nil, fmt.Errorf("failed to get last job: %w", err)
	}
	return &job, nil
}
