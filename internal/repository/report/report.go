package reportRepo

import (
	"context"
	"database/sql"
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

type reportColumns struct {
	TableName  string
	ID         string
	ArchiveID  string
	ReportType string
	Content    string
	Model      string
	ReusedFrom string
	CreatedAt  string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns reportColumns
}

// New создаёт репозиторий отчётов
func New(db persistence.Persistence, log *slog.Logger) ports.IReportRepo {
	cols := reportColumns{
		TableName:  "reports",
		ID:         "id",
		ArchiveID:  "archive_id",
		ReportType: "report_type",
		Content:    "content",
		Model:      "model",
		ReusedFrom: "reused_from",
		CreatedAt:  "created_at",
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
		r.columns.ArchiveID,
		r.columns.ReportType,
		r.columns.Content,
		r.columns.Model,
		r.columns.ReusedFrom,
		r.columns.CreatedAt)
}

// Create сохраняет отчёт. Уникальный индекс (archive_id, report_type)
// не даёт записать второй отчёт той же пары.
func (r *Repository) Create(ctx context.Context, report *domain.Report) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.columns.TableName,
		r.allColumns())
	err := r.db.Exec(ctx, query,
		report.ID,
		report.ArchiveID,
		report.ReportType,
		report.Content,
		report.Model,
		report.ReusedFrom,
		report.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrReportExists
		}
		r.Log.Error("failed to create report",
			"error", err,
			"report_id", report.ID,
			"archive_id", report.ArchiveID)
		return fmt.Errorf("failed to create report: %w", err)
	}
	r.Log.Debug("report created",
		"report_id", report.ID,
		"archive_id", report.ArchiveID,
		"report_type", report.ReportType,
		"size", len(report.Content))
	return nil
}

// GetByArchiveAndType получает отчёт по архиву и типу
func (r *Repository) GetByArchiveAndType(ctx context.Context, archiveID uuid.UUID, reportType domain.ReportType) (*domain.Report, error) {
	var report domain.Report
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ArchiveID,
		r.columns.ReportType)
	err := r.db.Get(ctx, &report, query, archiveID, reportType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.Log.Error("failed to get report",
			"error", err,
			"archive_id", archiveID,
			"report_type", reportType)
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// ListByArchive возвращает все отчёты архива
func (r *Repository) ListByArchive(ctx context.Context, archiveID uuid.UUID) ([]domain.Report, error) {
	var reports []domain.Report
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ArchiveID,
		r.columns.CreatedAt)
	err := r.db.Select(ctx, &reports, query, archiveID)
	if err != nil {
		r.Log.Error("failed to list reports",
			"error", err,
			"archive_id", archiveID)
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}
