package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lifecode-app/lifecode-server/internal/domain"
)

// IReportJobRepo репозиторий джоб генерации отчётов
type IReportJobRepo interface {
	// Create вставляет новую джобу. Частичный уникальный индекс по
	// (archive_id, report_type) для нетерминальных статусов гарантирует
	// не более одной активной джобы; нарушение мапится в
	// domain.ErrJobAlreadyRunning.
	Create(ctx context.Context, job *domain.ReportJob) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReportJob, error)

	// ClaimNext атомарно переводит старейшую running-джобу в processing
	// и возвращает её (FOR UPDATE SKIP LOCKED: джоба достаётся ровно
	// одному воркеру). Возвращает (nil, nil), если джоб нет.
	ClaimNext(ctx context.Context) (*domain.ReportJob, error)

	// MarkRunning переводит pending-джобу в running
	MarkRunning(ctx context.Context, id uuid.UUID) error

	// Finish записывает терминальный статус. Терминальные статусы
	// иммутабельны: попытка перезаписи возвращает domain.ErrJobTerminal.
	Finish(ctx context.Context, id uuid.UUID, status domain.JobStatus, errorMessage *string) error

	// GetActive возвращает нетерминальную джобу по архиву и типу, если есть
	GetActive(ctx context.Context, archiveID uuid.UUID, reportType domain.ReportType) (*domain.ReportJob, error)

	// GetLast возвращает последнюю по времени создания джобу по архиву
	// и типу (проверка права на бесплатный ретрай)
	GetLast(ctx context.Context, archiveID uuid.UUID, reportType domain.ReportType) (*domain.ReportJob, error)
}

// IReportRepo репозиторий сгенерированных отчётов
type IReportRepo interface {
	Create(ctx context.Context, report *domain.Report) error
	GetByArchiveAndType(ctx context.Context, archiveID uuid.UUID, reportType domain.ReportType) (*domain.Report, error)
	ListByArchive(ctx context.Context, archiveID uuid.UUID) ([]domain.Report, error)
}
