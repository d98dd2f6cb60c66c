package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lifecode-app/lifecode-server/internal/domain"
)

// IEventProducer публикация событий жизненного цикла отчётов
// (аналитика, downstream-потребители). Опционален: при nil
// use case просто не публикует.
type IEventProducer interface {
	SendJobEvent(ctx context.Context, jobID uuid.UUID, archiveID uuid.UUID, reportType domain.ReportType, status domain.JobStatus) error
	Close() error
}
