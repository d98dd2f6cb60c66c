package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/domain"
)

// JobStatus возвращает джобу и, для завершённой, сохранённый отчёт
func (s *Service) JobStatus(ctx context.Context, userID uuid.UUID, jobID uuid.UUID) (*domain.ReportJob, *domain.Report, error) {
	job, err := s.JobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job.UserID != userID {
		return nil, nil, fmt.Errorf("job belongs to another user: %w", domain.ErrNotFound)
	}

	if job.Status != domain.JobStatusCompleted {
		return job, nil, nil
	}

	rep, err := s.ReportRepo.GetByArchiveAndType(ctx, job.ArchiveID, job.ReportType)
	if err != nil {
		return nil, nil, err
	}
	return job, rep, nil
}

// GetReport возвращает сохранённый отчёт архива
func (s *Service) GetReport(ctx context.Context, userID uuid.UUID, archiveID uuid.UUID, reportType domain.ReportType) (*domain.Report, error) {
	archive, err := s.ArchiveRepo.GetByID(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if archive.UserID != userID {
		return nil, fmt.Errorf("archive belongs to another user: %w", domain.ErrNotFound)
	}

	rep, err := s.ReportRepo.GetByArchiveAndType(ctx, archiveID, reportType)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, fmt.Errorf("report not found: %w", domain.ErrNotFound)
	}
	return rep, nil
}

// ListReports возвращает все отчёты архива владельца
func (s *Service) ListReports(ctx context.Context, userID uuid.UUID, archiveID uuid.UUID) ([]domain.Report, error) {
	archive, err := s.ArchiveRepo.GetByID(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if archive.UserID != userID {
		return nil, fmt.Errorf("archive belongs to another user: %w", domain.ErrNotFound)
	}
	return s.ReportRepo.ListByArchive(ctx, archiveID)
}
