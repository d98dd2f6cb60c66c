package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lifecode-app/lifecode-server/internal/domain"
)

// IArchiveRepo репозиторий архивов (записей рождения)
type IArchiveRepo interface {
	Create(ctx context.Context, archive *domain.Archive) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Archive, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Archive, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	// FindByFingerprint ищет архивы других владельцев с тем же полом и
	// отпечатком - кандидаты на переиспользование готового отчёта
	FindByFingerprint(ctx context.Context, gender domain.Gender, fp domain.Fingerprint, excludeID uuid.UUID) ([]domain.Archive, error)
}
