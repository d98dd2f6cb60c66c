package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/ports/repository"
)

// Fingerprinter вычисляет канонический отпечаток записи рождения
type Fingerprinter interface {
	Normalize(ctx context.Context, rec domain.BirthRecord) domain.Fingerprint
}

// Service CRUD архивов. Отпечаток считается при создании и хранится
// в строке архива для последующего поиска дубликатов.
type Service struct {
	ArchiveRepo repository.IArchiveRepo
	Normalizer  Fingerprinter
	Log         *slog.Logger
}

// New создаёт сервис архивов
func New(archiveRepo repository.IArchiveRepo, normalizer Fingerprinter, log *slog.Logger) *Service {
	return &Service{
		ArchiveRepo: archiveRepo,
		Normalizer:  normalizer,
		Log:         log,
	}
}

// CreateInput данные нового архива
type CreateInput struct {
	Name   string
	Record domain.BirthRecord
}

// Create валидирует запись рождения, считает отпечаток и сохраняет архив
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*domain.Archive, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("archive name is required")
	}
	if err := input.Record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid birth record: %w", err)
	}

	fp := s.Normalizer.Normalize(ctx, input.Record)

	now := time.Now()
	archive := &domain.Archive{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      input.Name,
		Gender:    input.Record.Gender,
		Calendar:  input.Record.Calendar,
		BirthTime: input.Record.BirthTime,
		LeapMonth: input.Record.LeapMonth,
		TimeMode:  input.Record.TimeMode,
		SlotIndex: input.Record.SlotIndex,
		FpDate:    fp.Date,
		FpSlot:    fp.Slot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Record.LunarDate != "" {
		archive.LunarDate = &input.Record.LunarDate
	}
	if input.Record.Location != "" {
		archive.Location = &input.Record.Location
	}

	if err := s.ArchiveRepo.Create(ctx, archive); err != nil {
		return nil, err
	}

	s.Log.Info("archive created",
		"archive_id", archive.ID,
		"user_id", userID,
		"fingerprint", fp,
	)
	return archive, nil
}

// Get возвращает архив владельца
func (s *Service) Get(ctx context.Context, userID uuid.UUID, archiveID uuid.UUID) (*domain.Archive, error) {
	archive, err := s.ArchiveRepo.GetByID(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if archive.UserID != userID {
		return nil, fmt.Errorf("archive belongs to another user: %w", domain.ErrNotFound)
	}
	return archive, nil
}

// List возвращает архивы пользователя
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Archive, error) {
	return s.ArchiveRepo.ListByUser(ctx, userID)
}

// Delete удаляет архив владельца
func (s *Service) Delete(ctx context.Context, userID uuid.UUID, archiveID uuid.UUID) error {
	return s.ArchiveRepo.Delete(ctx, archiveID, userID)
}
