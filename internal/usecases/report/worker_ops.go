package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/domain"
)

// ClaimedJob джоба, выданная внешнему воркеру, вместе со всем, что
// нужно для локальной генерации: prompt-парой для LLM
type ClaimedJob struct {
	Job          *domain.ReportJob `json:"job"`
	SystemPrompt string            `json:"system_prompt"`
	UserMessage  string            `json:"user_message"`
}

// ClaimNext атомарно выдаёт старейшую running-джобу воркеру вместе с
// готовыми prompt'ами. Возвращает (nil, nil), если работы нет.
func (s *Service) ClaimNext(ctx context.Context) (*ClaimedJob, error) {
	job, err := s.JobRepo.ClaimNext(ctx)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	archive, err := s.ArchiveRepo.GetByID(ctx, job.ArchiveID)
	if err != nil {
		// без архива генерировать нечего, джоба завершается сразу
		s.failJob(ctx, job, fmt.Errorf("archive lookup failed: %w", err))
		return nil, nil
	}

	chart, err := s.chartFor(ctx, archive)
	if err != nil {
		s.failJob(ctx, job, fmt.Errorf("chart calculation failed: %w", err))
		return nil, nil
	}

	s.emitEvent(ctx, job, domain.JobStatusProcessing)

	return &ClaimedJob{
		Job:          job,
		SystemPrompt: systemPrompt(job.ReportType),
		UserMessage:  buildUserMessage(archive, chart),
	}, nil
}

// CompleteFromWorker принимает терминальный отчёт воркера. Для
// completed воркер присылает сырой текст completion и имя модели,
// которой генерировал: pipeline починки, коэрции, схема и s2t
// выполняются на сервере, чтобы жить в одном месте.
func (s *Service) CompleteFromWorker(ctx context.Context, jobID uuid.UUID, status domain.JobStatus, rawOutput string, model string, errorMessage *string) (*domain.ReportJob, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("status %q is not terminal", status)
	}

	job, err := s.JobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, domain.WrapBusinessError(domain.ErrJobTerminal, "job_terminal")
	}

	if status == domain.JobStatusFailed {
		msg := "worker reported failure"
		if errorMessage != nil && *errorMessage != "" {
			msg = *errorMessage
		}
		s.failJob(ctx, job, fmt.Errorf("%s", msg))
		return job, nil
	}

	archive, err := s.ArchiveRepo.GetByID(ctx, job.ArchiveID)
	if err != nil {
		s.failJob(ctx, job, fmt.Errorf("archive lookup failed: %w", err))
		return job, nil
	}

	s.completeFromRaw(ctx, job, archive, rawOutput, model)
	return job, nil
}

// completeFromRaw прогоняет сырой вывод воркера через общий pipeline
// и сохраняет отчёт
func (s *Service) completeFromRaw(ctx context.Context, job *domain.ReportJob, archive *domain.Archive, rawOutput string, model string) {
	// результат воркера уже получен; обрыв PATCH-запроса не должен
	// оставить джобу без терминального статуса
	ctx = context.WithoutCancel(ctx)

	s.archiveRawResponse(ctx, job.ID, rawOutput)

	content, err := s.contentFromRaw(job.ReportType, rawOutput)
	if err != nil {
		s.failJob(ctx, job, err)
		return
	}

	if model == "" {
		model = s.LLMService.Model()
	}
	report := &domain.Report{
		ID:         uuid.New(),
		ArchiveID:  archive.ID,
		ReportType: job.ReportType,
		Content:    content,
		Model:      model,
		CreatedAt:  time.Now(),
	}
	if err := s.ReportRepo.Create(ctx, report); err != nil {
		s.failJob(ctx, job, err)
		return
	}

	if err := s.JobRepo.Finish(ctx, job.ID, domain.JobStatusCompleted, nil); err != nil {
		s.Log.Error("failed to mark worker job completed",
			"error", err,
			"job_id", job.ID)
		return
	}
	job.Status = domain.JobStatusCompleted
	s.emitEvent(ctx, job, domain.JobStatusCompleted)

	s.Log.Info("worker report completed",
		"job_id", job.ID,
		"archive_id", archive.ID,
		"report_type", job.ReportType,
	)
}
