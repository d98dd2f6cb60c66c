package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/pkg/llmjson"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
	"github.com/lifecode-app/lifecode-server/internal/ports/service"
)

const chartCacheTTL = 24 * time.Hour

// Generate создаёт джобу генерации отчёта. Платная генерация списывает
// энергию до старта; бесплатный ретрай доступен после failed-джобы или
// completed-джобы без сохранённого отчёта. Возврата при сбое нет.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, archiveID uuid.UUID, reportType domain.ReportType, retry bool) (*domain.ReportJob, error) {
	archive, err := s.ArchiveRepo.GetByID(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if archive.UserID != userID {
		return nil, fmt.Errorf("archive belongs to another user: %w", domain.ErrNotFound)
	}

	existing, err := s.ReportRepo.GetByArchiveAndType(ctx, archiveID, reportType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.WrapBusinessError(domain.ErrReportExists, "report_exists")
	}

	// best-effort проверка до списания; жёсткая гарантия - частичный
	// уникальный индекс при вставке джобы
	active, err := s.JobRepo.GetActive(ctx, archiveID, reportType)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, domain.WrapBusinessError(domain.ErrJobAlreadyRunning, "job_running")
	}

	freeRetry, err := s.isFreeRetry(ctx, archiveID, reportType, retry)
	if err != nil {
		return nil, err
	}

	if !freeRetry {
		if err := s.chargeForGeneration(ctx, userID, archiveID, reportType); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	job := &domain.ReportJob{
		ID:         uuid.New(),
		ArchiveID:  archiveID,
		UserID:     userID,
		ReportType: reportType,
		Status:     domain.JobStatusPending,
		FreeRetry:  freeRetry,
		CreatedAt:  now,
	}

	if err := s.JobRepo.Create(ctx, job); err != nil {
		if errors.Is(err, domain.ErrJobAlreadyRunning) {
			return nil, domain.WrapBusinessError(err, "job_running")
		}
		return nil, err
	}

	// джоба создана и энергия списана: обрыв клиентского запроса не
	// должен оставить её без терминального статуса
	jobCtx := context.WithoutCancel(ctx)

	if err := s.JobRepo.MarkRunning(jobCtx, job.ID); err != nil {
		s.failJob(jobCtx, job, fmt.Errorf("failed to mark job running: %w", err))
		return nil, err
	}
	job.Status = domain.JobStatusRunning
	s.emitEvent(jobCtx, job, domain.JobStatusRunning)

	s.Log.Info("report job created",
		"job_id", job.ID,
		"archive_id", archiveID,
		"report_type", reportType,
		"free_retry", freeRetry,
		"inline", s.Cfg.Inline,
	)

	if s.Cfg.Inline {
		execCtx, cancel := context.WithTimeout(jobCtx, s.Cfg.GenerationTimeout())
		s.ExecuteJob(execCtx, job, archive)
		cancel()
	}

	return job, nil
}

// isFreeRetry право на ретрай без списания: последняя джоба failed,
// либо completed, чей отчёт не сохранился (рассинхрон). Вызывается
// только после проверки, что отчёта по (archive, type) нет.
func (s *Service) isFreeRetry(ctx context.Context, archiveID uuid.UUID, reportType domain.ReportType, retry bool) (bool, error) {
	if !retry {
		return false, nil
	}
	last, err := s.JobRepo.GetLast(ctx, archiveID, reportType)
	if err != nil {
		return false, err
	}
	if last == nil {
		return false, nil
	}
	return last.Status == domain.JobStatusFailed || last.Status == domain.JobStatusCompleted, nil
}

// chargeForGeneration списывает стоимость и пишет строку леджера в
// одной транзакции БД
func (s *Service) chargeForGeneration(ctx context.Context, userID uuid.UUID, archiveID uuid.UUID, reportType domain.ReportType) error {
	cost := s.Cost(string(reportType))
	if cost <= 0 {
		return nil
	}

	err := s.UserRepo.WithTransaction(ctx, func(txCtx context.Context, tx persistence.Transaction) error {
		if err := s.UserRepo.SpendEnergyTx(txCtx, tx, userID, cost); err != nil {
			return err
		}
		refID := archiveID
		return s.TxRepo.CreateTx(txCtx, tx, &domain.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			Delta:       -cost,
			Reason:      domain.ReasonReportCharge,
			Description: fmt.Sprintf("%s report generation", reportType),
			ReferenceID: &refID,
			CreatedAt:   time.Now(),
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientEnergy) {
			return domain.WrapBusinessError(err, "insufficient_energy")
		}
		return err
	}
	return nil
}

// ExecuteJob выполняет генерацию и записывает терминальный статус.
// Ошибок не возвращает: любой сбой завершает джобу в failed.
func (s *Service) ExecuteJob(ctx context.Context, job *domain.ReportJob, archive *domain.Archive) {
	content, reusedFrom, model, err := s.produceContent(ctx, job, archive)
	if err != nil {
		s.failJob(ctx, job, err)
		return
	}

	// контент получен: сохранение и терминальный статус не зависят от
	// отмены или дедлайна контекста генерации
	saveCtx := context.WithoutCancel(ctx)

	report := &domain.Report{
		ID:         uuid.New(),
		ArchiveID:  archive.ID,
		ReportType: job.ReportType,
		Content:    content,
		Model:      model,
		ReusedFrom: reusedFrom,
		CreatedAt:  time.Now(),
	}
	if err := s.ReportRepo.Create(saveCtx, report); err != nil {
		s.failJob(saveCtx, job, err)
		return
	}

	if err := s.JobRepo.Finish(saveCtx, job.ID, domain.JobStatusCompleted, nil); err != nil {
		s.Log.Error("failed to mark job completed",
			"error", err,
			"job_id", job.ID)
		return
	}
	job.Status = domain.JobStatusCompleted
	s.emitEvent(saveCtx, job, domain.JobStatusCompleted)

	s.Log.Info("report generation completed",
		"job_id", job.ID,
		"archive_id", archive.ID,
		"report_type", job.ReportType,
		"reused", reusedFrom != nil,
	)
}

// produceContent содержимое отчёта: сначала попытка переиспользовать
// отчёт чужого архива с тем же полом и отпечатком (без вызова LLM),
// иначе полная генерация
func (s *Service) produceContent(ctx context.Context, job *domain.ReportJob, archive *domain.Archive) (domain.ReportContent, *uuid.UUID, string, error) {
	if source := s.findReusable(ctx, archive, job.ReportType); source != nil {
		sourceID := source.ArchiveID
		return source.Content, &sourceID, source.Model, nil
	}

	content, err := s.generateContent(ctx, job, archive)
	if err != nil {
		return nil, nil, "", err
	}
	return content, nil, s.LLMService.Model(), nil
}

// findReusable ищет готовый отчёт среди архивов с тем же полом и
// отпечатком. Содержимое копируется дословно. Сбой поиска не блокирует
// генерацию.
func (s *Service) findReusable(ctx context.Context, archive *domain.Archive, reportType domain.ReportType) *domain.Report {
	candidates, err := s.ArchiveRepo.FindByFingerprint(ctx, archive.Gender, archive.Fingerprint(), archive.ID)
	if err != nil {
		s.Log.Warn("fingerprint lookup failed, generating from scratch",
			"error", err,
			"archive_id", archive.ID)
		return nil
	}

	for _, candidate := range candidates {
		report, err := s.ReportRepo.GetByArchiveAndType(ctx, candidate.ID, reportType)
		if err != nil || report == nil {
			continue
		}
		s.Log.Info("reusing report from matching archive",
			"archive_id", archive.ID,
			"source_archive_id", candidate.ID,
			"report_type", reportType,
			"fingerprint", archive.Fingerprint(),
		)
		return report
	}
	return nil
}

// generateContent полный путь: карта -> LLM -> pipeline починки ->
// коэрции -> схема -> s2t конвертация
func (s *Service) generateContent(ctx context.Context, job *domain.ReportJob, archive *domain.Archive) (domain.ReportContent, error) {
	chart, err := s.chartFor(ctx, archive)
	if err != nil {
		return nil, fmt.Errorf("chart calculation failed: %w", err)
	}

	rawText, err := s.LLMService.Complete(ctx, service.CompletionRequest{
		SystemPrompt: systemPrompt(job.ReportType),
		UserMessage:  buildUserMessage(archive, chart),
		Temperature:  0.7,
		JSONMode:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("llm completion failed: %w", err)
	}

	s.archiveRawResponse(ctx, job.ID, rawText)

	return s.contentFromRaw(job.ReportType, rawText)
}

// contentFromRaw общий хвост pipeline: извлечение JSON, коэрции,
// валидация схемы, s2t конвертация
func (s *Service) contentFromRaw(reportType domain.ReportType, rawText string) (domain.ReportContent, error) {
	rawObj, err := llmjson.ExtractObject(rawText)
	if err != nil {
		return nil, fmt.Errorf("llm output extraction failed: %w", err)
	}

	var validated interface{}
	if reportType == domain.ReportTypeMain {
		validated, err = s.NormalizeMainReport(rawObj, time.Now().Year())
	} else {
		validated, err = s.NormalizeDeepReport(rawObj, reportType)
	}
	if err != nil {
		return nil, err
	}

	return s.toTraditional(validated)
}

// toTraditional сериализует документ и прогоняет все строковые листья
// через s2t конвертер. Конвертация никогда не валит операцию.
func (s *Service) toTraditional(doc interface{}) (domain.ReportContent, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report document: %w", err)
	}

	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report document: %w", err)
	}

	converted, err := json.Marshal(s.Converter.ConvertDocument(tree))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal converted document: %w", err)
	}
	return domain.ReportContent(converted), nil
}

// chartFor рассчитывает карту с кэшированием по полу и отпечатку
func (s *Service) chartFor(ctx context.Context, archive *domain.Archive) (domain.Chart, error) {
	cacheKey := fmt.Sprintf("chart:%s:%s", archive.Gender, archive.Fingerprint())

	if s.Cache != nil {
		if cached, err := s.Cache.Get(ctx, cacheKey); err == nil && cached != "" {
			s.Log.Debug("chart cache hit", "key", cacheKey)
			return domain.Chart(cached), nil
		}
	}

	chart, err := s.ChartService.CalculateChart(ctx, archive.BirthRecord())
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, cacheKey, string(chart), chartCacheTTL); err != nil {
			s.Log.Warn("failed to cache chart", "error", err, "key", cacheKey)
		}
	}
	return chart, nil
}

// failJob терминальный failed с текстом ошибки и алертом. Запись
// статуса обязана пережить отмену контекста, из которого пришёл сбой.
func (s *Service) failJob(ctx context.Context, job *domain.ReportJob, cause error) {
	ctx = context.WithoutCancel(ctx)
	msg := cause.Error()
	if err := s.JobRepo.Finish(ctx, job.ID, domain.JobStatusFailed, &msg); err != nil {
		s.Log.Error("failed to mark job failed",
			"error", err,
			"job_id", job.ID,
			"cause", cause)
		return
	}
	job.Status = domain.JobStatusFailed
	job.ErrorMessage = &msg
	s.emitEvent(ctx, job, domain.JobStatusFailed)

	s.Log.Error("report generation failed",
		"job_id", job.ID,
		"archive_id", job.ArchiveID,
		"report_type", job.ReportType,
		"error", cause,
	)

	if s.Alerter != nil {
		alertMsg := fmt.Sprintf("report generation failed: job=%s type=%s error=%v",
			job.ID, job.ReportType, cause)
		if err := s.Alerter.SendAlert(ctx, alertMsg); err != nil {
			s.Log.Warn("failed to send alert", "error", err)
		}
	}
}

// archiveRawResponse складывает сырой ответ LLM в объектное хранилище
// до pipeline починки; сбой не влияет на генерацию
func (s *Service) archiveRawResponse(ctx context.Context, jobID uuid.UUID, rawText string) {
	if s.ObjectStore == nil {
		return
	}
	if err := s.ObjectStore.PutRawResponse(ctx, jobID, []byte(rawText)); err != nil {
		s.Log.Warn("failed to archive raw llm response",
			"error", err,
			"job_id", jobID)
	}
}

// emitEvent публикует событие жизненного цикла, producer опционален
func (s *Service) emitEvent(ctx context.Context, job *domain.ReportJob, status domain.JobStatus) {
	if s.Events == nil {
		return
	}
	if err := s.Events.SendJobEvent(ctx, job.ID, job.ArchiveID, job.ReportType, status); err != nil {
		s.Log.Warn("failed to emit job event",
			"error", err,
			"job_id", job.ID,
			"status", status)
	}
}
