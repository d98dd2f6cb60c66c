package worker

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	llmAdapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/llm"
	"github.com/lifecode-app/lifecode-server/internal/ports/service"
)

const requestTimeout = 30 * time.Second

// claimedJob джоба, выданная сервером, вместе с prompt-парой
type claimedJob struct {
	Job struct {
		ID         uuid.UUID `json:"id"`
		ArchiveID  uuid.UUID `json:"archive_id"`
		ReportType string    `json:"report_type"`
	} `json:"job"`
	SystemPrompt string `json:"system_prompt"`
	UserMessage  string `json:"user_message"`
}

// jobResult терминальный результат, отправляемый PATCH-ем на сервер
type jobResult struct {
	Status    string  `json:"status"`
	RawOutput string  `json:"raw_output,omitempty"`
	Model     string  `json:"model,omitempty"`
	Error     *string `json:"error,omitempty"`
}

// Worker внешний генератор отчётов: опрашивает сервер, выполняет
// completion локально и возвращает сырой текст. Pipeline починки и
// валидации остаётся на сервере.
type Worker struct {
	cfg    *Config
	client *resty.Client
	llm    service.ILLMService
	log    *slog.Logger
}

func New(cfg *Config, log *slog.Logger) *Worker {
	client := resty.New().
		SetBaseURL(cfg.ServerURL).
		SetAuthToken(cfg.Secret).
		SetTimeout(requestTimeout)

	return &Worker{
		cfg:    cfg,
		client: client,
		llm:    llmAdapter.NewClient(cfg.LLM, log),
		log:    log,
	}
}

// Run крутит цикл опроса до отмены контекста. Джобы обрабатываются
// строго по одной: пока генерация не завершена, новая не забирается.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker started",
		"server_url", w.cfg.ServerURL,
		"poll_interval", w.cfg.PollInterval())

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopped")
			return nil
		default:
		}

		job, err := w.claimNext(ctx)
		if err != nil {
			w.log.Error("failed to claim job", "error", err)
			w.sleep(ctx)
			continue
		}
		if job == nil {
			w.sleep(ctx)
			continue
		}

		w.process(ctx, job)
	}
}

// claimNext забирает следующую джобу, nil когда очередь пуста
func (w *Worker) claimNext(ctx context.Context) (*claimedJob, error) {
	var job claimedJob
	resp, err := w.client.R().
		SetContext(ctx).
		SetResult(&job).
		Get("/api/report/next-job")
	if err != nil {
		return nil, fmt.Errorf("failed to poll next job: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
		return &job, nil
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())
	}
}

// process выполняет completion и отправляет результат серверу
func (w *Worker) process(ctx context.Context, job *claimedJob) {
	w.log.Info("processing job",
		"job_id", job.Job.ID,
		"report_type", job.Job.ReportType)

	raw, err := w.llm.Complete(ctx, service.CompletionRequest{
		SystemPrompt: job.SystemPrompt,
		UserMessage:  job.UserMessage,
		Temperature:  0.7,
		JSONMode:     true,
	})

	// сервер записывает в отчёт модель, которой реально генерировали
	result := jobResult{Status: "completed", RawOutput: raw, Model: w.llm.Model()}
	if err != nil {
		w.log.Error("completion failed", "error", err, "job_id", job.Job.ID)
		msg := err.Error()
		result = jobResult{Status: "failed", Error: &msg}
	}

	if err := w.submit(ctx, job.Job.ID, result); err != nil {
		// сервер не принял результат: джоба останется в running и
		// будет закрыта оператором либо повторной доставкой
		w.log.Error("failed to submit job result", "error", err, "job_id", job.Job.ID)
		return
	}

	w.log.Info("job finished", "job_id", job.Job.ID, "status", result.Status)
}

func (w *Worker) submit(ctx context.Context, jobID uuid.UUID, result jobResult) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(result).
		Patch(fmt.Sprintf("/api/report/job/%s", jobID))
	if err != nil {
		return fmt.Errorf("failed to patch job: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.cfg.PollInterval()):
	}
}
