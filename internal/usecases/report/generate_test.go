package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecode-app/lifecode-server/internal/domain"
)

func seedArchive(env *testEnv, userID uuid.UUID) *domain.Archive {
	archive := &domain.Archive{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "тест",
		Gender:    domain.GenderMale,
		Calendar:  domain.CalendarSolar,
		BirthTime: time.Date(1995, 3, 7, 10, 0, 0, 0, time.UTC),
		TimeMode:  domain.TimeModeSlot,
		SlotIndex: 5,
		FpDate:    "1995-3-7",
		FpSlot:    5,
	}
	env.archives.archives[archive.ID] = archive
	return archive
}

func seedUser(env *testEnv, energy int64) uuid.UUID {
	userID := uuid.New()
	env.users.balances[userID] = energy
	return userID
}

func TestGenerateChargesAndCompletes(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)

	job, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeMain, false)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusCompleted, env.jobs.stored(job.ID).Status)
	assert.Equal(t, int64(400), env.users.balances[userID])
	assert.Equal(t, 1, env.llm.calls)

	// строка леджера со ссылкой на архив
	require.Len(t, env.ledger.created, 1)
	assert.Equal(t, int64(-100), env.ledger.created[0].Delta)
	assert.Equal(t, domain.ReasonReportCharge, env.ledger.created[0].Reason)

	saved, err := env.reports.GetByArchiveAndType(context.Background(), archive.ID, domain.ReportTypeMain)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "test-model", saved.Model)
	assert.Nil(t, saved.ReusedFrom)
}

func TestGenerateDeepCostsMore(t *testing.T) {
	env := newTestEnv()
	env.llm.response = `{"topic":"事業運勢","overview":"概述","sections":[` +
		`{"title":"一","content":"內容"},{"title":"二","content":"內容"},{"title":"三","content":"內容"}],` +
		`"rating":4,"advice":"建議"}`
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)

	_, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeCareer, false)
	require.NoError(t, err)

	assert.Equal(t, int64(320), env.users.balances[userID])
}

func TestGenerateInsufficientEnergy(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 50)
	archive := seedArchive(env, userID)

	_, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeMain, false)

	require.Error(t, err)
	assert.Equal(t, "insufficient_energy", domain.BusinessCode(err))
	assert.ErrorIs(t, err, domain.ErrInsufficientEnergy)
	assert.Equal(t, int64(50), env.users.balances[userID])
	assert.Empty(t, env.jobs.jobs, "job must not be created without payment")
}

func TestGenerateForeignArchive(t *testing.T) {
	env := newTestEnv()
	owner := seedUser(env, 500)
	intruder := seedUser(env, 500)
	archive := seedArchive(env, owner)

	_, err := env.svc.Generate(context.Background(), intruder, archive.ID, domain.ReportTypeMain, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateReportAlreadyExists(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)
	env.reports.reports[reportKey(archive.ID, domain.ReportTypeMain)] = &domain.Report{
		ID:        uuid.New(),
		ArchiveID: archive.ID,
	}

	_, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeMain, false)

	require.Error(t, err)
	assert.Equal(t, "report_exists", domain.BusinessCode(err))
	assert.Equal(t, int64(500), env.users.balances[userID], "no charge on rejection")
}

func TestGenerateActiveJobBlocks(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)
	env.jobs.active = &domain.ReportJob{ID: uuid.New(), Status: domain.JobStatusRunning}

	_, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeMain, false)

	require.Error(t, err)
	assert.Equal(t, "job_running", domain.BusinessCode(err))
	assert.Equal(t, int64(500), env.users.balances[userID])
}

func TestGenerateUniqueViolationMapsToJobRunning(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)
	env.jobs.createFn = func(*domain.ReportJob) error {
		return domain.ErrJobAlreadyRunning
	}

	_, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeMain, false)

	require.Error(t, err)
	assert.Equal(t, "job_running", domain.BusinessCode(err))
}

func TestGenerateFreeRetryAfterFailure(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)
	env.jobs.last = &domain.ReportJob{
		ID:         uuid.New(),
		ArchiveID:  archive.ID,
		ReportType: domain.ReportTypeMain,
		Status:     domain.JobStatusFailed,
	}

	job, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeMain, true)
	require.NoError(t, err)

	assert.True(t, job.FreeRetry)
	assert.Equal(t, int64(500), env.users.balances[userID], "retry after failure is free")
	assert.Equal(t, 0, env.users.spendCalls)
}

func TestGenerateRetryFlagWithoutFailureCharges(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)
	// джоб по архиву ещё не было: retry=true не даёт бесплатного прохода

	job, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeMain, true)
	require.NoError(t, err)

	assert.False(t, job.FreeRetry)
	assert.Equal(t, int64(400), env.users.balances[userID])
}

func TestGenerateReusesMatchingFingerprint(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)

	// чужой архив с тем же полом и отпечатком, с готовым отчётом
	source := &domain.Archive{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Gender: domain.GenderMale,
		FpDate: archive.FpDate,
		FpSlot: archive.FpSlot,
	}
	env.archives.candidates = []domain.Archive{*source}
	sourceContent := domain.ReportContent(`{"overview":"готовый отчёт"}`)
	env.reports.reports[reportKey(source.ID, domain.ReportTypeMain)] = &domain.Report{
		ID:         uuid.New(),
		ArchiveID:  source.ID,
		ReportType: domain.ReportTypeMain,
		Content:    sourceContent,
		Model:      "gpt-4o",
	}

	job, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeMain, false)
	require.NoError(t, err)

	assert.Equal(t, 0, env.llm.calls, "reuse must not invoke the LLM")
	assert.Equal(t, domain.JobStatusCompleted, env.jobs.stored(job.ID).Status)

	saved, err := env.reports.GetByArchiveAndType(context.Background(), archive.ID, domain.ReportTypeMain)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, []byte(sourceContent), []byte(saved.Content), "content copied verbatim")
	require.NotNil(t, saved.ReusedFrom)
	assert.Equal(t, source.ID, *saved.ReusedFrom)
	assert.Equal(t, "gpt-4o", saved.Model)

	// переиспользование не освобождает от оплаты
	assert.Equal(t, int64(400), env.users.balances[userID])
}

func TestGenerateLLMFailureMarksJobFailed(t *testing.T) {
	env := newTestEnv()
	env.llm.err = errors.New("rate limited")
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)

	job, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeMain, false)
	require.NoError(t, err, "Generate returns the job; failure is terminal on the job itself")

	stored := env.jobs.stored(job.ID)
	assert.Equal(t, domain.JobStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "rate limited")

	// энергия не возвращается
	assert.Equal(t, int64(400), env.users.balances[userID])
}

func TestGenerateClientDisconnectKeepsJobTerminal(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)

	// клиент обрывает запрос посреди LLM-вызова: контекст запроса
	// отменяется, но оплаченная генерация продолжается и джоба доходит
	// до терминального статуса
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.llm.onComplete = cancel

	job, err := env.svc.Generate(ctx, userID, archive.ID, domain.ReportTypeMain, false)
	require.NoError(t, err)

	stored := env.jobs.stored(job.ID)
	require.NotNil(t, stored)
	assert.True(t, stored.Status.IsTerminal(), "started generation must end completed or failed, got %q", stored.Status)
	assert.Equal(t, domain.JobStatusCompleted, stored.Status)

	saved, err := env.reports.GetByArchiveAndType(context.Background(), archive.ID, domain.ReportTypeMain)
	require.NoError(t, err)
	assert.NotNil(t, saved, "report persists despite the cancelled request context")
	assert.Equal(t, int64(400), env.users.balances[userID])
}

func TestFailJobSurvivesCancelledContext(t *testing.T) {
	env := newTestEnv()
	jobID := uuid.New()
	env.jobs.jobs[jobID] = &domain.ReportJob{ID: jobID, Status: domain.JobStatusRunning}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := domain.ReportJob{ID: jobID, Status: domain.JobStatusRunning}
	env.svc.failJob(ctx, &job, errors.New("llm completion failed"))

	stored := env.jobs.stored(jobID)
	require.NotNil(t, stored)
	assert.Equal(t, domain.JobStatusFailed, stored.Status, "terminal write must not be lost to context cancellation")
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "llm completion failed")
}

func TestGenerateMalformedLLMOutputIsRepaired(t *testing.T) {
	env := newTestEnv()
	// кодовый забор, полноширинная пунктуация и висячая запятая
	env.llm.response = "```json\n{\"overview\"：\"概览\"，\"personality\": \"性格\", " +
		"\"radar\": [80, 70, 60, 75, 65, 85, 72], \"advice\": \"建議\",}\n```"
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)

	job, err := env.svc.Generate(context.Background(), userID, archive.ID, domain.ReportTypeMain, false)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusCompleted, env.jobs.stored(job.ID).Status)
}

func TestCompleteFromWorkerTerminalJobRejected(t *testing.T) {
	env := newTestEnv()
	jobID := uuid.New()
	env.jobs.jobs[jobID] = &domain.ReportJob{
		ID:     jobID,
		Status: domain.JobStatusCompleted,
	}

	_, err := env.svc.CompleteFromWorker(context.Background(), jobID, domain.JobStatusFailed, "", "", nil)

	require.Error(t, err)
	assert.Equal(t, "job_terminal", domain.BusinessCode(err))
}

func TestCompleteFromWorkerFailure(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)
	jobID := uuid.New()
	env.jobs.jobs[jobID] = &domain.ReportJob{
		ID:         jobID,
		ArchiveID:  archive.ID,
		UserID:     userID,
		ReportType: domain.ReportTypeMain,
		Status:     domain.JobStatusProcessing,
	}

	msg := "model overloaded"
	job, err := env.svc.CompleteFromWorker(context.Background(), jobID, domain.JobStatusFailed, "", "", &msg)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusFailed, job.Status)
	stored := env.jobs.stored(jobID)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "model overloaded")
}

func TestCompleteFromWorkerRunsRepairPipeline(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)
	jobID := uuid.New()
	env.jobs.jobs[jobID] = &domain.ReportJob{
		ID:         jobID,
		ArchiveID:  archive.ID,
		UserID:     userID,
		ReportType: domain.ReportTypeMain,
		Status:     domain.JobStatusProcessing,
	}

	job, err := env.svc.CompleteFromWorker(context.Background(), jobID, domain.JobStatusCompleted, validMainReportJSON, "", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	saved, err := env.reports.GetByArchiveAndType(context.Background(), archive.ID, domain.ReportTypeMain)
	require.NoError(t, err)
	require.NotNil(t, saved)
	// воркер не прислал модель: фоллбэк на серверную конфигурацию
	assert.Equal(t, "test-model", saved.Model)
}

func TestCompleteFromWorkerRecordsWorkerModel(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)
	jobID := uuid.New()
	env.jobs.jobs[jobID] = &domain.ReportJob{
		ID:         jobID,
		ArchiveID:  archive.ID,
		UserID:     userID,
		ReportType: domain.ReportTypeMain,
		Status:     domain.JobStatusProcessing,
	}

	_, err := env.svc.CompleteFromWorker(context.Background(), jobID, domain.JobStatusCompleted, validMainReportJSON, "worker-model", nil)
	require.NoError(t, err)

	saved, err := env.reports.GetByArchiveAndType(context.Background(), archive.ID, domain.ReportTypeMain)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "worker-model", saved.Model, "report records the model the worker generated with")
}

func TestClaimNextEmptyQueue(t *testing.T) {
	env := newTestEnv()

	claimed, err := env.svc.ClaimNext(context.Background())
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestClaimNextReturnsPrompts(t *testing.T) {
	env := newTestEnv()
	userID := seedUser(env, 500)
	archive := seedArchive(env, userID)
	job := &domain.ReportJob{
		ID:         uuid.New(),
		ArchiveID:  archive.ID,
		UserID:     userID,
		ReportType: domain.ReportTypeCareer,
		Status:     domain.JobStatusRunning,
	}
	env.jobs.queue = append(env.jobs.queue, job)

	claimed, err := env.svc.ClaimNext(context.Background())
	require.NoError(t, err)
	require.NotNil(t, claimed)

	assert.Equal(t, job.ID, claimed.Job.ID)
	assert.NotEmpty(t, claimed.SystemPrompt)
	assert.Contains(t, claimed.UserMessage, archive.FpDate)
}
