package report

import (
	"context"
	"io"
	"sync"

	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lifecode-app/lifecode-server/internal/domain"
	"github.com/lifecode-app/lifecode-server/internal/ports/persistence"
	"github.com/lifecode-app/lifecode-server/internal/ports/service"
)

type fakeArchiveRepo struct {
	archives   map[uuid.UUID]*domain.Archive
	candidates []domain.Archive // ответ FindByFingerprint
}

func newFakeArchiveRepo() *fakeArchiveRepo {
	return &fakeArchiveRepo{archives: make(map[uuid.UUID]*domain.Archive)}
}

func (r *fakeArchiveRepo) Create(_ context.Context, a *domain.Archive) error {
	r.archives[a.ID] = a
	return nil
}

func (r *fakeArchiveRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Archive, error) {
	a, ok := r.archives[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (r *fakeArchiveRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Archive, error) {
	var out []domain.Archive
	for _, a := range r.archives {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeArchiveRepo) Delete(_ context.Context, id uuid.UUID, _ uuid.UUID) error {
	delete(r.archives, id)
	return nil
}

func (r *fakeArchiveRepo) FindByFingerprint(_ context.Context, _ domain.Gender, _ domain.Fingerprint, excludeID uuid.UUID) ([]domain.Archive, error) {
	var out []domain.Archive
	for _, c := range r.candidates {
		if c.ID != excludeID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeJobRepo struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*domain.ReportJob
	active   *domain.ReportJob
	last     *domain.ReportJob
	queue    []*domain.ReportJob // для ClaimNext
	createFn func(job *domain.ReportJob) error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*domain.ReportJob)}
}

func (r *fakeJobRepo) Create(_ context.Context, job *domain.ReportJob) error {
	if r.createFn != nil {
		if err := r.createFn(job); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.ReportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) ClaimNext(_ context.Context) (*domain.ReportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil, nil
	}
	job := r.queue[0]
	r.queue = r.queue[1:]
	job.Status = domain.JobStatusProcessing
	r.jobs[job.ID] = job
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) MarkRunning(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Status = domain.JobStatusRunning
	}
	return nil
}

// Finish уважает отмену контекста, как ExecContext настоящего драйвера
func (r *fakeJobRepo) Finish(ctx context.Context, id uuid.UUID, status domain.JobStatus, errorMessage *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return domain.ErrJobTerminal
	}
	job.Status = status
	job.ErrorMessage = errorMessage
	return nil
}

func (r *fakeJobRepo) GetActive(_ context.Context, _ uuid.UUID, _ domain.ReportType) (*domain.ReportJob, error) {
	return r.active, nil
}

func (r *fakeJobRepo) GetLast(_ context.Context, _ uuid.UUID, _ domain.ReportType) (*domain.ReportJob, error) {
	return r.last, nil
}

func (r *fakeJobRepo) stored(id uuid.UUID) *domain.ReportJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id]
}

type fakeReportRepo struct {
	reports map[string]*domain.Report
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]*domain.Report)}
}

func reportKey(archiveID uuid.UUID, reportType domain.ReportType) string {
	return archiveID.String() + "/" + string(reportType)
}

func (r *fakeReportRepo) Create(_ context.Context, report *domain.Report) error {
	key := reportKey(report.ArchiveID, report.ReportType)
	if _, ok := r.reports[key]; ok {
		return domain.ErrReportExists
	}
	r.reports[key] = report
	return nil
}

func (r *fakeReportRepo) GetByArchiveAndType(_ context.Context, archiveID uuid.UUID, reportType domain.ReportType) (*domain.Report, error) {
	return r.reports[reportKey(archiveID, reportType)], nil
}

func (r *fakeReportRepo) ListByArchive(_ context.Context, archiveID uuid.UUID) ([]domain.Report, error) {
	var out []domain.Report
	for _, rep := range r.reports {
		if rep.ArchiveID == archiveID {
			out = append(out, *rep)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	balances   map[uuid.UUID]int64
	spendCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{balances: make(map[uuid.UUID]int64)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.balances[user.ID] = user.Energy
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	energy, ok := r.balances[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.User{ID: id, Energy: energy}, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) UpdateLastSeen(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeUserRepo) SpendEnergy(ctx context.Context, id uuid.UUID, delta int64) error {
	return r.SpendEnergyTx(ctx, nil, id, delta)
}

func (r *fakeUserRepo) CreditEnergy(ctx context.Context, id uuid.UUID, delta int64) error {
	return r.CreditEnergyTx(ctx, nil, id, delta)
}

func (r *fakeUserRepo) SpendEnergyTx(_ context.Context, _ persistence.Transaction, id uuid.UUID, delta int64) error {
	r.spendCalls++
	if r.balances[id] < delta {
		return domain.ErrInsufficientEnergy
	}
	r.balances[id] -= delta
	return nil
}

func (r *fakeUserRepo) CreditEnergyTx(_ context.Context, _ persistence.Transaction, id uuid.UUID, delta int64) error {
	r.balances[id] += delta
	return nil
}

func (r *fakeUserRepo) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	return fn(ctx, nil)
}

type fakeTxRepo struct {
	created []domain.Transaction
}

func (r *fakeTxRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	return r.CreateTx(ctx, nil, tx)
}

func (r *fakeTxRepo) CreateTx(_ context.Context, _ persistence.Transaction, tx *domain.Transaction) error {
	r.created = append(r.created, *tx)
	return nil
}

func (r *fakeTxRepo) ListByUser(_ context.Context, _ uuid.UUID, _ int) ([]domain.Transaction, error) {
	return r.created, nil
}

func (r *fakeTxRepo) ExistsByIdempotencyKey(_ context.Context, _ string) (bool, error) {
	return false, nil
}

type fakeChartService struct {
	chart        domain.Chart
	solar        *domain.SolarDate
	lunarErr     error
	chartErr     error
	chartCalls   int
	lastLunarArg string
}

func (s *fakeChartService) CalculateChart(_ context.Context, _ domain.BirthRecord) (domain.Chart, error) {
	s.chartCalls++
	if s.chartErr != nil {
		return nil, s.chartErr
	}
	return s.chart, nil
}

func (s *fakeChartService) LunarToSolar(_ context.Context, lunarDate string, _ bool) (*domain.SolarDate, error) {
	s.lastLunarArg = lunarDate
	if s.lunarErr != nil {
		return nil, s.lunarErr
	}
	return s.solar, nil
}

type fakeLLM struct {
	response   string
	err        error
	calls      int
	onComplete func() // вызывается до ответа, для имитации событий во время запроса
}

func (s *fakeLLM) Complete(ctx context.Context, _ service.CompletionRequest) (string, error) {
	s.calls++
	if s.onComplete != nil {
		s.onComplete()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *fakeLLM) Model() string { return "test-model" }

type testEnv struct {
	svc      *Service
	archives *fakeArchiveRepo
	jobs     *fakeJobRepo
	reports  *fakeReportRepo
	users    *fakeUserRepo
	ledger   *fakeTxRepo
	chart    *fakeChartService
	llm      *fakeLLM
}

func newTestEnv() *testEnv {
	env := &testEnv{
		archives: newFakeArchiveRepo(),
		jobs:     newFakeJobRepo(),
		reports:  newFakeReportRepo(),
		users:    newFakeUserRepo(),
		ledger:   &fakeTxRepo{},
		chart:    &fakeChartService{chart: domain.Chart(`{"bazi":"test"}`)},
		llm:      &fakeLLM{response: validMainReportJSON},
	}

	env.svc = &Service{
		Cfg:          &Config{MainReportCost: 100, DeepReportCost: 180, Inline: true},
		ArchiveRepo:  env.archives,
		JobRepo:      env.jobs,
		ReportRepo:   env.reports,
		UserRepo:     env.users,
		TxRepo:       env.ledger,
		ChartService: env.chart,
		LLMService:   env.llm,
		Validate:     validator.New(),
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return env
}

const validMainReportJSON = `{
  "overview": "整体命局平稳",
  "personality": "性格坚毅",
  "radar": [
    {"name": "事业", "value": 80},
    {"name": "财富", "value": 70},
    {"name": "感情", "value": 60},
    {"name": "健康", "value": 75},
    {"name": "人际", "value": 65},
    {"name": "智慧", "value": 85},
    {"name": "家庭", "value": 72}
  ],
  "lifeStages": [
    {"stage": "少年", "summary": "求学顺利"},
    {"stage": "青年", "summary": "事业起步"},
    {"stage": "中年", "summary": "财运渐旺"},
    {"stage": "晚年", "summary": "安享天伦"}
  ],
  "yearlyOutlook": [
    {"year": "2026", "theme": "稳中求进", "summary": "适合积累"},
    {"year": "2027", "theme": "贵人相助", "summary": "合作有利"},
    {"year": "2028", "theme": "蓄势待发", "summary": "静待时机"}
  ],
  "luckyElements": {"element": "木", "color": "绿色", "direction": "东方"},
  "advice": "保持耐心"
}`
