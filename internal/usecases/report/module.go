package report

import (
	"time"

	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/lifecode-app/lifecode-server/internal/pkg/chinese"
	"github.com/lifecode-app/lifecode-server/internal/ports/cache"
	"github.com/lifecode-app/lifecode-server/internal/ports/repository"
	"github.com/lifecode-app/lifecode-server/internal/ports/service"
	"github.com/lifecode-app/lifecode-server/internal/ports/storage"
)

// Config стоимость генерации в энергии и режим выполнения
type Config struct {
	MainReportCost int64 `envconfig:"MAIN_REPORT_COST" default:"100"`
	DeepReportCost int64 `envconfig:"DEEP_REPORT_COST" default:"180"`

	// Inline - генерация прямо в обработчике запроса; иначе джоба
	// остаётся в running и дожидается внешнего воркера
	Inline bool `envconfig:"INLINE" default:"true"`

	// GenerationTimeoutSeconds потолок длительности inline-генерации
	GenerationTimeoutSeconds int `envconfig:"GENERATION_TIMEOUT_SECONDS" default:"300"`
}

// GenerationTimeout длительность, после которой inline-генерация
// прерывается и джоба завершается в failed
func (c *Config) GenerationTimeout() time.Duration {
	if c.GenerationTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// Service бизнес-логика генерации отчётов: отпечатки, переиспользование,
// жизненный цикл джоб, pipeline починки LLM-вывода
type Service struct {
	Cfg          *Config
	ArchiveRepo  repository.IArchiveRepo
	JobRepo      repository.IReportJobRepo
	ReportRepo   repository.IReportRepo
	UserRepo     repository.IUserRepo
	TxRepo       repository.ITransactionRepo
	ChartService service.IChartService
	LLMService   service.ILLMService
	Converter    *chinese.Converter
	Cache        cache.Cache            // кэш рассчитанных карт, опционален
	ObjectStore  storage.IObjectStore   // архив сырых ответов LLM, опционален
	Events       service.IEventProducer // события жизненного цикла, опционален
	Alerter      service.IAlerterService
	Validate     *validator.Validate
	Log          *slog.Logger
}

// New создаёт сервис генерации отчётов
func New(
	cfg *Config,
	archiveRepo repository.IArchiveRepo,
	jobRepo repository.IReportJobRepo,
	reportRepo repository.IReportRepo,
	userRepo repository.IUserRepo,
	txRepo repository.ITransactionRepo,
	chartService service.IChartService,
	llmService service.ILLMService,
	converter *chinese.Converter,
	cacheClient cache.Cache,
	objectStore storage.IObjectStore,
	events service.IEventProducer,
	alerter service.IAlerterService,
	log *slog.Logger,
) *Service {
	return &Service{
		Cfg:          cfg,
		ArchiveRepo:  archiveRepo,
		JobRepo:      jobRepo,
		ReportRepo:   reportRepo,
		UserRepo:     userRepo,
		TxRepo:       txRepo,
		ChartService: chartService,
		LLMService:   llmService,
		Converter:    converter,
		Cache:        cacheClient,
		ObjectStore:  objectStore,
		Events:       events,
		Alerter:      alerter,
		Validate:     validator.New(),
		Log:          log,
	}
}

// Cost стоимость генерации отчёта данного типа
func (s *Service) Cost(reportType string) int64 {
	if reportType == "main" {
		return s.Cfg.MainReportCost
	}
	return s.Cfg.DeepReportCost
}
