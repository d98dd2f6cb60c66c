package app

import (
	"fmt"
	"net/http"

	server "github.com/lifecode-app/lifecode-server/internal/adapters/primary/http"
	adminController "github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/admin"
	archiveController "github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/archive"
	authController "github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/auth"
	energyController "github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/energy"
	healthcheckController "github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/healthcheck"
	reportController "github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/report"
	webhookController "github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/webhook"
	alerterAdapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/alerter"
	"github.com/lifecode-app/lifecode-server/internal/adapters/secondary/chartapi"
	"github.com/lifecode-app/lifecode-server/internal/adapters/secondary/identity/supabase"
	kafkaAdapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/kafka"
	llmAdapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/llm"
	stripeAdapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/payment/stripe"
	"github.com/lifecode-app/lifecode-server/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/storage/s3"
	"github.com/lifecode-app/lifecode-server/internal/pkg/chinese"
	"github.com/lifecode-app/lifecode-server/internal/ports/cache"
	"github.com/lifecode-app/lifecode-server/internal/ports/repository"
	"github.com/lifecode-app/lifecode-server/internal/ports/service"
	"github.com/lifecode-app/lifecode-server/internal/ports/storage"
	archiveRepo "github.com/lifecode-app/lifecode-server/internal/repository/archive"
	redemptionRepo "github.com/lifecode-app/lifecode-server/internal/repository/redemption"
	reportRepo "github.com/lifecode-app/lifecode-server/internal/repository/report"
	reportJobRepo "github.com/lifecode-app/lifecode-server/internal/repository/reportjob"
	transactionRepo "github.com/lifecode-app/lifecode-server/internal/repository/transaction"
	userRepo "github.com/lifecode-app/lifecode-server/internal/repository/user"
	archiveUsecase "github.com/lifecode-app/lifecode-server/internal/usecases/archive"
	authUsecase "github.com/lifecode-app/lifecode-server/internal/usecases/auth"
	energyUsecase "github.com/lifecode-app/lifecode-server/internal/usecases/energy"
	paymentUsecase "github.com/lifecode-app/lifecode-server/internal/usecases/payment"
	reportUsecase "github.com/lifecode-app/lifecode-server/internal/usecases/report"
	"github.com/jmoiron/sqlx"
)

type Dependencies struct {
	DB         *sqlx.DB
	HTTPServer *http.Server
	Cache      cache.Cache
	Events     *kafkaAdapter.Producer
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies() (*Dependencies, error) {
	if a.Cfg.Auth == nil {
		return nil, fmt.Errorf("auth configuration is missing")
	}
	if a.Cfg.Report == nil {
		a.Cfg.Report = &reportUsecase.Config{MainReportCost: 100, DeepReportCost: 180, Inline: true, GenerationTimeoutSeconds: 300}
	}

	db, err := a.initPostgres()
	if err != nil {
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	repos := a.initRepositories(db)
	external, err := a.initExternalServices()
	if err != nil {
		return nil, fmt.Errorf("failed to init external services: %w", err)
	}

	converter, err := chinese.NewConverter()
	if err != nil {
		return nil, fmt.Errorf("failed to init chinese converter: %w", err)
	}

	// типизированный nil *Producer в интерфейсе сломал бы nil-проверки use case
	var events service.IEventProducer
	if external.Events != nil {
		events = external.Events
	}

	reportService := reportUsecase.New(
		a.Cfg.Report,
		repos.Archive,
		repos.ReportJob,
		repos.Report,
		repos.User,
		repos.Transaction,
		external.Chart,
		external.LLM,
		converter,
		external.Cache,       // может быть nil
		external.ObjectStore, // может быть nil
		events,               // может быть nil
		external.Alerter,     // может быть nil
		a.Log,
	)
	archiveService := archiveUsecase.New(repos.Archive, reportService, a.Log)
	authService := authUsecase.New(a.Cfg.Auth, repos.User, repos.Transaction, external.Identity, a.Log)
	energyService := energyUsecase.New(repos.User, repos.Transaction, repos.Redemption, a.Log)
	paymentService := paymentUsecase.New(repos.User, repos.Transaction, external.Payment, external.Alerter, a.Log)

	httpServer := a.initHTTP(db, authService, archiveService, reportService, energyService, paymentService)

	return &Dependencies{
		DB:         db,
		HTTPServer: httpServer,
		Cache:      external.Cache,
		Events:     external.Events,
	}, nil
}

// repositories содержит инициализированные репозитории
type repositories struct {
	User        repository.IUserRepo
	Archive     repository.IArchiveRepo
	ReportJob   repository.IReportJobRepo
	Report      repository.IReportRepo
	Transaction repository.ITransactionRepo
	Redemption  repository.IRedemptionRepo
}

// initRepositories инициализирует репозитории для работы с БД
func (a *App) initRepositories(db *sqlx.DB) *repositories {
	persistenceLayer := pg.NewDB(db)
	return &repositories{
		User:        userRepo.New(persistenceLayer, a.Log),
		Archive:     archiveRepo.New(persistenceLayer, a.Log),
		ReportJob:   reportJobRepo.New(persistenceLayer, a.Log),
		Report:      reportRepo.New(persistenceLayer, a.Log),
		Transaction: transactionRepo.New(persistenceLayer, a.Log),
		Redemption:  redemptionRepo.New(persistenceLayer, a.Log),
	}
}

// externalServices содержит внешние сервисы. Chart, LLM, Identity и
// Payment обязательные, остальные опциональные
type externalServices struct {
	Chart       service.IChartService
	LLM         service.ILLMService
	Identity    service.IIdentityService
	Payment     *stripeAdapter.Provider
	Alerter     service.IAlerterService
	Cache       cache.Cache
	ObjectStore storage.IObjectStore
	Events      *kafkaAdapter.Producer
}

// initExternalServices инициализирует внешние сервисы
func (a *App) initExternalServices() (*externalServices, error) {
	services := &externalServices{}

	if a.Cfg.ChartAPI == nil {
		return nil, fmt.Errorf("chart API configuration is missing")
	}
	services.Chart = chartapi.NewClient(a.Cfg.ChartAPI, a.Log)

	if a.Cfg.LLM == nil {
		return nil, fmt.Errorf("LLM configuration is missing")
	}
	services.LLM = llmAdapter.NewClient(a.Cfg.LLM, a.Log)

	if a.Cfg.Supabase == nil {
		return nil, fmt.Errorf("supabase configuration is missing")
	}
	services.Identity = supabase.NewClient(a.Cfg.Supabase, a.Log)

	if a.Cfg.Stripe == nil {
		return nil, fmt.Errorf("stripe configuration is missing")
	}
	services.Payment = stripeAdapter.NewProvider(a.Cfg.Stripe, a.Log)

	// Alerter - опциональный
	if a.Cfg.Alerter.IsConfigured() {
		services.Alerter = alerterAdapter.NewWebhookAlerter(a.Cfg.Alerter, a.Log)
	}

	// Redis Cache - опциональный
	if a.Cfg.Redis != nil {
		redisClient, err := a.Cfg.Redis.NewConnection()
		if err != nil {
			a.Log.Warn("failed to init redis cache, continuing without cache", "error", err)
		} else {
			services.Cache = redisAdapter.NewClient(redisClient)
			a.Log.Info("redis cache connected successfully")
		}
	}

	// S3 архив сырых ответов LLM - опциональный
	if a.Cfg.S3.IsConfigured() {
		minioClient, err := a.Cfg.S3.NewClient()
		if err != nil {
			a.Log.Warn("failed to init s3 storage, continuing without raw archive", "error", err)
		} else {
			services.ObjectStore = s3Adapter.NewClient(minioClient, a.Cfg.S3.Bucket, a.Log)
			a.Log.Info("s3 storage connected successfully")
		}
	}

	// Kafka producer событий - опциональный
	if a.Cfg.Kafka.IsConfigured() {
		producer, err := kafkaAdapter.NewProducer(a.Cfg.Kafka, a.Log)
		if err != nil {
			a.Log.Warn("failed to init kafka producer, continuing without events", "error", err)
		} else {
			services.Events = producer
			a.Log.Info("kafka producer connected successfully")
		}
	}

	return services, nil
}

// initHTTP инициализирует HTTP сервер и контроллеры
func (a *App) initHTTP(
	db *sqlx.DB,
	authService *authUsecase.Service,
	archiveService *archiveUsecase.Service,
	reportService *reportUsecase.Service,
	energyService *energyUsecase.Service,
	paymentService *paymentUsecase.Service,
) *http.Server {
	workerCfg := a.Cfg.Worker
	if workerCfg == nil {
		workerCfg = &reportController.Config{}
	}

	controllers := []server.Controller{
		healthcheckController.New(db, a.Log),
		authController.New(authService, a.Log),
		archiveController.New(archiveService, authService, a.Log),
		reportController.New(workerCfg, reportService, authService, a.Log),
		energyController.New(energyService, paymentService, authService, a.Log),
		webhookController.New(paymentService, a.Log),
		adminController.New(energyService, authService, a.Log),
	}

	return server.NewHTTPServer(a.Cfg.Server, a.Log, controllers...)
}
