package app

import (
	server "github.com/lifecode-app/lifecode-server/internal/adapters/primary/http"
	reportController "github.com/lifecode-app/lifecode-server/internal/adapters/primary/http/controllers/report"
	alerterAdapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/alerter"
	"github.com/lifecode-app/lifecode-server/internal/adapters/secondary/chartapi"
	"github.com/lifecode-app/lifecode-server/internal/adapters/secondary/identity/supabase"
	kafkaAdapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/kafka"
	"github.com/lifecode-app/lifecode-server/internal/adapters/secondary/llm"
	stripeAdapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/payment/stripe"
	"github.com/lifecode-app/lifecode-server/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/lifecode-app/lifecode-server/internal/adapters/secondary/storage/s3"
	"github.com/lifecode-app/lifecode-server/internal/pkg/logger"
	"github.com/lifecode-app/lifecode-server/internal/usecases/auth"
	"github.com/lifecode-app/lifecode-server/internal/usecases/report"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Postgres *pg.Config               `envconfig:"POSTGRES"`
	Log      *logger.Config           `envconfig:"LOG"`
	Server   *server.Config           `envconfig:"APISERVER"`
	Redis    *redisAdapter.Config     `envconfig:"REDIS"`
	Kafka    *kafkaAdapter.Config     `envconfig:"KAFKA"`
	S3       *s3Adapter.Config        `envconfig:"S3"`
	Alerter  *alerterAdapter.Config   `envconfig:"ALERTER"`
	ChartAPI *chartapi.Config         `envconfig:"CHART_API"`
	LLM      *llm.Config              `envconfig:"LLM"`
	Stripe   *stripeAdapter.Config    `envconfig:"STRIPE"`
	Supabase *supabase.Config         `envconfig:"SUPABASE"`
	Auth     *auth.Config             `envconfig:"AUTH"`
	Report   *report.Config           `envconfig:"REPORT"`
	Worker   *reportController.Config `envconfig:"WORKER"`
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
