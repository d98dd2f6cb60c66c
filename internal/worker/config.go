package worker

import (
	"fmt"
	"time"

	"github.com/lifecode-app/lifecode-server/internal/adapters/secondary/llm"
	"github.com/lifecode-app/lifecode-server/internal/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerURL           string `envconfig:"SERVER_URL" required:"true"` // базовый URL API сервера
	Secret              string `envconfig:"SECRET" required:"true"`
	PollIntervalSeconds int    `envconfig:"POLL_INTERVAL" default:"3"`

	Log *logger.Config `envconfig:"LOG"`
	LLM *llm.Config    `envconfig:"LLM"`
}

// PollInterval пауза между опросами при пустой очереди
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	if cfg.LLM == nil {
		return nil, fmt.Errorf("LLM configuration is missing")
	}

	return cfg, nil
}
