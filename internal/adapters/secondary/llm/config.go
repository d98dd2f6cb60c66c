package llm

import "time"

type Config struct {
	BaseURL        string `envconfig:"BASE_URL"` // пустой - api.openai.com
	ApiKey         string `envconfig:"API_KEY" required:"true"`
	Model          string `envconfig:"MODEL" default:"gpt-4o-mini"`
	TimeoutSeconds int    `envconfig:"TIMEOUT" default:"300"` // генерация отчёта - минуты
}

// RequestTimeout таймаут одного completion-запроса
func (c *Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
