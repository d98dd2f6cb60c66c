package alerter

type Config struct {
	WebhookURL string `envconfig:"WEBHOOK_URL"`
	AppName    string `envconfig:"APP_NAME" default:"lifecode-server"`
}

// IsConfigured алертер опционален: без URL алерты не отправляются
func (c *Config) IsConfigured() bool {
	return c != nil && c.WebhookURL != ""
}
