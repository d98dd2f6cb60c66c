package kafka

import "strings"

type Config struct {
	Brokers          string `envconfig:"BROKERS"` // через запятую
	Topic            string `envconfig:"TOPIC" default:"lifecode.report-events"`
	SecurityProtocol string `envconfig:"SECURITY_PROTOCOL"` // SASL_SSL / SASL_PLAINTEXT / пусто
	SASLMechanism    string `envconfig:"SASL_MECHANISM"`
	SASLUsername     string `envconfig:"SASL_USERNAME"`
	SASLPassword     string `envconfig:"SASL_PASSWORD"`
}

// IsConfigured producer событий опционален: без брокеров не создаём
func (c *Config) IsConfigured() bool {
	return c != nil && c.Brokers != ""
}

func (c *Config) GetBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
