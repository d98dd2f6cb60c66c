package stripe

type Config struct {
	SecretKey     string `envconfig:"SECRET_KEY" required:"true"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET" required:"true"`
	SuccessURL    string `envconfig:"SUCCESS_URL" required:"true"`
	CancelURL     string `envconfig:"CANCEL_URL" required:"true"`
}
