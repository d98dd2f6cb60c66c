package supabase

type Config struct {
	BaseURL string `envconfig:"URL" required:"true"` // https://<project>.supabase.co
	AnonKey string `envconfig:"ANON_KEY" required:"true"`
}
