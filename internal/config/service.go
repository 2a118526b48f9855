package config

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	// Webhook signatures are verified only when this is set.
	StripeWebhookSecret string `yaml:"stripe_webhook_secret"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// RedisConfig configures the entitlement change publisher.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}
