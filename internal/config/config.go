package config

import (
	"fmt"
	"os"
	"path/filepath"

	envconfig "github.com/XAOSTECH/payments.xaostech.io/pkg/config"
	"github.com/XAOSTECH/payments.xaostech.io/pkg/logger"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding the file.
const EnvPrefix = "PAYMENT"

type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      logger.Config  `yaml:"log"`
	JWT      JWTConfig      `yaml:"jwt"`
	Redis    RedisConfig    `yaml:"redis"`
}

func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/payment.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data, envconfig.NewEnv(EnvPrefix))
}

// Parse decodes YAML, applies defaults and environment overrides, then
// validates the result. env may be nil.
func Parse(data []byte, env *envconfig.Env) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if env != nil {
		cfg.applyEnv(env)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the settings used for keys missing from the file.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "payments",
			Environment: "development",
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: defaultConnMaxLifetime,
			ConnMaxIdleTime: defaultConnMaxIdleTime,
			SlowThreshold:   defaultSlowThreshold,
		},
		Server: ServerConfig{
			HTTP:            HTTPConfig{Host: "0.0.0.0", Port: 8080},
			GRPC:            GRPCConfig{Host: "0.0.0.0", Port: 9090},
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Log: logger.Config{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "entitlements.changed",
		},
	}
}

func (c *Config) applyEnv(env *envconfig.Env) {
	env.String("service.environment", &c.Service.Environment)
	env.String("service.stripe_webhook_secret", &c.Service.StripeWebhookSecret)

	env.String("database.driver", &c.Database.Driver)
	env.String("database.host", &c.Database.Host)
	env.Int("database.port", &c.Database.Port)
	env.String("database.name", &c.Database.Name)
	env.String("database.user", &c.Database.User)
	env.String("database.password", &c.Database.Password)
	env.String("database.sslmode", &c.Database.SSLMode)
	env.Duration("database.slow_threshold", &c.Database.SlowThreshold)

	env.Int("server.http.port", &c.Server.HTTP.Port)
	env.Int("server.grpc.port", &c.Server.GRPC.Port)
	env.Duration("server.shutdown_timeout", &c.Server.ShutdownTimeout)

	env.String("log.level", &c.Log.Level)
	env.String("log.format", &c.Log.Format)

	env.String("jwt.secret", &c.JWT.Secret)

	env.Bool("redis.enabled", &c.Redis.Enabled)
	env.String("redis.addr", &c.Redis.Addr)
	env.String("redis.password", &c.Redis.Password)
	env.String("redis.channel", &c.Redis.Channel)
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Server.HTTP.Port <= 0 {
		return fmt.Errorf("server.http.port must be positive")
	}
	if c.IsProduction() && c.Service.StripeWebhookSecret == "" {
		return fmt.Errorf("service.stripe_webhook_secret is required in production")
	}
	if c.Redis.Enabled && c.Redis.Channel == "" {
		return fmt.Errorf("redis.channel is required when redis is enabled")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Service.Environment == "production"
}
