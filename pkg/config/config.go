package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for a gateway deployment.
type Config struct {
	Port            string        `mapstructure:"PORT"`
	BackendBaseURL  string        `mapstructure:"BACKEND_BASE_URL"`
	GateSecret      string        `mapstructure:"GATE_SECRET"`
	PollInterval    time.Duration `mapstructure:"TIER_POLL_INTERVAL"`
	BackendTimeout  time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	CredentialsFile string        `mapstructure:"CREDENTIALS_FILE"`
	PostgresURL     string        `mapstructure:"POSTGRES_URL"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("TIER_POLL_INTERVAL", 30*time.Second)
	viper.SetDefault("BACKEND_TIMEOUT", 30*time.Second)
	viper.SetDefault("REDIS_DB", 0)

	// Bind environment variables
	viper.BindEnv("PORT")
	viper.BindEnv("BACKEND_BASE_URL")
	viper.BindEnv("GATE_SECRET")
	viper.BindEnv("TIER_POLL_INTERVAL")
	viper.BindEnv("BACKEND_TIMEOUT")
	viper.BindEnv("CREDENTIALS_FILE")
	viper.BindEnv("POSTGRES_URL")
	viper.BindEnv("REDIS_ADDR")
	viper.BindEnv("REDIS_PASSWORD")
	viper.BindEnv("REDIS_DB")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// Validate required fields
	if cfg.BackendBaseURL == "" {
		return nil, errors.New("BACKEND_BASE_URL is required")
	}
	if cfg.GateSecret == "" {
		return nil, errors.New("GATE_SECRET is required")
	}

	return &cfg, nil
}
