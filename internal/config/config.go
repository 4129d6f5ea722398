// Package config loads service configuration from the environment and
// an optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds configuration shared by the order view services.
type Config struct {
	Port              string `mapstructure:"PORT"`
	Env               string `mapstructure:"ENV"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	KafkaBrokers      string `mapstructure:"KAFKA_BROKERS"`
	PatientServiceURL string `mapstructure:"PATIENT_SERVICE_URL"`
	OTLPEndpoint      string `mapstructure:"OTLP_ENDPOINT"`
	APIKeys           string `mapstructure:"API_KEYS"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration. A missing .env file is not an error; a
// missing DATABASE_URL is.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("PATIENT_SERVICE_URL", "http://localhost:8090")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")

	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("KAFKA_BROKERS")
	v.BindEnv("PATIENT_SERVICE_URL")
	v.BindEnv("OTLP_ENDPOINT")
	v.BindEnv("API_KEYS")
	v.BindEnv("LOG_LEVEL")

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// Brokers returns the Kafka broker list.
func (c *Config) Brokers() []string {
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// ParsedAPIKeys maps API key to client name. The raw value is a comma
// separated list of key=client pairs.
func (c *Config) ParsedAPIKeys() map[string]string {
	keys := make(map[string]string)
	for _, pair := range strings.Split(c.APIKeys, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, client, found := strings.Cut(pair, "=")
		if !found {
			client = "default"
		}
		keys[key] = client
	}
	return keys
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}
