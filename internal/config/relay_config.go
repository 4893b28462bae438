package config

import "github.com/kelseyhightower/envconfig"

// RelayConfig holds configuration for the outbox relay service. A
// minimal set: only what the relay needs.
type RelayConfig struct {
	DatabaseURL string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	RabbitMQURL string `envconfig:"RABBITMQ_URL" required:"true"`
	HealthPort  string `envconfig:"RELAY_HEALTH_PORT" default:"8081"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`
}

// LoadRelayConfig reads the relay configuration from environment
// variables.
func LoadRelayConfig() (*RelayConfig, error) {
	var cfg RelayConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
