package gateway

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/ownablekit/studio/errors"
)

// Config holds the gateway's runtime configuration, loaded from
// environment variables.
type Config struct {
	ListenAddr   string `envconfig:"STUDIO_LISTEN_ADDR" default:":8787"`
	DatabasePath string `envconfig:"STUDIO_DB_PATH" default:"studio.db"`
	CORSOrigins  string `envconfig:"STUDIO_CORS_ORIGINS"`
	LogLevel     string `envconfig:"STUDIO_LOG_LEVEL" default:"info"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(errors.PhaseTransport, errors.KindInvalidInput, err, "load environment config")
	}
	return cfg, nil
}
