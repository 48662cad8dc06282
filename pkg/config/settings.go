package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings are the runtime options of the deployment admin. Command line
// flags take precedence over the environment.
type Settings struct {
	DataDir  string `env:"DEPLOYADMIN_DATA_DIR"  envDefault:"/var/lib/deployadmin"`
	LogLevel string `env:"DEPLOYADMIN_LOG_LEVEL" envDefault:"info"`
	// StopUnaffectedBundles stops every bundle of the installed package during
	// an update, including the ones the update does not change.
	StopUnaffectedBundles bool          `env:"DEPLOYADMIN_STOP_UNAFFECTED_BUNDLE" envDefault:"true"`
	SessionTimeout        time.Duration `env:"DEPLOYADMIN_SESSION_TIMEOUT"        envDefault:"10s"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
