package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	DBDSN       string `env:"DB_DSN"`

	HTTP struct {
		Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
		Port string `env:"HTTP_PORT" envDefault:"8080"`
	}

	Calendar struct {
		BaseURL string        `env:"CALENDAR_URL"`
		Timeout time.Duration `env:"CALENDAR_TIMEOUT" envDefault:"5s"`
	}

	Roster struct {
		BaseURL string        `env:"ROSTER_URL"`
		Timeout time.Duration `env:"ROSTER_TIMEOUT" envDefault:"5s"`
	}

	Booking struct {
		ReserveTimeout   time.Duration `env:"RESERVE_TIMEOUT" envDefault:"5s"`
		AvailabilityTTL  time.Duration `env:"AVAILABILITY_TTL" envDefault:"5s"`
		SlotWeeksAhead   int           `env:"SLOT_WEEKS_AHEAD" envDefault:"4"`
		BackfillInterval time.Duration `env:"BACKFILL_INTERVAL" envDefault:"1m"`
	}

	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"migrations"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}
