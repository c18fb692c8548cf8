package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment once at startup.
type Config struct {
	Addr           string        `env:"DUTCH_ADDR" envDefault:":8080"`
	DBPath         string        `env:"DUTCH_DB_PATH" envDefault:"./dutch.db"`
	StaticDir      string        `env:"DUTCH_STATIC_DIR"`
	AllowedOrigins []string      `env:"DUTCH_ALLOWED_ORIGINS" envSeparator:","`
	PeekReveal     time.Duration `env:"DUTCH_PEEK_REVEAL" envDefault:"2s"`
	QueenReveal    time.Duration `env:"DUTCH_QUEEN_REVEAL" envDefault:"3s"`
	CallerPenalty  int           `env:"DUTCH_CALLER_PENALTY" envDefault:"10"`
	MaxPlayers     int           `env:"DUTCH_MAX_PLAYERS" envDefault:"8"`
	LogLevel       string        `env:"DUTCH_LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool          `env:"DUTCH_LOG_DEVELOPMENT" envDefault:"false"`
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("DUTCH_ADDR is empty"))
	}
	if c.PeekReveal <= 0 {
		errs = append(errs, errors.New("DUTCH_PEEK_REVEAL must be positive"))
	}
	if c.QueenReveal <= 0 {
		errs = append(errs, errors.New("DUTCH_QUEEN_REVEAL must be positive"))
	}
	if c.CallerPenalty < 0 {
		errs = append(errs, errors.New("DUTCH_CALLER_PENALTY must not be negative"))
	}
	// a double deck deals 4 cards each plus one discard
	if c.MaxPlayers < 2 || c.MaxPlayers > 25 {
		errs = append(errs, fmt.Errorf("DUTCH_MAX_PLAYERS %d out of range 2..25", c.MaxPlayers))
	}
	return errors.Join(errs...)
}
