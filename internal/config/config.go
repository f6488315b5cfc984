package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/playperu/flagquiz/internal/flagquiz"
)

type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath         string        `env:"DB_PATH" envDefault:"data/flagquiz.db"`
	LogLevel       slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir         string        `env:"SPA_DIR" envDefault:"../web/dist"`
	QuestionCount  int           `env:"QUESTION_COUNT" envDefault:"6"`
	FeedbackDelay  time.Duration `env:"FEEDBACK_DELAY" envDefault:"1.5s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`
	Countries      []string      `env:"COUNTRIES" envSeparator:","`
	AdminTokenHash string        `env:"ADMIN_TOKEN_HASH"`
}

// Load reads an optional .env file, then parses the environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if len(cfg.Countries) == 0 {
		cfg.Countries = flagquiz.DefaultCountries
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.QuestionCount < 1 {
		return fmt.Errorf("QUESTION_COUNT must be at least 1, got %d", c.QuestionCount)
	}
	if c.FeedbackDelay <= 0 {
		return fmt.Errorf("FEEDBACK_DELAY must be positive, got %s", c.FeedbackDelay)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("WRITE_TIMEOUT must be positive, got %s", c.WriteTimeout)
	}
	if _, err := flagquiz.NewCatalog(c.Countries); err != nil {
		return fmt.Errorf("COUNTRIES: %w", err)
	}
	return nil
}
