package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port             int    `env:"PORT" envDefault:"8080"`
	DatabaseURL      string `env:"DATABASE_URL,required"`
	RedisURL         string `env:"REDIS_URL,required"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	QuestionTimeSecs int    `env:"QUESTION_TIME_SECONDS" envDefault:"15"`
	CountdownSecs    int    `env:"COUNTDOWN_SECONDS" envDefault:"3"`
	RateLimitPerMin  int    `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
}

// QuestionTime is the authoritative per-question deadline.
func (c *Config) QuestionTime() time.Duration {
	return time.Duration(c.QuestionTimeSecs) * time.Second
}

// Countdown is the delay between pairing and the playing transition.
func (c *Config) Countdown() time.Duration {
	return time.Duration(c.CountdownSecs) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	if c.QuestionTimeSecs < 5 {
		return fmt.Errorf("QUESTION_TIME_SECONDS must be at least 5, got %d", c.QuestionTimeSecs)
	}
	if c.CountdownSecs < 1 {
		return fmt.Errorf("COUNTDOWN_SECONDS must be at least 1, got %d", c.CountdownSecs)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
