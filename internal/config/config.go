package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr   string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath     string     `env:"DB_PATH" envDefault:"data/cityguess.db"`
	RedisURL   string     `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	LogLevel   slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	WeatherURL string     `env:"WEATHER_URL" envDefault:"https://weather-proxy.cityguess.app"`

	// ScoreSecret signs submission integrity tokens. Known to every client
	// build, so it only deters casual tampering.
	ScoreSecret string `env:"SCORE_SECRET" envDefault:"cg-score-v1"`

	// ScoreSinkURL, when set, makes sessions submit finished rounds over
	// HTTP to a separate ingest deployment instead of the local store.
	ScoreSinkURL string `env:"SCORE_SINK_URL"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
