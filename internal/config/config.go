// Package config loads process configuration from an optional YAML file and
// the environment. Loaded once in main and passed down; nothing here is
// mutated after Load returns.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	RabbitURL   string `mapstructure:"rabbitmq_url"`

	TaxonomyFile string `mapstructure:"taxonomy_file"`

	Worker   Worker   `mapstructure:"worker"`
	Storage  Storage  `mapstructure:"storage"`
	Gemini   Gemini   `mapstructure:"gemini"`
	Matching Matching `mapstructure:"matching"`
	Log      Log      `mapstructure:"log"`
}

type Worker struct {
	Workers        int    `mapstructure:"workers"`
	IntakeQueue    string `mapstructure:"intake_queue"`
	UpdateExchange string `mapstructure:"update_exchange"`
}

// Storage holds the R2 bucket credentials (S3 compatible API).
type Storage struct {
	AccountID string `mapstructure:"account_id"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type Gemini struct {
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	Backoff           time.Duration `mapstructure:"backoff"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

type Matching struct {
	AcceptanceThreshold float64 `mapstructure:"acceptance_threshold"`
	DegradedCeiling     float64 `mapstructure:"degraded_ceiling"`
	Weights             Weights `mapstructure:"weights"`
	AdjacentBonus       float64 `mapstructure:"adjacent_bonus"`
	AdjacentBonusCap    float64 `mapstructure:"adjacent_bonus_cap"`
	PartialIndustry     float64 `mapstructure:"partial_industry"`
	ExplanationFloor    float64 `mapstructure:"explanation_floor"`
	MinScore            float64 `mapstructure:"min_score"`
	MaxResults          int     `mapstructure:"max_results"`
	GapSources          int     `mapstructure:"gap_sources"`
}

type Weights struct {
	Skills     float64 `mapstructure:"skills"`
	Experience float64 `mapstructure:"experience"`
	Industry   float64 `mapstructure:"industry"`
	Location   float64 `mapstructure:"location"`
}

func (w Weights) Sum() float64 {
	return w.Skills + w.Experience + w.Industry + w.Location
}

type Log struct {
	Debug bool   `mapstructure:"debug"`
	JSON  bool   `mapstructure:"json"`
	File  string `mapstructure:"file"`
}

// Load reads matchworker.yaml (or CONFIG_FILE) merged over defaults and env
// bindings, then validates the result.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("binding environment: %w", err)
	}

	explicit := v.GetString("config_file")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("matchworker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// only the implicit search is allowed to come up empty
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("worker.workers", 3)
	v.SetDefault("worker.intake_queue", "intakes")
	v.SetDefault("worker.update_exchange", "intake_updates")

	v.SetDefault("gemini.model", "gemini-2.5-pro")
	v.SetDefault("gemini.timeout", "45s")
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.backoff", "500ms")
	v.SetDefault("gemini.requests_per_minute", 30)

	v.SetDefault("matching.acceptance_threshold", 0.6)
	v.SetDefault("matching.degraded_ceiling", 0.4)
	v.SetDefault("matching.weights.skills", 0.5)
	v.SetDefault("matching.weights.experience", 0.2)
	v.SetDefault("matching.weights.industry", 0.2)
	v.SetDefault("matching.weights.location", 0.1)
	v.SetDefault("matching.adjacent_bonus", 0.05)
	v.SetDefault("matching.adjacent_bonus_cap", 0.15)
	v.SetDefault("matching.partial_industry", 0.5)
	v.SetDefault("matching.explanation_floor", 0.05)
	v.SetDefault("matching.min_score", 0.1)
	v.SetDefault("matching.max_results", 20)
	v.SetDefault("matching.gap_sources", 5)

	v.SetDefault("log.debug", false)
	v.SetDefault("log.json", true)
}

func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"config_file":        "CONFIG_FILE",
		"database_url":       "DB_URL",
		"rabbitmq_url":       "RABBITMQ_URL",
		"taxonomy_file":      "TAXONOMY_FILE",
		"storage.account_id": "R2_ACCOUNT_ID",
		"storage.bucket":     "R2_BUCKET",
		"storage.access_key": "R2_ACCESS_KEY",
		"storage.secret_key": "R2_SECRET_KEY",
		"gemini.api_key":     "GOOGLE_API_KEY",
		"log.debug":          "LOG_DEBUG",
		"log.file":           "LOG_FILE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the tunables that have hard ranges. Presence of the infra
// settings (DB, broker, bucket, API key) is checked in main where the worker
// decides which of them it actually needs.
func (c *Config) Validate() error {
	if c.Worker.Workers < 1 {
		return fmt.Errorf("worker.workers must be at least 1, got %d", c.Worker.Workers)
	}
	if sum := c.Matching.Weights.Sum(); math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.4f", sum)
	}
	for name, val := range map[string]float64{
		"matching.acceptance_threshold": c.Matching.AcceptanceThreshold,
		"matching.degraded_ceiling":     c.Matching.DegradedCeiling,
		"matching.partial_industry":     c.Matching.PartialIndustry,
		"matching.min_score":            c.Matching.MinScore,
	} {
		if val < 0 || val > 1 {
			return fmt.Errorf("%s must be within [0,1], got %.4f", name, val)
		}
	}
	if c.Gemini.MaxRetries < 0 {
		return fmt.Errorf("gemini.max_retries must not be negative, got %d", c.Gemini.MaxRetries)
	}
	if c.Matching.AdjacentBonus < 0 || c.Matching.AdjacentBonusCap < 0 {
		return fmt.Errorf("adjacent skill bonus values must not be negative")
	}
	return nil
}
