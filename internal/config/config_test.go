package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentmatch/matchworker/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Worker.Workers)
	assert.Equal(t, "intakes", cfg.Worker.IntakeQueue)
	assert.Equal(t, 0.6, cfg.Matching.AcceptanceThreshold)
	assert.Equal(t, 0.4, cfg.Matching.DegradedCeiling)
	assert.InDelta(t, 1.0, cfg.Matching.Weights.Sum(), 1e-9)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
	assert.Equal(t, 2, cfg.Gemini.MaxRetries)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/talent")
	t.Setenv("R2_BUCKET", "resumes")
	t.Setenv("GOOGLE_API_KEY", "test-key")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/talent", cfg.DatabaseURL)
	assert.Equal(t, "resumes", cfg.Storage.Bucket)
	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
}

func TestLoadConfigFile(t *testing.T) {
	doc := `
worker:
  workers: 5
  intake_queue: resumes-in
gemini:
  timeout: 10s
matching:
  acceptance_threshold: 0.7
  max_results: 8
`
	path := filepath.Join(t.TempDir(), "worker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Worker.Workers)
	assert.Equal(t, "resumes-in", cfg.Worker.IntakeQueue)
	assert.Equal(t, "10s", cfg.Gemini.Timeout.String())
	assert.Equal(t, 0.7, cfg.Matching.AcceptanceThreshold)
	assert.Equal(t, 8, cfg.Matching.MaxResults)
	// untouched keys keep their defaults
	assert.Equal(t, 0.4, cfg.Matching.DegradedCeiling)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		cfg, err := config.Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("weights must sum to one", func(t *testing.T) {
		cfg := base()
		cfg.Matching.Weights.Skills = 0.9
		assert.ErrorContains(t, cfg.Validate(), "sum to 1.0")
	})

	t.Run("thresholds must stay in range", func(t *testing.T) {
		cfg := base()
		cfg.Matching.AcceptanceThreshold = 1.4
		assert.ErrorContains(t, cfg.Validate(), "acceptance_threshold")
	})

	t.Run("workers must be positive", func(t *testing.T) {
		cfg := base()
		cfg.Worker.Workers = 0
		assert.ErrorContains(t, cfg.Validate(), "workers")
	})
}
