package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("QDRANT_ENABLED", "")
	t.Setenv("ESSAY_TEMPERATURE", "")
	t.Setenv("RETRY_INITIAL_DELAY", "")
	t.Setenv("WORKER_STUCK_AFTER", "")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.False(t, cfg.Qdrant.Enabled)
	assert.InDelta(t, 0.7, cfg.Assistant.EssayTemperature, 0.0001)
	assert.Equal(t, 2*time.Second, cfg.Worker.RetryInitialDelay)
	assert.Equal(t, 10*time.Minute, cfg.Worker.StuckAfter)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("QDRANT_ENABLED", "true")
	t.Setenv("ANALYSIS_TEMPERATURE", "0.1")
	t.Setenv("WORKER_CONCURRENCY", "7")
	t.Setenv("RETRY_INITIAL_DELAY", "500ms")
	t.Setenv("WORKER_STUCK_AFTER", "2m")
	t.Setenv("GEMINI_MAX_OUTPUT_TOKENS", "2048")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Qdrant.Enabled)
	assert.InDelta(t, 0.1, cfg.Assistant.AnalysisTemperature, 0.0001)
	assert.Equal(t, 7, cfg.Worker.Concurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.Worker.RetryInitialDelay)
	assert.Equal(t, 2*time.Minute, cfg.Worker.StuckAfter)
	assert.EqualValues(t, 2048, cfg.Gemini.MaxOutputTokens)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "many")
	t.Setenv("QDRANT_ENABLED", "sometimes")
	t.Setenv("RETRY_INITIAL_DELAY", "soon")

	cfg := Load()

	assert.Equal(t, 3, cfg.Worker.Concurrency)
	assert.False(t, cfg.Qdrant.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Worker.RetryInitialDelay)
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "jobs"}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=jobs sslmode=disable", cfg.GetDatabaseDSN())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&Config{Server: ServerConfig{Env: "production"}, Log: LogConfig{Level: "debug"}})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(&Config{Log: LogConfig{Level: "loud"}})
	assert.Error(t, err)
}
