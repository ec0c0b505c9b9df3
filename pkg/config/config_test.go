package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, dir, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "interviewer.yaml"), []byte(contents), 0o644))
}

func TestInitializeAppliesDefaultsOverPartialYAML(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
database:
  dsn: "postgres://localhost/interviewer"
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/interviewer", cfg.Database.DSN)
	assert.Equal(t, 0.7, cfg.Scoring.TheoreticalWeight)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
}

func TestInitializeExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_DB_DSN", "postgres://env-host/interviewer")
	writeYAML(t, dir, `
database:
  dsn: "${TEST_DB_DSN}"
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-host/interviewer", cfg.Database.DSN)
}

func TestInitializeFailsValidationOnBadWeights(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, `
database:
  dsn: "postgres://localhost/interviewer"
scoring:
  theoretical_weight: 0.5
  speaking_weight: 0.2
`)

	_, err := Initialize(context.Background(), dir)
	assert.Error(t, err)
}

func TestInitializeMissingFileReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}
