package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDotEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDotEnv_ParsesAndKeepsExisting(t *testing.T) {
	t.Setenv("RC_KEEP", "already")
	os.Unsetenv("RC_A")
	os.Unsetenv("RC_B")
	os.Unsetenv("RC_C")
	os.Unsetenv("RC_PORT")
	t.Cleanup(func() {
		os.Unsetenv("RC_A")
		os.Unsetenv("RC_B")
		os.Unsetenv("RC_C")
		os.Unsetenv("RC_PORT")
	})

	path := writeDotEnv(t, `
# comment
RC_A=one
export RC_B='two'
RC_C="three"
RC_PORT=8080 # http port
RC_KEEP=fromfile
`)
	require.NoError(t, loadDotEnv(path))

	assert.Equal(t, "one", os.Getenv("RC_A"))
	assert.Equal(t, "two", os.Getenv("RC_B"))
	assert.Equal(t, "three", os.Getenv("RC_C"))
	assert.Equal(t, "8080", os.Getenv("RC_PORT"))
	assert.Equal(t, "already", os.Getenv("RC_KEEP"))
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("DOTENV_PATH", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("APP_PORT", "9090")
	t.Setenv("IDEMPOTENCY_TTL", "2h")
	t.Setenv("AUTH_REQUIRED", "false")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("DB_MIN_CONNS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 20, cfg.DBMaxConns)
	assert.False(t, cfg.AuthRequired)
}

func TestLoad_AuthNeedsSecret(t *testing.T) {
	t.Setenv("DOTENV_PATH", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_NumberingStrategy(t *testing.T) {
	t.Setenv("DOTENV_PATH", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("AUTH_REQUIRED", "false")

	t.Setenv("NUMBERING_STRATEGY", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "strict", cfg.NumberingStrategy)

	t.Setenv("NUMBERING_STRATEGY", "random")
	_, err = Load()
	assert.ErrorContains(t, err, "NUMBERING_STRATEGY")
}

func TestLoad_ApproverRoles(t *testing.T) {
	t.Setenv("DOTENV_PATH", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("AUTH_REQUIRED", "false")

	t.Setenv("APPROVER_ROLES", " sales-head, ,costing-lead ")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "APPROVER_ROLES")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"sales-head", "costing-lead"}, cfg.ApproverRoles)
}
