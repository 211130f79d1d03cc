package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "this-is-a-very-long-jwt-secret-for-testing-32+"

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/works")
	t.Setenv("JWT_SECRET", testSecret)
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
server:
  port: 9090
  read_timeout: "5s"
database:
  dsn: "postgres://u:p@localhost:5432/works"
  max_conns: 10
auth:
  jwt_secret: "this-is-a-very-long-jwt-secret-for-testing-32+"
  access_token_ttl: "10m"
security:
  max_hierarchy_depth: 3
workflow:
  guards:
    - name: big-budgets-need-admin
      kind: sales_budget
      target: approved
      expr: "record.total_value < 500000.0 || actor.role == 'admin'"
`

func TestLoad_ValidYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, validYAML))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, 10*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenTTL, "default applies")
	assert.Equal(t, 3, cfg.Security.MaxHierarchyDepth)
	require.Len(t, cfg.Workflow.Guards, 1)
	assert.Equal(t, "approved", cfg.Workflow.Guards[0].Target)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, validYAML))
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_EnvOnly(t *testing.T) {
	validEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "works", cfg.Auth.JWTIssuer)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{MaxConns: 10, MinConns: 1},
			Auth: AuthConfig{
				JWTSecret: testSecret, BcryptCost: 10,
				AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour,
			},
			Security: SecurityConfig{MaxHierarchyDepth: 2},
			Metrics:  MetricsConfig{Enabled: true, Path: "/metrics"},
			Worker:   WorkerConfig{Timeout: time.Minute},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }},
		{"bcrypt cost", func(c *Config) { c.Auth.BcryptCost = 2 }},
		{"ttl order", func(c *Config) { c.Auth.RefreshTokenTTL = time.Second }},
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"conns", func(c *Config) { c.Database.MinConns = 20 }},
		{"depth", func(c *Config) { c.Security.MaxHierarchyDepth = 0 }},
		{"guard", func(c *Config) { c.Workflow.Guards = []GuardRule{{Name: "x"}} }},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"worker timeout", func(c *Config) { c.Worker.Timeout = 0 }},
		{"negative idempotency ttl", func(c *Config) { c.Server.IdempotencyTTL = -time.Second }},
	}

	ok := base()
	require.NoError(t, ok.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
