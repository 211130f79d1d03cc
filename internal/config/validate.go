package config

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Validate checks cross-field rules. Load calls it.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		return fmt.Errorf("auth: refresh_token_ttl must exceed access_token_ttl")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Security.MaxHierarchyDepth < 1 {
		return fmt.Errorf("security.max_hierarchy_depth must be >= 1")
	}
	if c.Security.UserCacheSize < 0 {
		return fmt.Errorf("security.user_cache_size must be >= 0")
	}
	for i, g := range c.Workflow.Guards {
		if strings.TrimSpace(g.Name) == "" || strings.TrimSpace(g.Expr) == "" {
			return fmt.Errorf("workflow.guards[%d]: name and expr are required", i)
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	if c.Server.IdempotencyTTL < 0 {
		return fmt.Errorf("server.idempotency_ttl must not be negative")
	}
	if c.Worker.Timeout <= 0 {
		return fmt.Errorf("worker timeout must be positive")
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
