// Package config loads service configuration from YAML and the environment.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Security SecurityConfig `yaml:"security"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
	// Mode is gin's mode: debug, release or test.
	Mode string `yaml:"mode" env:"GIN_MODE" env-default:"release"`
	// IdempotencyTTL is how long Idempotency-Key responses are kept. Zero disables replay.
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl" env:"IDEMPOTENCY_TTL" env-default:"24h"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_URL"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"20"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	// AutoMigrate applies embedded migrations at startup.
	AutoMigrate bool `yaml:"auto_migrate" env:"DATABASE_AUTO_MIGRATE" env-default:"true"`
}

// AuthConfig holds token and password settings.
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"         env:"JWT_SECRET"             env-required:"true"`
	JWTIssuer        string        `yaml:"jwt_issuer"         env:"JWT_ISSUER"             env-default:"works"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"   env:"AUTH_ACCESS_TOKEN_TTL"  env-default:"15m"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl"  env:"AUTH_REFRESH_TOKEN_TTL" env-default:"168h"`
	BcryptCost       int           `yaml:"bcrypt_cost"        env:"AUTH_BCRYPT_COST"       env-default:"10"`
	MaxLoginAttempts int           `yaml:"max_login_attempts" env:"AUTH_MAX_LOGIN_ATTEMPTS" env-default:"5"`
	LockDuration     time.Duration `yaml:"lock_duration"      env:"AUTH_LOCK_DURATION"     env-default:"15m"`
	PasswordMinLen   int           `yaml:"password_min_len"   env:"AUTH_PASSWORD_MIN_LEN"  env-default:"8"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level       string `yaml:"level"       env:"LOG_LEVEL" env-default:"info"`
	Development bool   `yaml:"development" env:"LOG_DEV"   env-default:"false"`
}

// SecurityConfig holds authorization settings.
type SecurityConfig struct {
	MaxHierarchyDepth int           `yaml:"max_hierarchy_depth" env:"SECURITY_MAX_HIERARCHY_DEPTH" env-default:"2"`
	UserCacheSize     int           `yaml:"user_cache_size"     env:"SECURITY_USER_CACHE_SIZE"     env-default:"1024"`
	UserCacheTTL      time.Duration `yaml:"user_cache_ttl"      env:"SECURITY_USER_CACHE_TTL"      env-default:"1m"`
}

// WorkflowConfig holds extra transition guard rules. Rules are only
// readable from YAML.
type WorkflowConfig struct {
	Guards []GuardRule `yaml:"guards"`
}

// GuardRule is a CEL expression that must hold for a transition to proceed.
type GuardRule struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
	Expr   string `yaml:"expr"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path"    env:"METRICS_PATH"    env-default:"/metrics"`
}

// WorkerConfig drives the one-shot housekeeping command.
type WorkerConfig struct {
	// NotificationRetention is how long read notifications are kept. Zero keeps them forever.
	NotificationRetention time.Duration `yaml:"notification_retention" env:"WORKER_NOTIFICATION_RETENTION" env-default:"720h"`
	// Timeout bounds a whole run.
	Timeout time.Duration `yaml:"timeout" env:"WORKER_TIMEOUT" env-default:"5m"`
}
