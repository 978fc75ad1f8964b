package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Study     StudyConfig     `mapstructure:"study" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig selects the storage backend and sizes its connection pool.
// Driver "postgres" expects a pgx connection URL; driver "sqlite" expects a
// modernc.org/sqlite DSN such as "file:studydeck.db".
type DatabaseConfig struct {
	Driver                 string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL                    string `mapstructure:"url" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=1"`
}

// AuthConfig contains bearer-token settings. Tokens are issued by the identity
// collaborator; this service only validates them (and mints dev tokens).
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=44640"`
}

// StudyConfig holds the scheduling-engine knobs.
type StudyConfig struct {
	DefaultLimit       int `mapstructure:"default_limit" validate:"required,gt=0"`
	MaxLimit           int `mapstructure:"max_limit" validate:"required,gtefield=DefaultLimit"`
	MaxConflictRetries int `mapstructure:"max_conflict_retries" validate:"gte=0,lte=20"`
	MaxIntervalDays    int `mapstructure:"max_interval_days" validate:"gte=6,lte=36500"`
}

// RateLimitConfig configures the per-user token bucket in front of the API.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int     `mapstructure:"burst" validate:"gt=0"`
}

// RedisConfig enables the shared review counter. An empty Addr keeps the
// counter in process memory.
type RedisConfig struct {
	Addr      string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `mapstructure:"key_prefix" validate:"required_with=Addr"`
}
