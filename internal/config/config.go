package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Auth modes.
const (
	AuthLocal = "local"
	AuthJWT   = "jwt"
)

// User-state backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Response cache modes.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheOff    = "off"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	AuthMode       string `mapstructure:"AUTH_MODE"`
	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL    string `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`
	LocalUser      string `mapstructure:"LOCAL_USER"`

	DataDir      string `mapstructure:"DATA_DIR"`
	DataS3Bucket string `mapstructure:"DATA_S3_BUCKET"`
	DataS3Prefix string `mapstructure:"DATA_S3_PREFIX"`

	StateBackend    string `mapstructure:"STATE_BACKEND"`
	StateSQLitePath string `mapstructure:"STATE_SQLITE_PATH"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32  `mapstructure:"DB_MIN_CONNS"`
	RedisURL        string `mapstructure:"REDIS_URL"`

	ResponseCache    string        `mapstructure:"RESPONSE_CACHE"`
	ResponseCacheTTL time.Duration `mapstructure:"RESPONSE_CACHE_TTL"`

	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`

	MedicationSearchThreshold float64 `mapstructure:"MEDICATION_SEARCH_THRESHOLD"`
	GuidelineSearchThreshold  float64 `mapstructure:"GUIDELINE_SEARCH_THRESHOLD"`
	CriteriaSearchThreshold   float64 `mapstructure:"CRITERIA_SEARCH_THRESHOLD"`
	AuditCutoff               int     `mapstructure:"AUDIT_CUTOFF"`
	PCPTSD5Cutoff             int     `mapstructure:"PCPTSD5_CUTOFF"`

	TLSEnabled  bool   `mapstructure:"TLS_ENABLED"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`
}

var defaults = map[string]any{
	"PORT":                        "8000",
	"ENV":                         "development",
	"LOG_LEVEL":                   "info",
	"AUTH_MODE":                   "", // inferred from ENV
	"LOCAL_USER":                  "local",
	"DATA_S3_PREFIX":              "corpus",
	"STATE_BACKEND":               BackendSQLite,
	"STATE_SQLITE_PATH":           "medref-state.db",
	"DB_MAX_CONNS":                10,
	"DB_MIN_CONNS":                1,
	"RESPONSE_CACHE":              CacheMemory,
	"RESPONSE_CACHE_TTL":          "5m",
	"CORS_ORIGINS":                "http://localhost:3000",
	"RATE_LIMIT_RPS":              50,
	"RATE_LIMIT_BURST":            100,
	"REQUEST_TIMEOUT":             "15s",
	"BODY_LIMIT":                  "256K",
	"MEDICATION_SEARCH_THRESHOLD": 0.4,
	"GUIDELINE_SEARCH_THRESHOLD":  0.4,
	"CRITERIA_SEARCH_THRESHOLD":   0.3,
	"AUDIT_CUTOFF":                8,
	"PCPTSD5_CUTOFF":              3,
}

var envOnly = []string{
	"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL", "AUTH_SIGNING_KEY",
	"DATA_DIR", "DATA_S3_BUCKET", "DATABASE_URL", "REDIS_URL",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

// Load reads the environment and an optional .env file in the working
// directory. It does not validate; call Validate before using the result.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path. A missing file is not
// an error.
func LoadFile(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
		v.BindEnv(key)
	}
	for _, key := range envOnly {
		v.BindEnv(key)
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.StateBackend = strings.ToLower(strings.TrimSpace(cfg.StateBackend))
	cfg.ResponseCache = strings.ToLower(strings.TrimSpace(cfg.ResponseCache))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns AUTH_MODE when set. Otherwise development runs
// as the fixed local user and every other environment requires bearer
// tokens.
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return AuthLocal
	}
	return AuthJWT
}

// ZerologLevel parses LOG_LEVEL, defaulting to info.
func (c *Config) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	switch mode := c.ResolvedAuthMode(); mode {
	case AuthLocal:
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE %q is not allowed in production", AuthLocal)
		}
		if strings.TrimSpace(c.LocalUser) == "" {
			return fmt.Errorf("LOCAL_USER must be set when AUTH_MODE is %q", AuthLocal)
		}
	case AuthJWT:
		if c.AuthSigningKey == "" && c.AuthJWKSURL == "" && c.AuthIssuer == "" {
			return fmt.Errorf("AUTH_MODE %q needs AUTH_SIGNING_KEY, AUTH_JWKS_URL or AUTH_ISSUER", AuthJWT)
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthLocal, AuthJWT, mode)
	}

	for name, v := range map[string]float64{
		"MEDICATION_SEARCH_THRESHOLD": c.MedicationSearchThreshold,
		"GUIDELINE_SEARCH_THRESHOLD":  c.GuidelineSearchThreshold,
		"CRITERIA_SEARCH_THRESHOLD":   c.CriteriaSearchThreshold,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %g", name, v)
		}
	}
	if c.AuditCutoff < 1 || c.AuditCutoff > 14 {
		return fmt.Errorf("AUDIT_CUTOFF must be between 1 and 14, got %d", c.AuditCutoff)
	}
	if c.PCPTSD5Cutoff < 1 || c.PCPTSD5Cutoff > 5 {
		return fmt.Errorf("PCPTSD5_CUTOFF must be between 1 and 5, got %d", c.PCPTSD5Cutoff)
	}

	switch c.StateBackend {
	case BackendSQLite:
		if c.StateSQLitePath == "" {
			return fmt.Errorf("STATE_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STATE_BACKEND must be one of sqlite, postgres, redis, memory, got %q", c.StateBackend)
	}

	switch c.ResponseCache {
	case CacheMemory, CacheOff:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis response cache")
		}
	default:
		return fmt.Errorf("RESPONSE_CACHE must be one of memory, redis, off, got %q", c.ResponseCache)
	}
	if c.ResponseCache != CacheOff && c.ResponseCacheTTL <= 0 {
		return fmt.Errorf("RESPONSE_CACHE_TTL must be positive, got %s", c.ResponseCacheTTL)
	}

	if c.DataDir != "" && c.DataS3Bucket != "" {
		return fmt.Errorf("DATA_DIR and DATA_S3_BUCKET are mutually exclusive")
	}

	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
