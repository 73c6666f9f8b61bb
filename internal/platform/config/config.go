package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const defaultSeedPassword = "123"

type Config struct {
	Addr                string        `toml:"addr"`
	DatabaseURL         string        `toml:"database_url"`
	JWTSecret           string        `toml:"jwt_secret"`
	TokenTTL            time.Duration `toml:"token_ttl"`
	FrontendDir         string        `toml:"frontend_dir"`
	Environment         string        `toml:"environment"`
	AppBaseURL          string        `toml:"app_base_url"`
	AllowSelfSignup     bool          `toml:"allow_self_signup"`
	DefaultUserPassword string        `toml:"default_user_password"`
	SeedPassword        string        `toml:"seed_password"`
	EmailFrom           string        `toml:"email_from"`
	EmailEnabled        bool          `toml:"email_enabled"`
	SMTPHost            string        `toml:"smtp_host"`
	SMTPPort            int           `toml:"smtp_port"`
	SMTPUser            string        `toml:"smtp_user"`
	SMTPPassword        string        `toml:"smtp_password"`
	SMTPUseTLS          bool          `toml:"smtp_use_tls"`
	PasswordResetTTL    time.Duration `toml:"password_reset_ttl"`
	RunMigrations       bool          `toml:"run_migrations"`
	RunSeed             bool          `toml:"run_seed"`
	MaxBodyBytes        int64         `toml:"max_body_bytes"`
	RateLimitPerMinute  int           `toml:"rate_limit_per_minute"`
	MetricsEnabled      bool          `toml:"metrics_enabled"`
	RejectedEditable    bool          `toml:"rejected_editable"`

	MaintenanceInterval  time.Duration `toml:"maintenance_interval"`
	IdempotencyRetention time.Duration `toml:"idempotency_retention"`
}

func Defaults() Config {
	return Config{
		Addr:                ":8080",
		TokenTTL:            8 * time.Hour,
		FrontendDir:         "frontend/dist",
		Environment:         "development",
		AppBaseURL:          "http://localhost:8080",
		AllowSelfSignup:     true,
		DefaultUserPassword: defaultSeedPassword,
		SeedPassword:        defaultSeedPassword,
		EmailFrom:           "no-reply@example.com",
		SMTPPort:            587,
		SMTPUseTLS:          true,
		PasswordResetTTL:    2 * time.Hour,
		RunMigrations:       true,
		RunSeed:             true,
		MaxBodyBytes:        1048576,
		RateLimitPerMinute:  60,
		MetricsEnabled:      true,
		RejectedEditable:    true,

		MaintenanceInterval:  time.Hour,
		IdempotencyRetention: 24 * time.Hour,
	}
}

// Load reads CONFIG_FILE (when set) and then the environment.
func Load() Config {
	cfg, err := LoadFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config file ignored: %v\n", err)
		return applyEnv(Defaults())
	}
	return cfg
}

// LoadFile decodes a TOML file over the defaults. Environment variables win.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	cfg.Addr = getEnv("APP_ADDR", cfg.Addr)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", cfg.TokenTTL)
	cfg.FrontendDir = getEnv("FRONTEND_DIR", cfg.FrontendDir)
	cfg.Environment = getEnv("APP_ENV", cfg.Environment)
	cfg.AppBaseURL = getEnv("APP_BASE_URL", cfg.AppBaseURL)
	cfg.AllowSelfSignup = getEnvBool("ALLOW_SELF_SIGNUP", cfg.AllowSelfSignup)
	cfg.DefaultUserPassword = getEnv("DEFAULT_USER_PASSWORD", cfg.DefaultUserPassword)
	cfg.SeedPassword = getEnv("SEED_PASSWORD", cfg.SeedPassword)
	cfg.EmailFrom = getEnv("EMAIL_FROM", cfg.EmailFrom)
	cfg.EmailEnabled = getEnvBool("EMAIL_ENABLED", cfg.EmailEnabled)
	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnvInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = getEnv("SMTP_USER", cfg.SMTPUser)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPUseTLS = getEnvBool("SMTP_USE_TLS", cfg.SMTPUseTLS)
	cfg.PasswordResetTTL = getEnvDuration("PASSWORD_RESET_TTL", cfg.PasswordResetTTL)
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", cfg.RunMigrations)
	cfg.RunSeed = getEnvBool("RUN_SEED", cfg.RunSeed)
	cfg.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(cfg.MaxBodyBytes)))
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.RejectedEditable = getEnvBool("REJECTED_EDITABLE", cfg.RejectedEditable)
	cfg.MaintenanceInterval = getEnvDuration("MAINTENANCE_INTERVAL", cfg.MaintenanceInterval)
	cfg.IdempotencyRetention = getEnvDuration("IDEMPOTENCY_RETENTION", cfg.IdempotencyRetention)
	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && c.SeedPassword == defaultSeedPassword {
			return fmt.Errorf("SEED_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
