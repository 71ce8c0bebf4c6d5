package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the whole application configuration, read once at startup.
// Gateway credentials are injected into the PayOS client and the signature
// verifier from here; nothing reads them ambiently.
type Config struct {
	Port string

	// DatabaseURL takes precedence over the POSTGRES_* block when set.
	DatabaseURL string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int

	JWTSecret string

	// PayOS gateway
	PayosClientID    string
	PayosAPIKey      string
	PayosChecksumKey string
	PayosBaseURL     string
	// Dev-only escape hatch: accept webhooks without a checksum key.
	PayosInsecureSkipVerify bool

	FrontendURL string // default return/cancel URLs for payment links

	// SMTP for order notifications (optional; empty host disables delivery)
	SMTPHost string
	SMTPPort int
	SMTPFrom string

	LogLevel  string // debug/info/warn/error
	LogFormat string // json or console

	GoEnv string // dev/prod
}

// Load reads the environment. Required variables fail fast. The POSTGRES_*
// block is only consulted when DATABASE_URL is unset, so it is only required
// then.
func Load() (Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")

	pgPort := 0
	if databaseURL == "" {
		var err error
		pgPort, err = mustAtoi("POSTGRES_PORT")
		if err != nil {
			return Config{}, err
		}
	} else {
		pgPort = atoiOr("POSTGRES_PORT", 0)
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		DatabaseURL: databaseURL,

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		PayosClientID:           os.Getenv("PAYOS_CLIENT_ID"),
		PayosAPIKey:             os.Getenv("PAYOS_API_KEY"),
		PayosChecksumKey:        os.Getenv("PAYOS_CHECKSUM_KEY"),
		PayosBaseURL:            getenv("PAYOS_BASE_URL", "https://api-merchant.payos.vn"),
		PayosInsecureSkipVerify: os.Getenv("PAYOS_INSECURE_SKIP_VERIFY") == "true",

		FrontendURL: getenv("FRONTEND_URL", "http://localhost:5175"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: atoiOr("SMTP_PORT", 587),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		GoEnv: getenv("GO_ENV", "dev"),
	}

	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	// Skipping webhook verification is never allowed outside dev.
	if cfg.PayosInsecureSkipVerify && cfg.GoEnv == "prod" {
		return Config{}, fmt.Errorf("PAYOS_INSECURE_SKIP_VERIFY is not allowed in prod")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func atoiOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
