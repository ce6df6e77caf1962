package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "ePaisa"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultSMSTimeout      = 10 * time.Second
	defaultCountryPrefix   = "91"
	defaultContentPrefix   = 5
	defaultCipherMode      = "ecb"
	defaultInboundLimit    = 30
	defaultCBDCBaseURL     = "https://api.apixplatform.com/cbdc/hackathon"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	EncryptionKey       string
	CipherMode          string
	CountryPrefix       string
	ContentPrefixLength int
	InboundRateLimit    int

	TextlocalAPIKey string
	TextlocalURL    string
	TextlocalSender string
	SMSTimeout      time.Duration

	CBDCAPIKey  string
	CBDCBaseURL string
}

// Load reads an optional .env file, then the environment, and populates a Config.
func Load() (Config, error) {
	// Missing .env is the normal case in deployed environments.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ShutdownPeriod:  defaultShutdownDelay,
		IdempotencyTTL:  defaultIdempotencyTTL,
		EncryptionKey:   os.Getenv("ENCRYPTION_KEY"),
		CipherMode:      strings.ToLower(getEnv("CIPHER_MODE", defaultCipherMode)),
		CountryPrefix:   getEnv("COUNTRY_PREFIX", defaultCountryPrefix),
		TextlocalAPIKey: os.Getenv("TEXTLOCAL_APIKEY"),
		TextlocalURL:    os.Getenv("TEXTLOCAL_URL"),
		TextlocalSender: os.Getenv("TEXTLOCAL_SENDER"),
		SMSTimeout:      defaultSMSTimeout,
		CBDCAPIKey:      os.Getenv("CBDC_API_KEY"),
		CBDCBaseURL:     getEnv("CBDC_BASE_URL", defaultCBDCBaseURL),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.SMSTimeout, err = durationEnv("SMS_TIMEOUT_SECONDS", "SMS_TIMEOUT", defaultSMSTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ContentPrefixLength, err = intEnv("CONTENT_PREFIX_LENGTH", defaultContentPrefix); err != nil {
		return Config{}, err
	}
	if cfg.InboundRateLimit, err = intEnv("INBOUND_RATE_LIMIT", defaultInboundLimit); err != nil {
		return Config{}, err
	}

	if cfg.EncryptionKey == "" {
		return Config{}, fmt.Errorf("ENCRYPTION_KEY must be set")
	}
	switch len(cfg.EncryptionKey) {
	case 16, 24, 32:
	default:
		return Config{}, fmt.Errorf("ENCRYPTION_KEY must be 16, 24 or 32 bytes, got %d", len(cfg.EncryptionKey))
	}
	if cfg.ContentPrefixLength < 0 {
		return Config{}, fmt.Errorf("CONTENT_PREFIX_LENGTH must not be negative")
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether in-memory backends may stand in for Postgres and Redis.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
