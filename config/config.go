// config/config.go - Application configuration
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. It is loaded once in main and passed
// into constructors; nothing reads the environment after startup.
type Config struct {
	Port        string
	AppEnv      string
	CORSOrigins string

	DatabaseDSN string

	AccessTokenSecret  string
	RefreshTokenSecret string
	EmailTokenSecret   string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	EmailTokenTTL      time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	// Base URL embedded in verification links sent by mail.
	BaseURL string

	HuggingFaceToken string
	AIModel          string

	RateLimitEnabled    bool
	RateLimitMax        int
	RateLimitWindow     time.Duration
	AuthRateLimitMax    int
	AuthRateLimitWindow time.Duration
}

// Load reads .env (if present) and the process environment into a Config.
// It fails when the token secrets are missing, too short, or shared between
// token kinds.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		AppEnv:      getEnv("APP_ENV", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		DatabaseDSN: databaseDSN(),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		EmailTokenSecret:   os.Getenv("EMAIL_TOKEN_SECRET"),
		AccessTokenTTL:     getEnvDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL:    getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		EmailTokenTTL:      getEnvDuration("EMAIL_TOKEN_TTL", 24*time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		BaseURL: getEnv("BASE_URL", "http://localhost:8000"),

		HuggingFaceToken: os.Getenv("HUGGINGFACE_API_TOKEN"),
		AIModel:          getEnv("AI_MODEL", "Qwen/Qwen2.5-7B-Instruct"),

		RateLimitEnabled:    getEnv("RATE_LIMIT_ENABLED", "true") != "false",
		RateLimitMax:        getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow:     getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		AuthRateLimitMax:    getEnvInt("AUTH_RATE_LIMIT_MAX", 5),
		AuthRateLimitWindow: getEnvDuration("AUTH_RATE_LIMIT_WINDOW", 5*time.Minute),
	}

	if err := cfg.validateSecrets(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateSecrets() error {
	secrets := map[string]string{
		"ACCESS_TOKEN_SECRET":  c.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET": c.RefreshTokenSecret,
		"EMAIL_TOKEN_SECRET":   c.EmailTokenSecret,
	}

	for name, secret := range secrets {
		if secret == "" {
			return fmt.Errorf("%s must be set. Generate one with: openssl rand -base64 64", name)
		}
		if len(secret) < 32 {
			return fmt.Errorf("%s must be at least 32 characters long", name)
		}
	}

	// A leaked secret for one token kind must not forge the others.
	if c.AccessTokenSecret == c.RefreshTokenSecret ||
		c.AccessTokenSecret == c.EmailTokenSecret ||
		c.RefreshTokenSecret == c.EmailTokenSecret {
		return fmt.Errorf("token secrets must be distinct per token kind")
	}

	return nil
}

func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	// Fallback to individual parameters
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "")
	dbname := getEnv("DB_NAME", "lifequest")
	sslmode := getEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
