package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"swimintake/internal/validation"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	Debug           bool
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SessionDuration time.Duration
	TemplatesPath   string
	CatalogPath     string

	// Mail
	MailTransport string
	MailFromName  string
	IntakeToEmail string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	AWSRegion     string
	SESFromEmail  string

	// Optional infrastructure
	RedisURL         string
	RabbitMQURI      string
	RabbitMQExchange string

	// Security
	CSRFSecret        string
	JWTSecret         string
	StaffPasswordHash string
	RateLimit         int
	RateWindow        time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present; real
// environment variables take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		ServerPort:    getEnv("PORT", "8080"),
		Debug:         getEnvBool("DEBUG", false),
		DatabaseType:  getEnv("DB_TYPE", "sqlite"),
		DatabasePath:  getEnv("DB_PATH", "./swimintake.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		TemplatesPath: getEnv("TEMPLATES_PATH", "./internal/templates"),
		CatalogPath:   getEnv("CATALOG_PATH", ""),

		MailTransport: strings.ToLower(getEnv("MAIL_TRANSPORT", "smtp")),
		MailFromName:  getEnv("MAIL_FROM_NAME", "Intake App"),
		IntakeToEmail: strings.TrimSpace(getEnv("INTAKE_TO_EMAIL", "")),
		SMTPHost:      strings.TrimSpace(getEnv("SMTP_HOST", "smtp.gmail.com")),
		SMTPUser:      strings.TrimSpace(getEnv("SMTP_USER", "")),
		SMTPPass:      strings.TrimSpace(getEnv("SMTP_PASS", "")),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:  getEnv("SES_FROM_EMAIL", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		RabbitMQURI:      getEnv("RABBITMQ_URI", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "intake.events"),

		CSRFSecret:        getEnv("CSRF_SECRET", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		StaffPasswordHash: getEnv("STAFF_PASSWORD_HASH", ""),
	}

	var err error
	if cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 465); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getEnvInt("RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.SessionDuration, err = getEnvDuration("SESSION_DURATION", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateWindow, err = getEnvDuration("RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first setting that would stop the server from working
func (c *Config) Validate() error {
	switch c.MailTransport {
	case "smtp":
		if c.SMTPUser == "" {
			return errors.New("missing env var: SMTP_USER")
		}
		if c.SMTPPass == "" {
			return errors.New("missing env var: SMTP_PASS")
		}
	case "ses":
		if c.SESFromEmail == "" {
			return errors.New("missing env var: SES_FROM_EMAIL")
		}
	case "log":
	default:
		return fmt.Errorf("unsupported MAIL_TRANSPORT: %s", c.MailTransport)
	}
	if c.IntakeToEmail == "" {
		return errors.New("missing env var: INTAKE_TO_EMAIL")
	}
	if err := validation.ValidateEmail(c.IntakeToEmail); err != nil {
		return fmt.Errorf("INTAKE_TO_EMAIL: %w", err)
	}
	switch strings.ToLower(c.DatabaseType) {
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for DB_TYPE=%s", c.DatabaseType)
		}
	}
	if c.SessionDuration <= 0 {
		return errors.New("SESSION_DURATION must be positive")
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return errors.New("RATE_LIMIT and RATE_WINDOW must be positive")
	}
	return nil
}

// StaffEnabled reports whether the staff pages can be served
func (c *Config) StaffEnabled() bool {
	return c.StaffPasswordHash != "" && c.JWTSecret != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
