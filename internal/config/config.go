package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	StoreDriver    string // "dynamo" | "memory"
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTSecret         string
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	BcryptCost        int

	Notifier      string // "smtp" | "mailgun" | "sns" | "log"
	SMTPHost      string
	SMTPPort      string
	SMTPFrom      string
	SMTPUsername  string
	SMTPPassword  string
	MailgunDomain string
	MailgunAPIKey string
	MailgunSender string
	SNSRegion     string
	SNSTopicARN   string

	PublicBaseURL      string // prefix for verification links
	ConfirmRedirectURL string // where a successful confirmation lands
	AllowedOrigins     []string
	TrustProxy         bool // honor X-Forwarded-For / X-Real-IP from a fronting proxy

	RateLimitRPS    float64
	RateLimitBurst  int
	RedisAddr       string // enables the shared limiter when set
	RedisPassword   string
	RedisDB         int
	RateLimitWindow time.Duration
	RateLimitMax    int

	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Credentials      string
	CredentialEmails string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreDriver:    getEnv("STORE_DRIVER", "dynamo"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Credentials:      getEnv("DYNAMO_TABLE_CREDENTIALS", "credentials"),
			CredentialEmails: getEnv("DYNAMO_TABLE_CREDENTIAL_EMAILS", "credential_emails"),
		},

		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", ""),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 10*24*time.Hour),
		BcryptCost:        getEnvInt("BCRYPT_COST", 10),

		Notifier:      getEnv("NOTIFIER", "smtp"),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		SMTPFrom:      getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		MailgunDomain: getEnv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey: getEnv("MAILGUN_API_KEY", ""),
		MailgunSender: getEnv("MAILGUN_SENDER", ""),
		SNSRegion:     getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN:   getEnv("SNS_TOPIC_ARN", ""),

		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		ConfirmRedirectURL: strings.TrimRight(getEnv("CONFIRM_REDIRECT_URL", "http://localhost:5173"), "/"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
		TrustProxy:         getEnvBool("TRUST_PROXY", false),

		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 100.0/60.0),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 100),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 100),

		StoreTimeout:  getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		NotifyTimeout: getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
	}
}

// IsDevelopment reports whether the service runs with local defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
