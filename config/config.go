package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	Auth       AuthConfig
	Mail       MailConfig
	RabbitMQ   RabbitMQConfig
	PubSub     PubSubConfig
	CacheTTL   int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
	Debug    bool
}

// AuthConfig carries the token signing material and the permission
// policy location. Secret is mandatory; the server refuses to start
// without it.
type AuthConfig struct {
	Secret      string
	Issuer      string
	Audience    string
	TokenTTL    int // hours
	PolicyFile  string
	DefaultRole string
}

// MailConfig selects the mail dispatch backend and the SMTP endpoint
// used by the mail worker. Backend "none" disables dispatch entirely.
type MailConfig struct {
	Backend  string // rabbitmq | pubsub | none
	Domain   string // base URL embedded in registration links
	From     string
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "aionic"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "aionic_db"),
			UseSSL:   getEnvBool("DB_SSL", false),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		Auth: AuthConfig{
			Secret:      os.Getenv("JWT_SECRET"),
			Issuer:      getEnv("JWT_ISSUER", "aionic-api"),
			Audience:    getEnv("JWT_AUDIENCE", "aionic-api-client"),
			TokenTTL:    getEnvInt("TOKEN_TTL_HOURS", 8),
			PolicyFile:  getEnv("POLICY_FILE", "config/policies.json"),
			DefaultRole: getEnv("DEFAULT_ROLE", "User"),
		},
		Mail: MailConfig{
			Backend:  getEnv("MAIL_BACKEND", "none"),
			Domain:   getEnv("DOMAIN", "http://localhost:8080"),
			From:     getEnv("MAIL_FROM", "support@aionic.app"),
			SMTPHost: getEnv("SMTP_HOST", ""),
			SMTPPort: getEnvInt("SMTP_PORT", 587),
			SMTPUser: getEnv("SMTP_USERNAME", ""),
			SMTPPass: getEnv("SMTP_PASSWORD", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTODELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 1),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
		CacheTTL: getEnvInt("CACHE_TTL", 3600),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}
