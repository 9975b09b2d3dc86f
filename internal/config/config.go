package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// QueueConfig holds settings for the scale-up request queue.
// When URL is empty the queue is disabled and publishes become no-ops.
type QueueConfig struct {
	URL            string
	Subject        string
	WorkerFunction string
}

// RelayConfig holds the timing knobs of the relay/coordination flow.
//
// BroadcastDelay paces the time-ready broadcast after a timestamp is stored.
// ConsistencyAttempts and ConsistencyInterval bound the existence re-check
// loop that runs after a client reports an upload complete.
type RelayConfig struct {
	BroadcastDelay      time.Duration
	ConsistencyAttempts int
	ConsistencyInterval time.Duration
	UploadURLTTL        time.Duration
	DownloadURLTTL      time.Duration
	InlineJobPayload    bool
}

// AuthConfig holds optional bearer-token validation settings.
// Auth is disabled unless JWTSecret is set.
type AuthConfig struct {
	JWTSecret string
	Audience  string
	Issuer    string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Queue    QueueConfig
	Relay    RelayConfig
	Auth     AuthConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Queue: QueueConfig{
			URL:            getEnv("NATS_URL", ""),
			Subject:        getEnv("QUEUE_SUBJECT", "relay.scale-up"),
			WorkerFunction: getEnv("WORKER_FUNCTION", ""),
		},
		Relay: RelayConfig{
			BroadcastDelay:      getEnvDurationMS("RELAY_BROADCAST_DELAY_MS", 5000),
			ConsistencyAttempts: getEnvInt("RELAY_CONSISTENCY_ATTEMPTS", 5),
			ConsistencyInterval: getEnvDurationMS("RELAY_CONSISTENCY_INTERVAL_MS", 1000),
			UploadURLTTL:        getEnvDurationSec("RELAY_UPLOAD_URL_TTL_SEC", 90),
			DownloadURLTTL:      getEnvDurationSec("RELAY_DOWNLOAD_URL_TTL_SEC", 300),
			InlineJobPayload:    getEnvBool("RELAY_INLINE_JOB_PAYLOAD", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Audience:  getEnv("AUTH_AUDIENCE", ""),
			Issuer:    getEnv("AUTH_ISSUER", ""),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDurationMS(key string, defMS int) time.Duration {
	return time.Duration(getEnvInt(key, defMS)) * time.Millisecond
}

func getEnvDurationSec(key string, defSec int) time.Duration {
	return time.Duration(getEnvInt(key, defSec)) * time.Second
}
