package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort           string
	AppEnv            string
	AWSRegion         string
	AWSEndpointURL    string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID    string
	AWSSecretKey      string
	AWSMaxAttempts    int
	DynamoTables      DynamoTables
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	JWTIssuer         string   // empty accepts any issuer
	AllowedOrigins    []string // CORS and websocket Origin allow-list
	WS                WebSocket
	NATSURL           string // empty disables the cluster relay
	NATSSubject       string
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Workspaces    string
	Channels      string
	Messages      string
	Memberships   string
	Notifications string
}

// WebSocket holds per-connection transport limits.
type WebSocket struct {
	OutboxSize      int
	WriteWait       time.Duration
	PongWait        time.Duration
	MaxMessageSize  int64
	EventsPerSecond float64
	EventBurst      int
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSMaxAttempts: getEnvInt("AWS_MAX_ATTEMPTS", 5),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Workspaces:    getEnv("DYNAMO_TABLE_WORKSPACES", "workspaces"),
			Channels:      getEnv("DYNAMO_TABLE_CHANNELS", "channels"),
			Messages:      getEnv("DYNAMO_TABLE_MESSAGES", "messages"),
			Memberships:   getEnv("DYNAMO_TABLE_MEMBERSHIPS", "memberships"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
		},
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),
		JWTIssuer:         getEnv("JWT_ISSUER", ""),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		WS: WebSocket{
			OutboxSize:      getEnvInt("WS_OUTBOX_SIZE", 256),
			WriteWait:       getEnvDuration("WS_WRITE_WAIT", 10*time.Second),
			PongWait:        getEnvDuration("WS_PONG_WAIT", 60*time.Second),
			MaxMessageSize:  int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 8192)),
			EventsPerSecond: getEnvFloat("WS_EVENTS_PER_SECOND", 20),
			EventBurst:      getEnvInt("WS_EVENT_BURST", 40),
		},
		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "realtime.fanout"),
	}
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
