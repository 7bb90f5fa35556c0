package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	AuthModeNone     = "none"
	AuthModeJWT      = "jwt"
	AuthModeFirebase = "firebase"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string

	LogLevel  string
	LogFormat string

	// Status monitor
	MonitorSchedule string
	MonitorTimezone string
	MonitorLockTTL  time.Duration

	// Notification dispatch
	NotifyWorkers   int
	NotifyQueueSize int
	NotifyTimeout   time.Duration

	FirebaseCredentialsFile string

	AuthMode  string
	JWTSecret string

	StreamDevicePort string
	StreamTimeout    time.Duration

	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTTopicPrefix string
	MQTTUsername    string
	MQTTPassword    string
}

func LoadConfig() (*Config, error) {
	lockTTL, err := getDuration("MONITOR_LOCK_TTL", "4m")
	if err != nil {
		return nil, err
	}
	notifyTimeout, err := getDuration("NOTIFY_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	streamTimeout, err := getDuration("STREAM_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	workers, err := getInt("NOTIFY_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	queueSize, err := getInt("NOTIFY_QUEUE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "json"),
		MonitorSchedule:         getEnv("MONITOR_SCHEDULE", "*/5 * * * *"),
		MonitorTimezone:         getEnv("MONITOR_TIMEZONE", "America/Toronto"),
		MonitorLockTTL:          lockTTL,
		NotifyWorkers:           workers,
		NotifyQueueSize:         queueSize,
		NotifyTimeout:           notifyTimeout,
		FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		AuthMode:                getEnv("AUTH_MODE", AuthModeNone),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		StreamDevicePort:        getEnv("STREAM_DEVICE_PORT", "8000"),
		StreamTimeout:           streamTimeout,
		MQTTBrokerURL:           os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:            getEnv("MQTT_CLIENT_ID", "realmail-server"),
		MQTTTopicPrefix:         getEnv("MQTT_TOPIC_PREFIX", "realmail"),
		MQTTUsername:            os.Getenv("MQTT_USERNAME"),
		MQTTPassword:            os.Getenv("MQTT_PASSWORD"),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.MonitorLockTTL <= 0 {
		return nil, errors.New("MONITOR_LOCK_TTL must be positive")
	}
	if cfg.NotifyWorkers < 1 {
		return nil, errors.New("NOTIFY_WORKERS must be at least 1")
	}
	if cfg.NotifyQueueSize < 1 {
		return nil, errors.New("NOTIFY_QUEUE_SIZE must be at least 1")
	}
	if _, err := time.LoadLocation(cfg.MonitorTimezone); err != nil {
		return nil, fmt.Errorf("invalid MONITOR_TIMEZONE: %w", err)
	}

	switch cfg.AuthMode {
	case AuthModeNone, AuthModeFirebase:
	case AuthModeJWT:
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return nil, fmt.Errorf("invalid AUTH_MODE %q", cfg.AuthMode)
	}
	if cfg.AuthMode == AuthModeFirebase && cfg.FirebaseCredentialsFile == "" {
		return nil, errors.New("FIREBASE_CREDENTIALS_FILE is required when AUTH_MODE=firebase")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s format", key)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format", key)
	}
	return n, nil
}
