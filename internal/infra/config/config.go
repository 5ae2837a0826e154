package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendMySQL  = "mysql"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	HTTPAddr string
	Backend  string

	MongoURI  string
	MongoDB   string
	MySQLDSN  string
	DBTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
	BcryptCost    int

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	IdempotencyTTL     time.Duration

	S3Endpoint       string
	S3PublicEndpoint string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	AdminEmail   string

	PriceTolerance int64
	NotifyTimeout  time.Duration
	CompletionCron string
	VillaFixtures  string
	CORSOrigins    []string
}

// Load reads an optional .env file and parses configuration from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		Backend:          strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "villarent"),
		MySQLDSN:         os.Getenv("MYSQL_DSN"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3PublicEndpoint: getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "villa-photos"),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:         getEnv("SMTP_FROM", "no-reply@villarent.local"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		CompletionCron:   getEnv("COMPLETION_CRON", "0 5 0 * * *"),
		VillaFixtures:    os.Getenv("VILLA_FIXTURES"),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.DBTimeout, err = parseDurationEnv("DB_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", 168*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.NotifyTimeout, err = parseDurationEnv("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = parseIntEnv("BCRYPT_COST", 12); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = parseIntEnv("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	tolerance, err := parseIntEnv("BOOKING_PRICE_TOLERANCE", 1)
	if err != nil {
		return Config{}, err
	}
	cfg.PriceTolerance = int64(tolerance)
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	switch cfg.Backend {
	case BackendMemory:
	case BackendMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required for the mongo backend")
		}
	case BackendMySQL:
		if cfg.MySQLDSN == "" {
			return Config{}, fmt.Errorf("MYSQL_DSN is required for the mysql backend")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Backend)
	}
	if cfg.PriceTolerance < 0 {
		return Config{}, fmt.Errorf("BOOKING_PRICE_TOLERANCE must not be negative")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
