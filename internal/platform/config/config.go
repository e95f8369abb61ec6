package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	platformstrings "carematch/pkg/platform/strings"
)

// Config is the full service configuration, assembled from the environment.
type Config struct {
	Server       Server
	Postgres     PostgresConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Extraction   ExtractionConfig
	Storage      StorageConfig
	Verification VerificationConfig
	LogLevel     string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	JWTSigningKey  string
	JWTIssuer      string
	JWTLeeway      time.Duration
	AllowedOrigins []string
}

// PostgresConfig selects the durable store. An empty DSN keeps everything in memory.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the gazetteer cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	GazetteerTTL time.Duration
}

// KafkaConfig configures the job queue and transition events. With no brokers
// jobs run on the in-process channel and transitions are only logged.
type KafkaConfig struct {
	Brokers          []string
	ClientID         string
	JobsTopic        string
	TransitionsTopic string
	ConsumerGroup    string
	Partitions       int32
	Replication      int16
}

// ExtractionConfig points at the document extraction collaborator.
type ExtractionConfig struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	MaxAttempts      int
	BaseBackoff      time.Duration
	Workers          int
	QueueSize        int
	FailureThreshold int
	Cooldown         time.Duration
}

// StorageConfig locates uploaded documents for the local inspector.
type StorageConfig struct {
	Bucket       string
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// VerificationConfig holds pipeline tuning knobs.
type VerificationConfig struct {
	InspectionTimeout time.Duration
	ExpirySweep       time.Duration
	GazetteerFile     string
}

// FromEnv builds the config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		LogLevel: getString("LOG_LEVEL", "info"),
		Server: Server{
			Addr: getString("CAREMATCH_ADDR", ":8080"),
			// Use a default for development - should be overridden in production
			JWTSigningKey:  getString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:      getString("JWT_ISSUER", "carematch"),
			JWTLeeway:      getDuration("JWT_LEEWAY", 30*time.Second),
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			GazetteerTTL: getDuration("GAZETTEER_CACHE_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:          getList("KAFKA_BROKERS", nil),
			ClientID:         getString("KAFKA_CLIENT_ID", "carematch"),
			JobsTopic:        getString("KAFKA_JOBS_TOPIC", "verification.extraction-jobs"),
			TransitionsTopic: getString("KAFKA_TRANSITIONS_TOPIC", "verification.transitions"),
			ConsumerGroup:    getString("KAFKA_CONSUMER_GROUP", "carematch-extraction-workers"),
			Partitions:       int32(getInt("KAFKA_PARTITIONS", 6)),
			Replication:      int16(getInt("KAFKA_REPLICATION", 1)),
		},
		Extraction: ExtractionConfig{
			BaseURL:          os.Getenv("EXTRACTION_BASE_URL"),
			APIKey:           os.Getenv("EXTRACTION_API_KEY"),
			Timeout:          getDuration("EXTRACTION_TIMEOUT", 90*time.Second),
			MaxAttempts:      getInt("EXTRACTION_MAX_ATTEMPTS", 3),
			BaseBackoff:      getDuration("EXTRACTION_BASE_BACKOFF", 2*time.Second),
			Workers:          getInt("EXTRACTION_WORKERS", 4),
			QueueSize:        getInt("EXTRACTION_QUEUE_SIZE", 256),
			FailureThreshold: getInt("EXTRACTION_BREAKER_FAILURES", 5),
			Cooldown:         getDuration("EXTRACTION_BREAKER_COOLDOWN", 30*time.Second),
		},
		Storage: StorageConfig{
			Bucket:       os.Getenv("DOCUMENT_BUCKET"),
			Region:       getString("AWS_REGION", "ap-southeast-2"),
			Endpoint:     os.Getenv("DOCUMENT_ENDPOINT"),
			UsePathStyle: getBool("DOCUMENT_PATH_STYLE", false),
		},
		Verification: VerificationConfig{
			InspectionTimeout: getDuration("INSPECTION_TIMEOUT", 12*time.Second),
			ExpirySweep:       getDuration("EXPIRY_SWEEP_INTERVAL", time.Hour),
			GazetteerFile:     os.Getenv("GAZETTEER_FILE"),
		},
	}
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getList(key string, fallback []string) []string {
	out := platformstrings.SplitList(os.Getenv(key))
	if len(out) == 0 {
		return fallback
	}
	return out
}
