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

// DefaultSourceURLTemplate builds the MERGE/CPTEC hourly file URL. The
// %Y, %m, %d, and %H placeholders expand from the requested UTC hour;
// everything else in the template is literal.
const DefaultSourceURLTemplate = "https://ftp.cptec.inpe.br/modelos/tempo/MERGE/GPM/HOURLY/%Y/%m/%d/MERGE_CPTEC_%Y%m%d%H.grib2"

// Config holds all job settings, populated from environment variables.
// The date range deliberately is not here: it is passed explicitly as
// pipeline parameters so the core stays testable in isolation.
type Config struct {
	CatalogPath string

	// Grid source.
	SourceURLTemplate string
	GribDir           string
	FetchTimeout      time.Duration
	FetchRetries      int
	InsecureTLS       bool

	WindowConcurrency int

	// Sinks.
	ParquetPath     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	MongoEnabled    bool
	MongoTimeout    time.Duration

	// Optional row publication for downstream consumers.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment (and a .env file when
// present), applying defaults where unset.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := envDuration("FETCH_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	mongoTimeout, err := envDuration("MONGO_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	kafkaBrokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	mongoEnabled := true
	if v := os.Getenv("MONGO_ENABLED"); v != "" {
		mongoEnabled = v == "true"
	}

	cfg := &Config{
		CatalogPath: envOrDefault("CATALOG_PATH", "./data/capitals_br.geojson"),

		SourceURLTemplate: envOrDefault("SOURCE_URL_TEMPLATE", DefaultSourceURLTemplate),
		GribDir:           envOrDefault("GRIB_DIR", "./merge_data"),
		FetchTimeout:      fetchTimeout,
		FetchRetries:      envInt("FETCH_RETRIES", 3),
		InsecureTLS:       os.Getenv("INSECURE_TLS") == "true",

		WindowConcurrency: envInt("WINDOW_CONCURRENCY", 4),

		ParquetPath:     envOrDefault("PARQUET_PATH", "./output/capitals_br_daily_prec.parquet"),
		MongoURI:        envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   envOrDefault("MONGO_DATABASE", "capitals"),
		MongoCollection: envOrDefault("MONGO_COLLECTION", "precipitacao_diaria"),
		MongoEnabled:    mongoEnabled,
		MongoTimeout:    mongoTimeout,

		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "daily-precipitation-rows"),
		KafkaEnabled: kafkaEnabled,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.CatalogPath == "" {
		return nil, errors.New("CATALOG_PATH is required")
	}
	if cfg.ParquetPath == "" {
		return nil, errors.New("PARQUET_PATH is required")
	}
	if cfg.WindowConcurrency < 1 {
		return nil, errors.New("WINDOW_CONCURRENCY must be at least 1")
	}
	if cfg.FetchRetries < 0 {
		return nil, errors.New("FETCH_RETRIES must not be negative")
	}
	if cfg.MongoEnabled && cfg.MongoURI == "" {
		return nil, errors.New("MONGO_ENABLED is true but MONGO_URI is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
