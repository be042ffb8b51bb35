package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Cache backends for the Kp index.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	KafkaEnabled     bool
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Geomagnetic field model service (NOAA NCEI IGRF calculator).
	IGRFBaseURL   string
	IGRFAPIKey    string
	IGRFTimeout   time.Duration
	IGRFCacheSize int

	// Planetary Kp index service (GFZ Potsdam).
	KpEnabled      bool
	KpBaseURL      string
	KpTimeout      time.Duration
	KpFallback     float64
	KpCacheBackend string
	KpCacheTTL     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ModelConfig is an optional YAML file overriding the model constants.
	ModelConfig string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	igrfTimeout, err := parseDuration("IGRF_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	kpTimeout, err := parseDuration("KP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	kpCacheTTL, err := parseDuration("KP_CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}

	kpFallback, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("KP_FALLBACK", "0"), 64)
	if err != nil || kpFallback < 0 || kpFallback > 9 {
		return nil, errors.New("invalid KP_FALLBACK: must be a number in [0, 9]")
	}

	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "gtf-queries"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "gtf-assessments"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "gtf-service"),
		KafkaEnabled:       parseBool("KAFKA_ENABLED", true),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		IGRFBaseURL:   sharedcfg.EnvOrDefault("IGRF_BASE_URL", "https://www.ngdc.noaa.gov/geomag-web/calculators/calculateIgrfwmm"),
		IGRFAPIKey:    sharedcfg.EnvOrDefault("IGRF_API_KEY", "zNEw7"),
		IGRFTimeout:   igrfTimeout,
		IGRFCacheSize: parsePositiveInt("IGRF_CACHE_SIZE", 1000),

		KpEnabled:      parseBool("KP_ENABLED", true),
		KpBaseURL:      sharedcfg.EnvOrDefault("KP_BASE_URL", "https://kp.gfz.de/app/json/"),
		KpTimeout:      kpTimeout,
		KpFallback:     kpFallback,
		KpCacheBackend: sharedcfg.EnvOrDefault("KP_CACHE_BACKEND", CacheBackendMemory),
		KpCacheTTL:     kpCacheTTL,

		RedisAddr:     sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		ModelConfig: os.Getenv("MODEL_CONFIG"),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.IGRFBaseURL == "" {
		return nil, errors.New("IGRF_BASE_URL is required")
	}
	switch cfg.KpCacheBackend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return nil, fmt.Errorf("invalid KP_CACHE_BACKEND %q: must be %q or %q", cfg.KpCacheBackend, CacheBackendMemory, CacheBackendRedis)
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
