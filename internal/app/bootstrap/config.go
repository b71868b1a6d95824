package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	OracleURL    string
	OracleAPIKey string
	JWTSecret    string

	MaxDBConns int32

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	RecalcQueueSize    int

	LearningRate   float64
	HistoryLimit   int
	IdempotencyTTL time.Duration
	OracleTimeout  time.Duration
	NeighborCount  int
	MinSimilarity  float64
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		OracleURL    string   `yaml:"oracle_url"`
	} `yaml:"dependencies"`
	Scoring struct {
		LearningRate  float64 `yaml:"learning_rate"`
		HistoryLimit  int     `yaml:"history_limit"`
		NeighborCount int     `yaml:"neighbor_count"`
		MinSimilarity float64 `yaml:"min_similarity"`
	} `yaml:"scoring"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "M62-Creative-Scoring-Engine",
		HTTPPort:           8080,
		GRPCPort:           9090,
		MaxDBConns:         20,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		RecalcQueueSize:    64,
		LearningRate:       0.1,
		HistoryLimit:       200,
		IdempotencyTTL:     7 * 24 * time.Hour,
		OracleTimeout:      10 * time.Second,
		NeighborCount:      10,
		MinSimilarity:      0.5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.OracleURL != "" {
			cfg.OracleURL = f.Dependencies.OracleURL
		}
		if f.Scoring.LearningRate > 0 {
			cfg.LearningRate = f.Scoring.LearningRate
		}
		if f.Scoring.HistoryLimit > 0 {
			cfg.HistoryLimit = f.Scoring.HistoryLimit
		}
		if f.Scoring.NeighborCount > 0 {
			cfg.NeighborCount = f.Scoring.NeighborCount
		}
		if f.Scoring.MinSimilarity > 0 {
			cfg.MinSimilarity = f.Scoring.MinSimilarity
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.OracleURL = envOrDefault("ORACLE_URL", cfg.OracleURL)
	cfg.OracleAPIKey = envOrDefault("ORACLE_API_KEY", cfg.OracleAPIKey)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.RecalcQueueSize = envInt("RECALC_QUEUE_SIZE", cfg.RecalcQueueSize)
	cfg.HistoryLimit = envInt("HISTORY_LIMIT", cfg.HistoryLimit)
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.OracleTimeout = time.Duration(envInt("ORACLE_TIMEOUT_SECONDS", int(cfg.OracleTimeout.Seconds()))) * time.Second
	cfg.NeighborCount = envInt("NEIGHBOR_COUNT", cfg.NeighborCount)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
