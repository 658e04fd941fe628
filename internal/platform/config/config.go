// Package config builds runtime configuration: server settings from
// environment variables and scoring thresholds from a YAML file. The
// threshold values are calibration defaults pending compliance sign-off,
// which is exactly why they live in configuration rather than code.
package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr            string
	LogLevel        string
	TokenSigningKey string
	TokenIssuer     string
	PostgresDSN     string
	RedisURL        string
	KafkaBrokers    []string
	KafkaTopic      string
	ScoringPath     string

	// DevTokens enables the local token-minting endpoint. Never set in
	// production; real tokens come from the identity provider.
	DevTokens bool
	// DevTokenSecretHash is the bcrypt hash callers of the dev token
	// endpoint must match. Empty generates an ephemeral secret at boot.
	DevTokenSecretHash string

	// Collaborator endpoints.
	ExtractorURL       string
	ConsentRegistryURL string
	ConsentProvider    string
	ConsentAPIKey      string

	Minio MinioConfig
	Redis RedisConfig
}

// MinioConfig configures the document image object store.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("VERIS_ADDR", ":8080"),
		LogLevel:        envOr("VERIS_LOG_LEVEL", "info"),
		TokenSigningKey: os.Getenv("VERIS_TOKEN_SIGNING_KEY"),
		TokenIssuer:     envOr("VERIS_TOKEN_ISSUER", "veris"),
		PostgresDSN:     os.Getenv("VERIS_POSTGRES_DSN"),
		RedisURL:        os.Getenv("VERIS_REDIS_URL"),
		KafkaTopic:      envOr("VERIS_KAFKA_TOPIC", "veris.notifications"),
		ScoringPath:     envOr("VERIS_SCORING_CONFIG", "scoring.yaml"),
		DevTokens:       os.Getenv("VERIS_DEV_TOKENS") == "true",

		DevTokenSecretHash: os.Getenv("VERIS_DEV_TOKEN_SECRET_HASH"),

		ExtractorURL:       envOr("VERIS_EXTRACTOR_URL", "http://localhost:9090"),
		ConsentRegistryURL: os.Getenv("VERIS_CONSENT_REGISTRY_URL"),
		ConsentProvider:    envOr("VERIS_CONSENT_PROVIDER", "national-registry"),
		ConsentAPIKey:      os.Getenv("VERIS_CONSENT_API_KEY"),
		Minio: MinioConfig{
			Endpoint:  os.Getenv("VERIS_MINIO_ENDPOINT"),
			AccessKey: os.Getenv("VERIS_MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("VERIS_MINIO_SECRET_KEY"),
			Bucket:    envOr("VERIS_MINIO_BUCKET", "veris-documents"),
			UseSSL:    os.Getenv("VERIS_MINIO_SSL") == "true",
		},
	}
	if brokers := os.Getenv("VERIS_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.Redis = RedisConfig{
		URL:          cfg.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
