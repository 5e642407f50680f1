package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Model artifacts, loaded once at startup.
	WeightsPath string
	ScalerPath  string

	// Assessment window. Daily-values series have gaps, so the lookback is
	// longer than the 30 samples the extractor needs.
	LookbackDays int

	// USGS water services configuration.
	USGSBaseURL   string
	USGSTimeout   time.Duration
	SiteCacheSize int

	// National Weather Service alerts configuration.
	NWSBaseURL   string
	NWSTimeout   time.Duration
	NWSUserAgent string

	// Nominatim reverse geocoding configuration.
	NominatimBaseURL string
	NominatimTimeout time.Duration
	GeocodeCacheSize int

	// Google News RSS configuration.
	NewsBaseURL string
	NewsTimeout time.Duration

	// Chat assistant configuration (ASSISTANT_API_KEY enables it).
	AssistantAPIKey    string
	AssistantEnabled   bool
	AssistantBaseURL   string
	AssistantModel     string
	AssistantTimeout   time.Duration
	AssistantMaxTokens int

	// Assessment export configuration (KAFKA_ENABLED / KAFKA_BROKERS).
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	usgsTimeout, err := durationEnv("USGS_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	nwsTimeout, err := durationEnv("NWS_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	nominatimTimeout, err := durationEnv("NOMINATIM_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	newsTimeout, err := durationEnv("NEWS_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	assistantTimeout, err := durationEnv("ASSISTANT_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	lookbackDays, err := intEnv("LOOKBACK_DAYS", 45)
	if err != nil {
		return nil, err
	}
	siteCacheSize, err := intEnv("SITE_CACHE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	geocodeCacheSize, err := intEnv("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	assistantMaxTokens, err := intEnv("ASSISTANT_MAX_TOKENS", 500)
	if err != nil {
		return nil, err
	}

	assistantKey := os.Getenv("ASSISTANT_API_KEY")
	assistantEnabled := assistantKey != ""
	if v := os.Getenv("ASSISTANT_ENABLED"); v != "" {
		assistantEnabled = v == "true"
	}

	kafkaBrokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WeightsPath: envOrDefault("MODEL_WEIGHTS_PATH", "data/model/weights.json"),
		ScalerPath:  envOrDefault("MODEL_SCALER_PATH", "data/model/scaler.json"),

		LookbackDays: lookbackDays,

		USGSBaseURL:   envOrDefault("USGS_BASE_URL", "https://waterservices.usgs.gov/nwis"),
		USGSTimeout:   usgsTimeout,
		SiteCacheSize: siteCacheSize,

		NWSBaseURL:   envOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		NWSTimeout:   nwsTimeout,
		NWSUserAgent: envOrDefault("NWS_USER_AGENT", "(flood-risk-service, ops@couchcryptid.dev)"),

		NominatimBaseURL: envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimTimeout: nominatimTimeout,
		GeocodeCacheSize: geocodeCacheSize,

		NewsBaseURL: envOrDefault("NEWS_BASE_URL", "https://news.google.com/rss/search"),
		NewsTimeout: newsTimeout,

		AssistantAPIKey:    assistantKey,
		AssistantEnabled:   assistantEnabled,
		AssistantBaseURL:   envOrDefault("ASSISTANT_BASE_URL", "https://router.huggingface.co/v1"),
		AssistantModel:     envOrDefault("ASSISTANT_MODEL", "meta-llama/Llama-3.1-8B-Instruct:novita"),
		AssistantTimeout:   assistantTimeout,
		AssistantMaxTokens: assistantMaxTokens,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "flood-risk-assessments"),
	}

	if cfg.WeightsPath == "" {
		return nil, errors.New("MODEL_WEIGHTS_PATH is required")
	}
	if cfg.ScalerPath == "" {
		return nil, errors.New("MODEL_SCALER_PATH is required")
	}
	if cfg.LookbackDays < domain.MinObservations {
		return nil, fmt.Errorf("LOOKBACK_DAYS must be at least %d", domain.MinObservations)
	}
	if cfg.AssistantEnabled && cfg.AssistantAPIKey == "" {
		return nil, errors.New("ASSISTANT_ENABLED is true but ASSISTANT_API_KEY is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when export is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
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
