package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI    string
	MongoDBName string

	WireBaseURL string
	WireSource  string
	Categories  []string
	Language    string
	ContentType string
	Lookback    time.Duration
	SearchLimit int
	Timeout     time.Duration

	RateInterval  time.Duration
	Concurrency   int
	RetryAttempts int
	RetryBackoff  time.Duration

	PollInterval time.Duration
	MaxPolls     int // -1 is unlimited

	StockAPIKey   string
	StockFallback bool

	TaxonomyPath string

	RabbitURI        string
	RabbitExchange   string
	RabbitRoutingKey string

	BindAddr string
}

const (
	MongoURIEnv         = "MONGO_URI"
	MongoDBNameEnv      = "MONGO_DB_NAME"
	WireBaseURLEnv      = "WIRE_BASE_URL"
	WireSourceEnv       = "WIRE_SOURCE"
	CategoriesEnv       = "WIRE_CATEGORIES"
	LanguageEnv         = "WIRE_LANGUAGE"
	ContentTypeEnv      = "WIRE_CONTENT_TYPE"
	LookbackEnv         = "LOOKBACK"
	SearchLimitEnv      = "SEARCH_LIMIT"
	TimeoutEnv          = "TIMEOUT"
	RateIntervalEnv     = "RATE_INTERVAL"
	ConcurrencyEnv      = "CONCURRENCY"
	RetryAttemptsEnv    = "RETRY_ATTEMPTS"
	RetryBackoffEnv     = "RETRY_BACKOFF"
	PollIntervalEnv     = "POLL_INTERVAL"
	MaxPollsEnv         = "MAX_POLLS"
	StockAPIKeyEnv      = "STOCK_API_KEY"
	StockFallbackEnv    = "STOCK_FALLBACK"
	TaxonomyPathEnv     = "TAXONOMY_PATH"
	RabbitURIEnv        = "RABBIT_URI"
	RabbitExchangeEnv   = "RABBIT_EXCHANGE"
	RabbitRoutingKeyEnv = "RABBIT_ROUTING_KEY"
	BindAddrEnv         = "BIND_ADDR"
)

func FromEnv() (Config, error) {
	var cfg Config

	cfg.MongoURI = getEnv(MongoURIEnv, "mongodb://localhost:27017")
	cfg.MongoDBName = getEnv(MongoDBNameEnv, "newsdb")
	cfg.WireBaseURL = getEnv(WireBaseURLEnv, "")
	cfg.WireSource = getEnv(WireSourceEnv, "newswire")
	cfg.Categories = splitAndTrim(getEnv(CategoriesEnv, ""))
	cfg.Language = getEnv(LanguageEnv, "en")
	cfg.ContentType = getEnv(ContentTypeEnv, "text")
	cfg.StockAPIKey = getEnv(StockAPIKeyEnv, "")
	cfg.TaxonomyPath = getEnv(TaxonomyPathEnv, "")
	cfg.RabbitURI = getEnv(RabbitURIEnv, "")
	cfg.RabbitExchange = getEnv(RabbitExchangeEnv, "cms.sync")
	cfg.RabbitRoutingKey = getEnv(RabbitRoutingKeyEnv, "article.ingested")
	cfg.BindAddr = getEnv(BindAddrEnv, ":8080")

	if cfg.WireBaseURL == "" {
		return cfg, fmt.Errorf("%v is required", WireBaseURLEnv)
	}

	var err error
	if cfg.SearchLimit, err = getEnvInt(SearchLimitEnv, 50); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", SearchLimitEnv, err)
	}
	if cfg.Concurrency, err = getEnvInt(ConcurrencyEnv, 4); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", ConcurrencyEnv, err)
	}
	if cfg.RetryAttempts, err = getEnvInt(RetryAttemptsEnv, 3); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", RetryAttemptsEnv, err)
	}
	if cfg.MaxPolls, err = getEnvInt(MaxPollsEnv, -1); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", MaxPollsEnv, err)
	}
	if cfg.Lookback, err = getEnvDuration(LookbackEnv, "24h"); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", LookbackEnv, err)
	}
	if cfg.Timeout, err = getEnvDuration(TimeoutEnv, "10s"); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", TimeoutEnv, err)
	}
	if cfg.RateInterval, err = getEnvDuration(RateIntervalEnv, "500ms"); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", RateIntervalEnv, err)
	}
	if cfg.RetryBackoff, err = getEnvDuration(RetryBackoffEnv, "500ms"); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", RetryBackoffEnv, err)
	}
	if cfg.PollInterval, err = getEnvDuration(PollIntervalEnv, "10m"); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", PollIntervalEnv, err)
	}
	if cfg.StockFallback, err = getEnvBool(StockFallbackEnv, true); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", StockFallbackEnv, err)
	}

	if cfg.SearchLimit <= 0 {
		return cfg, fmt.Errorf("%v must be positive", SearchLimitEnv)
	}
	if cfg.Concurrency <= 0 {
		return cfg, fmt.Errorf("%v must be positive", ConcurrencyEnv)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key, fallback string) (time.Duration, error) {
	return time.ParseDuration(getEnv(key, fallback))
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
