package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Providers ProviderConfig
	Fetcher   FetcherConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// ProviderConfig carries credentials for the LLM backends. A key is only
// required when a request selects a model on that backend; the handler
// fails fast with a configuration error when the needed key is empty.
type ProviderConfig struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	XAIAPIKey       string

	// XAIBaseURL is the OpenAI-compatible endpoint for xAI.
	XAIBaseURL string // default: "https://api.x.ai/v1"

	// RequestTimeout bounds each individual provider API call.
	RequestTimeout time.Duration // default: 120s
}

// FetcherConfig controls the page fetcher used by the tool loop and the
// heuristic extractor.
type FetcherConfig struct {
	// Timeout is the per-fetch deadline.
	Timeout time.Duration // default: 30s

	// MaxBodyChars is the default truncation budget for fetched HTML.
	// Call sites may override with a stage-specific budget.
	MaxBodyChars int // default: 100000

	// Proxy is an optional proxy URL for outbound fetches.
	Proxy string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
// Provider key variable names follow the upstream SDK conventions so keys
// configured for other tooling work unchanged.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("MAILFORGE_HOST", "0.0.0.0"),
			Port: envIntOr("MAILFORGE_PORT", 8080),
			Mode: envOr("MAILFORGE_MODE", "release"),
		},
		Providers: ProviderConfig{
			AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			XAIAPIKey:       os.Getenv("XAI_API_KEY"),
			XAIBaseURL:      envOr("XAI_BASE_URL", "https://api.x.ai/v1"),
			RequestTimeout:  envDurationOr("MAILFORGE_PROVIDER_TIMEOUT", 120*time.Second),
		},
		Fetcher: FetcherConfig{
			Timeout:      envDurationOr("MAILFORGE_FETCH_TIMEOUT", 30*time.Second),
			MaxBodyChars: envIntOr("MAILFORGE_FETCH_MAX_CHARS", 100_000),
			Proxy:        os.Getenv("MAILFORGE_PROXY"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("MAILFORGE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("MAILFORGE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("MAILFORGE_RATE_RPS", 2.0),
			Burst:             envIntOr("MAILFORGE_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("MAILFORGE_LOG_LEVEL", "info"),
			Format: envOr("MAILFORGE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
