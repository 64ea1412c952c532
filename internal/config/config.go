package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port             int
	DatabaseURL      string
	LogLevel         string
	OpenRouterAPIKey string
	OpenRouterURL    string
	Models           []string
	LLMTimeout       time.Duration
	AppURL           string
	AppTitle         string
	NatsURL          string
	NatsToken        string
	APIToken         string
	NominatimURL     string
	OverpassURL      string
	GeoCacheSize     int
	GeoCacheTTL      time.Duration
}

func Load() Config {
	return Config{
		Port:             envInt("SIBYL_PORT", 8760),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		OpenRouterAPIKey: envStr("OPENROUTER_API_KEY", ""),
		OpenRouterURL:    envStr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		Models: envList("SIBYL_MODELS", []string{
			"tngtech/deepseek-r1t2-chimera:free",
			"deepseek/deepseek-chat:free",
		}),
		LLMTimeout:   envDuration("SIBYL_LLM_TIMEOUT", 60*time.Second),
		AppURL:       envStr("SIBYL_APP_URL", "https://spiritual-clarity.app"),
		AppTitle:     envStr("SIBYL_APP_TITLE", "Spiritual Clarity"),
		NatsURL:      envStr("NATS_URL", ""),
		NatsToken:    envStr("NATS_TOKEN", ""),
		APIToken:     envStr("SIBYL_API_TOKEN", ""),
		NominatimURL: envStr("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		OverpassURL:  envStr("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		GeoCacheSize: envInt("SIBYL_GEO_CACHE_SIZE", 256),
		GeoCacheTTL:  envDuration("SIBYL_GEO_CACHE_TTL", 24*time.Hour),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// envList reads a comma-separated list, dropping blank entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
