package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skufu/vetddx/internal/analysis"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DatabaseURL string
	EnableDB    bool
	HistorySize int

	GeminiAPIKey      string
	GeminiModel       string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterURL     string
	OpenRouterReferer string
	OpenRouterTitle   string
	UpstreamTimeout   time.Duration

	WriteTimeout time.Duration
	MaxBodyBytes int64

	Tuning analysis.Tuning
}

// Load reads .env.local and .env when present, then the process environment.
// Upstream API keys are optional here; a missing key fails only the call that
// needs it.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	tuning := analysis.DefaultTuning()
	tuning.CompressedBelow = getEnvInt("RESCALE_THRESHOLD", tuning.CompressedBelow)
	tuning.TargetCeiling = getEnvFloat("RESCALE_CEILING", tuning.TargetCeiling)
	tuning.DecayPerRank = getEnvFloat("RESCALE_DECAY", tuning.DecayPerRank)

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "release"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		EnableDB:          strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		HistorySize:       getEnvInt("HISTORY_SIZE", 256),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "xiaomi/mimo-v2-flash:free"),
		OpenRouterURL:     getEnv("OPENROUTER_URL", "https://openrouter.ai/api/v1/chat/completions"),
		OpenRouterReferer: getEnv("OPENROUTER_REFERER", "https://vetddx.vercel.app"),
		OpenRouterTitle:   getEnv("OPENROUTER_TITLE", "VetDDx - Veterinary Differential Diagnosis"),
		UpstreamTimeout:   getEnvDuration("UPSTREAM_TIMEOUT", 120*time.Second),
		WriteTimeout:      getEnvDuration("WRITE_TIMEOUT", 180*time.Second),
		MaxBodyBytes:      int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		Tuning:            tuning,
	}

	if cfg.EnableDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}
	if cfg.HistorySize <= 0 {
		return nil, fmt.Errorf("HISTORY_SIZE must be positive, got %d", cfg.HistorySize)
	}
	if cfg.Tuning.DecayPerRank < 0 || cfg.Tuning.DecayPerRank >= 1 {
		return nil, fmt.Errorf("RESCALE_DECAY must be in [0, 1), got %v", cfg.Tuning.DecayPerRank)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
