package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/creator-insight-go/internal/constants"
)

type Config struct {
	YouTube  YouTubeConfig
	Gemini   GeminiConfig
	OpenAI   OpenAIConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Logging  LoggingConfig
	Analysis AnalysisConfig
}

type YouTubeConfig struct {
	APIKey            string
	OAuthCredentials  string
	OAuthTokenFile    string
	RequestsPerSecond float64
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type LoggingConfig struct {
	Level string
	File  string
}

// AnalysisConfig tunes the cache-and-orchestration pipeline.
type AnalysisConfig struct {
	PrimaryTTL          time.Duration
	AuxiliaryTTL        time.Duration
	NicheTTL            time.Duration
	VideoTimeout        time.Duration
	CommentTimeout      time.Duration
	RelatedTimeout      time.Duration
	PrimaryTimeout      time.Duration
	AuxiliaryTimeout    time.Duration
	NicheTimeout        time.Duration
	MaxComments         int
	MaxRelatedVideos    int
	InflightSafetyDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		YouTube: YouTubeConfig{
			APIKey:            getEnv("YOUTUBE_API_KEY", ""),
			OAuthCredentials:  getEnv("YOUTUBE_OAUTH_CREDENTIALS", ""),
			OAuthTokenFile:    getEnv("YOUTUBE_OAUTH_TOKEN", ""),
			RequestsPerSecond: getEnvFloat("YOUTUBE_REQUESTS_PER_SECOND", constants.YouTubeQuota.RequestsPerSecond),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-5-mini"),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "insight"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "insight"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Analysis: AnalysisConfig{
			PrimaryTTL:          getEnvDuration("ANALYSIS_PRIMARY_TTL", constants.CacheTTL.PrimaryNarrative),
			AuxiliaryTTL:        getEnvDuration("ANALYSIS_AUXILIARY_TTL", constants.CacheTTL.AuxiliaryNarrative),
			NicheTTL:            getEnvDuration("ANALYSIS_NICHE_TTL", constants.CacheTTL.Niche),
			VideoTimeout:        getEnvDuration("ANALYSIS_VIDEO_TIMEOUT", constants.Timeouts.VideoFetch),
			CommentTimeout:      getEnvDuration("ANALYSIS_COMMENT_TIMEOUT", constants.Timeouts.CommentFetch),
			RelatedTimeout:      getEnvDuration("ANALYSIS_RELATED_TIMEOUT", constants.Timeouts.RelatedFetch),
			PrimaryTimeout:      getEnvDuration("ANALYSIS_PRIMARY_TIMEOUT", constants.Timeouts.PrimaryGeneration),
			AuxiliaryTimeout:    getEnvDuration("ANALYSIS_AUXILIARY_TIMEOUT", constants.Timeouts.AuxiliaryGeneration),
			NicheTimeout:        getEnvDuration("ANALYSIS_NICHE_TIMEOUT", constants.Timeouts.NicheGeneration),
			MaxComments:         getEnvInt("ANALYSIS_MAX_COMMENTS", constants.AnalysisLimits.MaxComments),
			MaxRelatedVideos:    getEnvInt("ANALYSIS_MAX_RELATED", constants.AnalysisLimits.MaxRelatedVideos),
			InflightSafetyDelay: getEnvDuration("ANALYSIS_INFLIGHT_SAFETY", constants.InflightConfig.SafetyTimeout),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.YouTube.APIKey == "" && (c.YouTube.OAuthCredentials == "" || c.YouTube.OAuthTokenFile == "") {
		return fmt.Errorf("YOUTUBE_API_KEY or YOUTUBE_OAUTH_CREDENTIALS + YOUTUBE_OAUTH_TOKEN is required")
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Postgres.Host == "" || c.Postgres.Database == "" {
		return fmt.Errorf("POSTGRES_HOST and POSTGRES_DB are required")
	}
	if c.Analysis.PrimaryTTL <= 0 || c.Analysis.AuxiliaryTTL <= 0 {
		return fmt.Errorf("analysis TTLs must be positive")
	}
	if c.Analysis.AuxiliaryTTL > c.Analysis.PrimaryTTL {
		return fmt.Errorf("ANALYSIS_AUXILIARY_TTL must not exceed ANALYSIS_PRIMARY_TTL")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90m") and a day suffix ("21d").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if days, ok := strings.CutSuffix(value, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			return time.Duration(n) * 24 * time.Hour
		}
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
