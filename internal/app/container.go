package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/creator-insight-go/internal/config"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/internal/prompt"
	"github.com/kapu/creator-insight-go/internal/service/ai"
	"github.com/kapu/creator-insight-go/internal/service/analysis"
	"github.com/kapu/creator-insight-go/internal/service/cache"
	"github.com/kapu/creator-insight-go/internal/service/database"
	"github.com/kapu/creator-insight-go/internal/service/inflight"
	"github.com/kapu/creator-insight-go/internal/service/store"
	"github.com/kapu/creator-insight-go/internal/service/youtube"
	"go.uber.org/zap"
)

// Container bundles the assembled services behind the analysis entry points.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Analysis *analysis.Service
	Niche    *analysis.NicheService
	Source   *youtube.Source
	Models   *ai.ModelManager

	postgres *database.PostgresService
	cache    *cache.CacheService
	writer   *analysis.Writer
	closers  []func()
}

// Health is a point-in-time view of the backing services.
type Health struct {
	Postgres       bool      `json:"postgres"`
	Redis          bool      `json:"redis"`
	RedisEnabled   bool      `json:"redis_enabled"`
	Circuit        string    `json:"circuit"`
	CircuitFailure int       `json:"circuit_failures"`
	QuotaUsed      int       `json:"quota_used"`
	QuotaRemaining int       `json:"quota_remaining"`
	QuotaReset     time.Time `json:"quota_reset"`
}

// Health pings the stores and reports the generative circuit and data source
// quota state.
func (c *Container) Health(ctx context.Context) Health {
	h := Health{RedisEnabled: c.cache != nil}
	if c.postgres != nil {
		if err := c.postgres.Ping(ctx); err != nil {
			c.Logger.Warn("Postgres ping failed", zap.Error(err))
		} else {
			h.Postgres = true
		}
	}
	if c.cache != nil {
		h.Redis = c.cache.IsConnected(ctx)
	}
	if c.Models != nil {
		status := c.Models.GetCircuitStatus()
		h.Circuit = status.State.String()
		h.CircuitFailure = status.FailureCount
	}
	if c.Source != nil {
		h.QuotaUsed, h.QuotaRemaining, h.QuotaReset = c.Source.GetQuotaStatus()
	}
	return h
}

// Close waits for pending background cache writes, then releases connections
// in reverse order of acquisition.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.writer != nil {
		c.writer.Wait()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles every infrastructure service. Postgres is required; Redis
// is used when enabled and reachable, otherwise reads go straight to Postgres.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Storage
	postgresSvc, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres service: %w", err)
	}
	closers = append(closers, func() {
		_ = postgresSvc.Close()
	})

	if err := postgresSvc.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	var (
		hotCache store.JSONCache
		cacheSvc *cache.CacheService
	)
	if cfg.Redis.Enabled {
		svc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis unavailable, reading analysis state from Postgres only", zap.Error(cacheErr))
		} else {
			cacheSvc, hotCache = svc, svc
			closers = append(closers, func() {
				_ = svc.Close()
			})
		}
	}

	analysisStore := store.NewAnalysisStore(store.NewRepository(postgresSvc, logger), hotCache, logger)

	// Data source
	source, err := youtube.NewSource(ctx, youtube.Config{
		APIKey:            cfg.YouTube.APIKey,
		CredentialsFile:   cfg.YouTube.OAuthCredentials,
		TokenFile:         cfg.YouTube.OAuthTokenFile,
		RequestsPerSecond: cfg.YouTube.RequestsPerSecond,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube source: %w", err)
	}

	// AI stack
	modelManager, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		GeminiAPIKey:       cfg.Gemini.APIKey,
		OpenAIAPIKey:       cfg.OpenAI.APIKey,
		DefaultGeminiModel: cfg.Gemini.Model,
		DefaultOpenAIModel: cfg.OpenAI.Model,
		EnableFallback:     cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}

	prompts := prompt.NewPromptBuilder()
	orchestrator := analysis.NewOrchestrator(modelManager, prompts, analysis.OrchestratorTimeouts{
		Primary:   cfg.Analysis.PrimaryTimeout,
		Auxiliary: cfg.Analysis.AuxiliaryTimeout,
	}, logger)

	registry := inflight.NewRegistry[domain.Niche](cfg.Analysis.InflightSafetyDelay, logger)
	nicheSvc := analysis.NewNicheService(analysisStore, modelManager, prompts, registry, analysis.NicheConfig{
		TTL:     cfg.Analysis.NicheTTL,
		Timeout: cfg.Analysis.NicheTimeout,
	}, logger)

	writer := analysis.NewWriter(analysisStore, 0, logger)

	service := analysis.NewService(analysisStore, source, orchestrator, nicheSvc, writer, analysis.ServiceConfig{
		PrimaryTTL:   cfg.Analysis.PrimaryTTL,
		AuxiliaryTTL: cfg.Analysis.AuxiliaryTTL,
		VideoFetch:   cfg.Analysis.VideoTimeout,
		CommentFetch: cfg.Analysis.CommentTimeout,
		RelatedFetch: cfg.Analysis.RelatedTimeout,
		NicheTimeout: cfg.Analysis.NicheTimeout,
		MaxComments:  cfg.Analysis.MaxComments,
		MaxRelated:   cfg.Analysis.MaxRelatedVideos,
	}, logger)

	logger.Info("Analysis services assembled",
		zap.Bool("redis", hotCache != nil),
		zap.Bool("openai_fallback", cfg.OpenAI.EnableFallback && cfg.OpenAI.APIKey != ""),
		zap.Duration("primary_ttl", cfg.Analysis.PrimaryTTL),
		zap.Duration("auxiliary_ttl", cfg.Analysis.AuxiliaryTTL),
	)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Analysis: service,
		Niche:    nicheSvc,
		Source:   source,
		Models:   modelManager,
		postgres: postgresSvc,
		cache:    cacheSvc,
		writer:   writer,
		closers:  closers,
	}, nil
}
