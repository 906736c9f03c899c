package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/internal/service/ai"
	"github.com/kapu/creator-insight-go/internal/service/deadline"
	"github.com/kapu/creator-insight-go/internal/service/inflight"
	"github.com/kapu/creator-insight-go/pkg/errors"
	"go.uber.org/zap"
)

// NicheStore persists channel niches; store.AnalysisStore satisfies it.
type NicheStore interface {
	LoadNiche(ctx context.Context, channelID string) (*domain.Niche, error)
	UpsertNiche(ctx context.Context, channelID string, niche domain.Niche) error
}

type NicheConfig struct {
	TTL          time.Duration
	Timeout      time.Duration
	WriteTimeout time.Duration
}

// NicheService classifies a channel into a content niche. Stored results are
// reused until they age out; concurrent regenerations for one channel share
// a single generative call through the registry.
type NicheService struct {
	store     NicheStore
	generator Generator
	prompts   MessageBuilder
	registry  *inflight.Registry[domain.Niche]
	cfg       NicheConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewNicheService(store NicheStore, generator Generator, prompts MessageBuilder, registry *inflight.Registry[domain.Niche], cfg NicheConfig, logger *zap.Logger) *NicheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = inflight.NewRegistry[domain.Niche](constants.InflightConfig.SafetyTimeout, logger)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = constants.CacheTTL.Niche
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.Timeouts.NicheGeneration
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = constants.Timeouts.StoreWrite
	}
	return &NicheService{
		store:     store,
		generator: generator,
		prompts:   prompts,
		registry:  registry,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// GetOrRegenerate returns the stored niche for channelID while it is younger
// than the TTL and otherwise classifies the channel again from video and the
// titles of related uploads.
func (n *NicheService) GetOrRegenerate(ctx context.Context, channelID string, video *domain.Video, related []domain.RelatedVideo) (*domain.Niche, error) {
	if strings.TrimSpace(channelID) == "" {
		return nil, errors.NewValidationError("channel id is required", "channel_id", channelID)
	}
	if video == nil {
		return nil, errors.NewValidationError("video is required for niche classification", "video", nil)
	}

	if stored := n.loadFresh(ctx, channelID); stored != nil {
		return stored, nil
	}

	niche, shared, err := n.registry.Do(ctx, channelID, func(runCtx context.Context) (domain.Niche, error) {
		// A caller that just finished may have stored a niche while we queued.
		if stored := n.loadFresh(runCtx, channelID); stored != nil {
			return *stored, nil
		}
		return n.regenerate(runCtx, channelID, video, related)
	})
	if err != nil {
		if ctx.Err() != nil && !errors.IsTimeout(err) {
			return nil, errors.Aborted(StageNiche, err)
		}
		return nil, err
	}
	if shared {
		n.logger.Debug("Niche classification shared", zap.String("channel_id", channelID))
	}
	return &niche, nil
}

func (n *NicheService) loadFresh(ctx context.Context, channelID string) *domain.Niche {
	stored, err := n.store.LoadNiche(ctx, channelID)
	if err != nil {
		n.logger.Warn("Failed to load stored niche", zap.String("channel_id", channelID), zap.Error(err))
		return nil
	}
	if stored == nil || stored.CapturedAt.IsZero() {
		return nil
	}
	if n.now().Sub(stored.CapturedAt) >= n.cfg.TTL {
		return nil
	}
	return stored
}

func (n *NicheService) regenerate(ctx context.Context, channelID string, video *domain.Video, related []domain.RelatedVideo) (domain.Niche, error) {
	titles := make([]string, 0, len(related))
	for _, r := range related {
		if r.ID == video.ID || strings.TrimSpace(r.Title) == "" {
			continue
		}
		titles = append(titles, r.Title)
	}

	messages, err := n.prompts.BuildNiche(*video, titles)
	if err != nil {
		return domain.Niche{}, errors.NewInternalError("failed to build niche prompt", err)
	}

	raw, err := deadline.Required(ctx, StageNiche, n.cfg.Timeout, func(ctx context.Context) (map[string]any, error) {
		raw, _, err := n.generator.GenerateJSON(ctx, ai.Request{
			Stage:           StageNiche,
			Messages:        messages,
			MaxOutputTokens: constants.GenerationConfig.NicheMaxOutputTokens,
			Temperature:     constants.GenerationConfig.NicheTemperature,
			JSON:            true,
		})
		return raw, err
	})
	if err != nil {
		return domain.Niche{}, errors.Upstream(StageNiche, err)
	}

	niche, ok := normalizeNiche(raw, n.now())
	if !ok {
		return domain.Niche{}, errors.NewUpstreamError(StageNiche, fmt.Errorf("niche response has no label"))
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.cfg.WriteTimeout)
	defer cancel()
	if err := n.store.UpsertNiche(writeCtx, channelID, niche); err != nil {
		n.logger.Error("Failed to store niche", zap.String("channel_id", channelID), zap.Error(err))
	}

	n.logger.Info("Channel niche classified",
		zap.String("channel_id", channelID),
		zap.String("label", niche.Label),
		zap.Float64("confidence", niche.Confidence),
	)
	return niche, nil
}

func normalizeNiche(raw map[string]any, now time.Time) (domain.Niche, bool) {
	niche := domain.Niche{
		Label:      stringField(raw, "label"),
		SubNiche:   stringField(raw, "sub_niche"),
		Audience:   stringField(raw, "audience"),
		CapturedAt: now,
	}
	if niche.Label == "" {
		return domain.Niche{}, false
	}
	if c, ok := number(raw["confidence"]); ok {
		switch {
		case c > 1 && c <= 100:
			c /= 100
		case c > 100:
			c = 1
		case c < 0:
			c = 0
		}
		niche.Confidence = round3(c)
	}
	return niche, true
}
