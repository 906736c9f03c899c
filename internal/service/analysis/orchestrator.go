package analysis

import (
	"context"
	"time"

	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/internal/service/ai"
	"github.com/kapu/creator-insight-go/internal/service/deadline"
	"github.com/kapu/creator-insight-go/pkg/errors"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const (
	StagePrimary   = "generate.primary"
	StageAuxiliary = "generate.comments"
	StageNiche     = "generate.niche"
)

// Generator is the generative narrative service; ai.ModelManager satisfies it.
type Generator interface {
	GenerateJSON(ctx context.Context, req ai.Request) (map[string]any, *ai.GenerateMetadata, error)
}

// MessageBuilder renders prompts; prompt.PromptBuilder satisfies it.
type MessageBuilder interface {
	BuildPrimary(video domain.Video, related []domain.RelatedVideo, rangeSel domain.RangeSelector, now time.Time) ([]ai.Message, error)
	BuildComments(video domain.Video, comments []domain.Comment) ([]ai.Message, error)
	BuildNiche(video domain.Video, recentTitles []string) ([]ai.Message, error)
}

type OrchestratorTimeouts struct {
	Primary   time.Duration
	Auxiliary time.Duration
}

type OrchestratorInput struct {
	SubjectID       string
	Video           *domain.Video
	Related         []domain.RelatedVideo
	Range           domain.RangeSelector
	Comments        []domain.Comment
	CachedAuxiliary *domain.AuxiliaryPayload
}

// NarrativeOutcome carries the normalized primary narrative and the auxiliary
// payload to serve. AuxiliaryRefreshed is true only when the comment task
// produced new fields; otherwise Auxiliary is the cached payload (possibly nil).
type NarrativeOutcome struct {
	Primary            domain.PrimaryPayload
	Auxiliary          *domain.AuxiliaryPayload
	AuxiliaryRefreshed bool
	PrimaryMetadata    *ai.GenerateMetadata
}

type Orchestrator struct {
	generator Generator
	prompts   MessageBuilder
	timeouts  OrchestratorTimeouts
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrchestrator(generator Generator, prompts MessageBuilder, timeouts OrchestratorTimeouts, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeouts.Primary <= 0 {
		timeouts.Primary = constants.Timeouts.PrimaryGeneration
	}
	if timeouts.Auxiliary <= 0 {
		timeouts.Auxiliary = constants.Timeouts.AuxiliaryGeneration
	}
	return &Orchestrator{
		generator: generator,
		prompts:   prompts,
		timeouts:  timeouts,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate runs the primary task, and the comment task alongside it when
// comments are available. A primary failure is returned as a typed error; a
// comment-task failure leaves the cached auxiliary payload in place.
func (o *Orchestrator) Generate(ctx context.Context, in OrchestratorInput) (*NarrativeOutcome, error) {
	if in.Video == nil {
		return nil, errors.NewInternalError("orchestrator called without a video", nil)
	}

	outcome := &NarrativeOutcome{Auxiliary: in.CachedAuxiliary}

	var (
		raw        map[string]any
		meta       *ai.GenerateMetadata
		primaryErr error
	)
	runPrimary := func() {
		raw, meta, primaryErr = o.runPrimary(ctx, in)
	}

	if len(in.Comments) == 0 {
		runPrimary()
	} else {
		var (
			aux     *domain.AuxiliaryPayload
			changed bool
		)
		var wg conc.WaitGroup
		wg.Go(runPrimary)
		wg.Go(func() {
			aux, changed = o.GenerateAuxiliary(ctx, in.Video, in.Comments, in.CachedAuxiliary)
		})
		wg.Wait()

		outcome.Auxiliary = aux
		outcome.AuxiliaryRefreshed = changed
	}

	if primaryErr != nil {
		o.logger.Error("Primary narrative generation failed",
			zap.String("video_id", in.SubjectID),
			zap.String("code", errors.CodeOf(primaryErr)),
			zap.Error(primaryErr),
		)
		return nil, primaryErr
	}

	outcome.Primary = NormalizePrimary(raw, in.SubjectID, in.Video)
	outcome.PrimaryMetadata = meta
	return outcome, nil
}

func (o *Orchestrator) runPrimary(ctx context.Context, in OrchestratorInput) (map[string]any, *ai.GenerateMetadata, error) {
	messages, err := o.prompts.BuildPrimary(*in.Video, in.Related, in.Range, o.now())
	if err != nil {
		return nil, nil, errors.NewInternalError("failed to build primary prompt", err)
	}

	type result struct {
		raw  map[string]any
		meta *ai.GenerateMetadata
	}
	res, err := deadline.Required(ctx, StagePrimary, o.timeouts.Primary, func(ctx context.Context) (result, error) {
		raw, meta, err := o.generator.GenerateJSON(ctx, ai.Request{
			Stage:           StagePrimary,
			Messages:        messages,
			MaxOutputTokens: constants.GenerationConfig.PrimaryMaxOutputTokens,
			Temperature:     constants.GenerationConfig.PrimaryTemperature,
			JSON:            true,
		})
		return result{raw: raw, meta: meta}, err
	})
	if err != nil {
		if ctx.Err() != nil && !errors.IsTimeout(err) {
			return nil, nil, errors.Aborted(StagePrimary, err)
		}
		return nil, nil, errors.Upstream(StagePrimary, err)
	}
	return res.raw, res.meta, nil
}

// GenerateAuxiliary runs the comment task alone. It never fails: on any error
// the cached payload comes back unchanged with changed=false.
func (o *Orchestrator) GenerateAuxiliary(ctx context.Context, video *domain.Video, comments []domain.Comment, cached *domain.AuxiliaryPayload) (payload *domain.AuxiliaryPayload, changed bool) {
	if video == nil || len(comments) == 0 {
		return cached, false
	}

	messages, err := o.prompts.BuildComments(*video, comments)
	if err != nil {
		o.logger.Warn("Failed to build comment prompt", zap.String("video_id", video.ID), zap.Error(err))
		return cached, false
	}

	raw, ok := deadline.Optional(ctx, o.logger, StageAuxiliary, o.timeouts.Auxiliary, func(ctx context.Context) (map[string]any, error) {
		raw, _, err := o.generator.GenerateJSON(ctx, ai.Request{
			Stage:           StageAuxiliary,
			Messages:        messages,
			MaxOutputTokens: constants.GenerationConfig.AuxiliaryMaxOutputTokens,
			Temperature:     constants.GenerationConfig.AuxiliaryTemperature,
			JSON:            true,
		})
		return raw, err
	})
	if !ok {
		return cached, false
	}

	var base domain.AuxiliaryPayload
	if cached != nil {
		base = *cached
	}
	merged, changed := MergeAuxiliary(base, NormalizeAuxiliary(raw), len(comments), o.now())
	if !changed {
		o.logger.Warn("Comment analysis produced no usable fields", zap.String("video_id", video.ID))
		return cached, false
	}
	return &merged, true
}
