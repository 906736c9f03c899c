package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/internal/service/deadline"
	"github.com/kapu/creator-insight-go/pkg/errors"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	StageLoadSubject   = "store.subject"
	StageLoadOwnership = "store.ownership"
	StageLoadEntry     = "store.entry"
	StageLoadAuxiliary = "store.comments"
	StageFetchVideo    = "fetch.video"
	StageFetchComments = "fetch.comments"
	StageFetchRelated  = "fetch.related"
)

const maxVideoIDLength = 64

// Store is the read side of persisted analysis state; store.AnalysisStore
// satisfies it.
type Store interface {
	LoadSubject(ctx context.Context, videoID string) (*domain.Video, error)
	IsOwner(ctx context.Context, videoID, ownerID string) (bool, error)
	LoadEntry(ctx context.Context, videoID string) (*domain.CacheEntry, error)
	LoadAuxiliaryEntry(ctx context.Context, videoID string) (*domain.AuxiliaryEntry, error)
}

// DataSource is the external video platform; youtube.Source satisfies it.
// GetVideo returns nil, nil for unknown videos.
type DataSource interface {
	GetVideo(ctx context.Context, videoID string) (*domain.Video, error)
	ListComments(ctx context.Context, videoID string, maxResults int) ([]domain.Comment, error)
	ListRecentUploads(ctx context.Context, channelID string, maxResults int) ([]domain.RelatedVideo, error)
}

type NicheClassifier interface {
	GetOrRegenerate(ctx context.Context, channelID string, video *domain.Video, related []domain.RelatedVideo) (*domain.Niche, error)
}

// BackgroundWriter persists recomputed entries without blocking the caller;
// Writer satisfies it.
type BackgroundWriter interface {
	WritePrimary(entry domain.CacheEntry)
	WriteAuxiliary(entry domain.AuxiliaryEntry)
}

type ServiceConfig struct {
	PrimaryTTL   time.Duration
	AuxiliaryTTL time.Duration
	StoreRead    time.Duration
	VideoFetch   time.Duration
	CommentFetch time.Duration
	RelatedFetch time.Duration
	NicheTimeout time.Duration
	MaxComments  int
	MaxRelated   int
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.PrimaryTTL <= 0 {
		c.PrimaryTTL = constants.CacheTTL.PrimaryNarrative
	}
	if c.AuxiliaryTTL <= 0 {
		c.AuxiliaryTTL = constants.CacheTTL.AuxiliaryNarrative
	}
	if c.StoreRead <= 0 {
		c.StoreRead = constants.Timeouts.StoreRead
	}
	if c.VideoFetch <= 0 {
		c.VideoFetch = constants.Timeouts.VideoFetch
	}
	if c.CommentFetch <= 0 {
		c.CommentFetch = constants.Timeouts.CommentFetch
	}
	if c.RelatedFetch <= 0 {
		c.RelatedFetch = constants.Timeouts.RelatedFetch
	}
	if c.NicheTimeout <= 0 {
		c.NicheTimeout = constants.Timeouts.NicheGeneration
	}
	if c.MaxComments <= 0 {
		c.MaxComments = constants.AnalysisLimits.MaxComments
	}
	if c.MaxRelated <= 0 {
		c.MaxRelated = constants.AnalysisLimits.MaxRelatedVideos
	}
	return c
}

// Service produces analysis reports, reusing persisted narratives whenever the
// analyzed content has not changed.
type Service struct {
	store        Store
	source       DataSource
	orchestrator *Orchestrator
	niche        NicheClassifier
	writer       BackgroundWriter
	cfg          ServiceConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewService wires the pipeline. niche may be nil to skip classification.
func NewService(store Store, source DataSource, orchestrator *Orchestrator, niche NicheClassifier, writer BackgroundWriter, cfg ServiceConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        store,
		source:       source,
		orchestrator: orchestrator,
		niche:        niche,
		writer:       writer,
		cfg:          cfg.withDefaults(),
		logger:       logger,
		now:          time.Now,
	}
}

// snapshot is the result of the barrier read.
type snapshot struct {
	subject   *domain.Video
	owned     bool
	entry     *domain.CacheEntry
	auxiliary *domain.AuxiliaryEntry
}

func (s *snapshot) cachedAuxiliary() *domain.AuxiliaryPayload {
	if s.auxiliary == nil {
		return nil
	}
	payload := s.auxiliary.Payload
	return &payload
}

// ProduceAnalysis returns the full report for videoID on behalf of ownerID.
// Every error is an InsightError; a caller cancellation surfaces as
// INTERNAL_ERROR and a caller deadline as UPSTREAM_TIMEOUT.
func (s *Service) ProduceAnalysis(ctx context.Context, videoID, ownerID string, rangeSel domain.RangeSelector) (*domain.AnalysisResult, error) {
	videoID, ownerID, rangeSel, err := validateRequest(videoID, ownerID, rangeSel)
	if err != nil {
		return nil, err
	}

	ctx, rc := s.attachRequestContext(ctx)
	defer s.logStages(rc, "analysis", videoID)

	snap, err := s.readSnapshot(ctx, videoID, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	storedFP := Fingerprint(snap.subject)
	if s.servableFromCache(snap, storedFP, now) {
		s.logger.Info("Serving analysis from cache",
			zap.String("correlation_id", rc.CorrelationID),
			zap.String("video_id", videoID),
			zap.String("fingerprint", storedFP),
		)
		result := Assemble(AssembleInput{
			SubjectID:   videoID,
			Range:       rangeSel,
			Video:       snap.subject,
			Primary:     snap.entry.Primary,
			Auxiliary:   snap.cachedAuxiliary(),
			Fingerprint: storedFP,
			FromCache:   true,
			Now:         now,
		})
		return &result, nil
	}

	fresh, err := deadline.Required(ctx, StageFetchVideo, s.cfg.VideoFetch, func(ctx context.Context) (*domain.Video, error) {
		return s.source.GetVideo(ctx, videoID)
	})
	if err != nil {
		if ctx.Err() != nil && !errors.IsTimeout(err) {
			return nil, errors.Aborted(StageFetchVideo, err)
		}
		return nil, errors.Upstream(StageFetchVideo, err)
	}
	if fresh == nil {
		return nil, errors.NewNotFoundError("video not found on the data source", "video", videoID)
	}
	if fresh.ChannelID == "" {
		fresh.ChannelID = snap.subject.ChannelID
	}

	currentFP := Fingerprint(fresh)
	primaryFresh := snap.entry != nil && IsFresh(snap.entry.CapturedAt, snap.entry.Fingerprint, currentFP, now, s.cfg.PrimaryTTL)
	auxiliaryFresh := snap.auxiliary != nil && IsFresh(snap.auxiliary.CapturedAt, snap.auxiliary.Fingerprint, currentFP, now, s.cfg.AuxiliaryTTL)
	needComments := !auxiliaryFresh && !(snap.auxiliary == nil && fresh.Metrics.Comments == 0)

	var (
		comments      []domain.Comment
		related       []domain.RelatedVideo
		commentsOK    bool
		relatedOK     bool
		fetchWG       conc.WaitGroup
		notes         []string
		primary       domain.PrimaryPayload
		auxiliary     = snap.cachedAuxiliary()
		auxRefreshed  bool
		primaryReused = primaryFresh
	)
	if needComments {
		fetchWG.Go(func() {
			comments, commentsOK = s.fetchComments(ctx, videoID)
		})
	}
	fetchWG.Go(func() {
		related, relatedOK = s.fetchRelated(ctx, fresh.ChannelID)
	})
	fetchWG.Wait()

	if !relatedOK {
		related = nil
	}
	if needComments && !commentsOK {
		notes = append(notes, "Comments could not be fetched; comment analysis was not refreshed.")
	}

	switch {
	case !primaryFresh:
		outcome, niche, err := s.generateAll(ctx, videoID, fresh, related, rangeSel, comments, auxiliary)
		if err != nil {
			return nil, err
		}
		primary = outcome.Primary
		if niche != nil {
			primary.Niche = niche
		} else if snap.entry != nil && snap.entry.Primary.Niche != nil {
			primary.Niche = snap.entry.Primary.Niche
		}
		auxiliary, auxRefreshed = outcome.Auxiliary, outcome.AuxiliaryRefreshed
	case !auxiliaryFresh && len(comments) > 0:
		primary = snap.entry.Primary
		auxiliary, auxRefreshed = s.orchestrator.GenerateAuxiliary(ctx, fresh, comments, auxiliary)
	default:
		primary = snap.entry.Primary
	}

	if !primaryReused {
		s.writer.WritePrimary(domain.CacheEntry{
			VideoID:     videoID,
			Fingerprint: currentFP,
			CapturedAt:  now,
			Primary:     EnsurePrimaryShape(primary, videoID, fresh),
		})
	}
	if auxRefreshed && auxiliary != nil {
		s.writer.WriteAuxiliary(domain.AuxiliaryEntry{
			VideoID:     videoID,
			Fingerprint: currentFP,
			CapturedAt:  now,
			Payload:     *auxiliary,
		})
	} else if !auxiliaryFresh && !auxiliary.IsEmpty() {
		notes = append(notes, "Comment analysis is from an earlier capture and could not be refreshed.")
	}

	s.logger.Info("Analysis produced",
		zap.String("correlation_id", rc.CorrelationID),
		zap.String("video_id", videoID),
		zap.Bool("primary_reused", primaryReused),
		zap.Bool("comments_refreshed", auxRefreshed),
		zap.Bool("fingerprint_changed", storedFP != currentFP),
	)

	result := Assemble(AssembleInput{
		SubjectID:   videoID,
		Range:       rangeSel,
		Video:       fresh,
		Primary:     primary,
		Auxiliary:   auxiliary,
		Related:     related,
		Fingerprint: currentFP,
		FromCache:   primaryReused,
		Notes:       notes,
		Now:         now,
	})
	return &result, nil
}

// ProduceAuxiliaryOnly refreshes the comment analysis of a video whose primary
// narrative is already cached. The cached primary is reused regardless of age.
func (s *Service) ProduceAuxiliaryOnly(ctx context.Context, videoID, ownerID string, rangeSel domain.RangeSelector) (*domain.AnalysisResult, error) {
	videoID, ownerID, rangeSel, err := validateRequest(videoID, ownerID, rangeSel)
	if err != nil {
		return nil, err
	}

	ctx, rc := s.attachRequestContext(ctx)
	defer s.logStages(rc, "comments", videoID)

	snap, err := s.readSnapshot(ctx, videoID, ownerID)
	if err != nil {
		return nil, err
	}
	if snap.entry == nil {
		return nil, errors.NewNotFoundError("no cached analysis to attach comments to", "analysis", videoID)
	}

	now := s.now()
	fingerprint := Fingerprint(snap.subject)
	auxiliary := snap.cachedAuxiliary()

	var (
		notes     []string
		refreshed bool
	)
	comments, ok := s.fetchComments(ctx, videoID)
	switch {
	case !ok:
		notes = append(notes, "Comments could not be fetched; comment analysis was not refreshed.")
	case len(comments) == 0:
		notes = append(notes, "The video has no public comments to analyze.")
	default:
		auxiliary, refreshed = s.orchestrator.GenerateAuxiliary(ctx, snap.subject, comments, auxiliary)
	}

	if refreshed && auxiliary != nil {
		s.writer.WriteAuxiliary(domain.AuxiliaryEntry{
			VideoID:     videoID,
			Fingerprint: fingerprint,
			CapturedAt:  now,
			Payload:     *auxiliary,
		})
	}

	s.logger.Info("Comment analysis produced",
		zap.String("correlation_id", rc.CorrelationID),
		zap.String("video_id", videoID),
		zap.Bool("comments_refreshed", refreshed),
	)

	result := Assemble(AssembleInput{
		SubjectID:   videoID,
		Range:       rangeSel,
		Video:       snap.subject,
		Primary:     snap.entry.Primary,
		Auxiliary:   auxiliary,
		Fingerprint: fingerprint,
		FromCache:   true,
		Notes:       notes,
		Now:         now,
	})
	return &result, nil
}

func validateRequest(videoID, ownerID string, rangeSel domain.RangeSelector) (string, string, domain.RangeSelector, error) {
	videoID = strings.TrimSpace(videoID)
	ownerID = strings.TrimSpace(ownerID)
	if videoID == "" {
		return "", "", "", errors.NewValidationError("video id is required", "video_id", videoID)
	}
	if len(videoID) > maxVideoIDLength || strings.ContainsAny(videoID, " \t\r\n/?#") {
		return "", "", "", errors.NewValidationError("video id is malformed", "video_id", videoID)
	}
	if ownerID == "" {
		return "", "", "", errors.NewValidationError("owner id is required", "owner_id", ownerID)
	}
	parsed, ok := domain.ParseRangeSelector(string(rangeSel))
	if !ok {
		return "", "", "", errors.NewValidationError("unsupported range", "range", string(rangeSel))
	}
	return videoID, ownerID, parsed, nil
}

func (s *Service) attachRequestContext(ctx context.Context) (context.Context, *domain.RequestContext) {
	if rc := domain.RequestContextFrom(ctx); rc != nil {
		return ctx, rc
	}
	rc := domain.NewRequestContext()
	return domain.WithRequestContext(ctx, rc), rc
}

func (s *Service) logStages(rc *domain.RequestContext, operation, videoID string) {
	stages := rc.Stages()
	fields := make([]zap.Field, 0, len(stages)+4)
	fields = append(fields,
		zap.String("correlation_id", rc.CorrelationID),
		zap.String("operation", operation),
		zap.String("video_id", videoID),
		zap.Duration("total", time.Since(rc.StartedAt)),
	)
	for _, st := range stages {
		fields = append(fields, zap.Duration(st.Stage, st.Duration))
	}
	s.logger.Debug("Request stage timings", fields...)
}

// readSnapshot loads the subject, ownership and both cache entries in
// parallel and settles all four before returning. Entry read failures degrade
// to absence.
func (s *Service) readSnapshot(ctx context.Context, videoID, ownerID string) (*snapshot, error) {
	snap := &snapshot{}
	p := pool.New().WithErrors()

	p.Go(func() error {
		subject, err := deadline.Required(ctx, StageLoadSubject, s.cfg.StoreRead, func(ctx context.Context) (*domain.Video, error) {
			return s.store.LoadSubject(ctx, videoID)
		})
		snap.subject = subject
		return err
	})
	p.Go(func() error {
		owned, err := deadline.Required(ctx, StageLoadOwnership, s.cfg.StoreRead, func(ctx context.Context) (bool, error) {
			return s.store.IsOwner(ctx, videoID, ownerID)
		})
		snap.owned = owned
		return err
	})
	p.Go(func() error {
		snap.entry, _ = deadline.Optional(ctx, s.logger, StageLoadEntry, s.cfg.StoreRead, func(ctx context.Context) (*domain.CacheEntry, error) {
			return s.store.LoadEntry(ctx, videoID)
		})
		return nil
	})
	p.Go(func() error {
		snap.auxiliary, _ = deadline.Optional(ctx, s.logger, StageLoadAuxiliary, s.cfg.StoreRead, func(ctx context.Context) (*domain.AuxiliaryEntry, error) {
			return s.store.LoadAuxiliaryEntry(ctx, videoID)
		})
		return nil
	})

	if err := p.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Aborted(StageLoadSubject, ctx.Err())
		}
		s.logger.Error("Failed to read analysis state", zap.String("video_id", videoID), zap.Error(err))
		return nil, errors.NewInternalError("failed to read analysis state", err)
	}
	if snap.subject == nil || !snap.owned {
		return nil, errors.NewNotFoundError("video not found", "video", videoID)
	}
	return snap, nil
}

// servableFromCache reports whether the stored state alone answers the
// request: a fresh primary entry plus a fresh auxiliary entry, or no auxiliary
// entry for a subject that has no comments.
func (s *Service) servableFromCache(snap *snapshot, fingerprint string, now time.Time) bool {
	if snap.entry == nil || !IsFresh(snap.entry.CapturedAt, snap.entry.Fingerprint, fingerprint, now, s.cfg.PrimaryTTL) {
		return false
	}
	if snap.auxiliary == nil {
		return snap.subject.Metrics.Comments == 0
	}
	return IsFresh(snap.auxiliary.CapturedAt, snap.auxiliary.Fingerprint, fingerprint, now, s.cfg.AuxiliaryTTL)
}

func (s *Service) fetchComments(ctx context.Context, videoID string) ([]domain.Comment, bool) {
	return deadline.Optional(ctx, s.logger, StageFetchComments, s.cfg.CommentFetch, func(ctx context.Context) ([]domain.Comment, error) {
		return s.source.ListComments(ctx, videoID, s.cfg.MaxComments)
	})
}

func (s *Service) fetchRelated(ctx context.Context, channelID string) ([]domain.RelatedVideo, bool) {
	if channelID == "" {
		return nil, false
	}
	related, ok := deadline.Optional(ctx, s.logger, StageFetchRelated, s.cfg.RelatedFetch, func(ctx context.Context) ([]domain.RelatedVideo, error) {
		return s.source.ListRecentUploads(ctx, channelID, s.cfg.MaxRelated)
	})
	if ok && related == nil {
		related = []domain.RelatedVideo{}
	}
	return related, ok
}

// generateAll runs the narrative tasks and, alongside them, the channel niche
// classification. A niche failure only drops the niche.
func (s *Service) generateAll(ctx context.Context, videoID string, video *domain.Video, related []domain.RelatedVideo, rangeSel domain.RangeSelector, comments []domain.Comment, cachedAux *domain.AuxiliaryPayload) (*NarrativeOutcome, *domain.Niche, error) {
	var (
		outcome *NarrativeOutcome
		genErr  error
		niche   *domain.Niche
		wg      conc.WaitGroup
	)
	wg.Go(func() {
		outcome, genErr = s.orchestrator.Generate(ctx, OrchestratorInput{
			SubjectID:       videoID,
			Video:           video,
			Related:         related,
			Range:           rangeSel,
			Comments:        comments,
			CachedAuxiliary: cachedAux,
		})
	})
	if s.niche != nil && video.ChannelID != "" {
		wg.Go(func() {
			niche, _ = deadline.Optional(ctx, s.logger, StageNiche, s.cfg.NicheTimeout, func(ctx context.Context) (*domain.Niche, error) {
				return s.niche.GetOrRegenerate(ctx, video.ChannelID, video, related)
			})
		})
	}
	wg.Wait()

	if genErr != nil {
		return nil, nil, genErr
	}
	return outcome, niche, nil
}
