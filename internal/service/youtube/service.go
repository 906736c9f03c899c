package youtube

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Config selects the credential mode: an API key, or an OAuth client secret
// plus a previously authorized token file.
type Config struct {
	APIKey            string
	CredentialsFile   string
	TokenFile         string
	RequestsPerSecond float64
}

// Source reads video metadata, comments and channel uploads from the YouTube Data API.
type Source struct {
	service    *youtube.Service
	limiter    *rate.Limiter
	logger     *zap.Logger
	now        func() time.Time
	quotaUsed  int
	quotaMu    sync.Mutex
	quotaReset time.Time
}

func NewSource(ctx context.Context, cfg Config, logger *zap.Logger) (*Source, error) {
	var opts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "" && cfg.TokenFile != "":
		client, err := NewOAuthHTTPClient(ctx, cfg.CredentialsFile, cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithHTTPClient(client))
	default:
		return nil, fmt.Errorf("YouTube API key or OAuth credentials are required")
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	src := newSource(service, cfg.RequestsPerSecond, logger)
	logger.Info("YouTube source initialized",
		zap.Bool("oauth", cfg.APIKey == ""),
		zap.Time("quotaReset", src.quotaReset))
	return src, nil
}

func newSource(service *youtube.Service, rps float64, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rps <= 0 {
		rps = constants.YouTubeQuota.RequestsPerSecond
	}
	s := &Source{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(rps), constants.YouTubeQuota.Burst),
		logger:  logger,
		now:     time.Now,
	}
	s.quotaReset = nextQuotaReset(s.now())
	return s
}

// GetVideo returns nil, nil when the video does not exist or is private.
func (s *Source) GetVideo(ctx context.Context, videoID string) (*domain.Video, error) {
	if err := s.acquire(ctx, constants.YouTubeQuota.VideosListCost); err != nil {
		return nil, err
	}

	resp, err := s.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	s.consumeQuota(constants.YouTubeQuota.VideosListCost)
	if err != nil {
		return nil, s.apiError("videos.list", err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	video := convertVideo(resp.Items[0])
	s.logger.Debug("Video metadata fetched",
		zap.String("video_id", videoID),
		zap.Uint64("views", video.Metrics.Views))
	return video, nil
}

// ListComments returns up to maxResults top-level comments ordered by relevance.
// Disabled comment sections yield an empty slice.
func (s *Source) ListComments(ctx context.Context, videoID string, maxResults int) ([]domain.Comment, error) {
	if maxResults <= 0 {
		maxResults = constants.AnalysisLimits.MaxComments
	}
	if err := s.acquire(ctx, constants.YouTubeQuota.CommentThreadCost); err != nil {
		return nil, err
	}

	resp, err := s.service.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		Order("relevance").
		TextFormat("html").
		MaxResults(int64(min(maxResults, 100))).
		Context(ctx).
		Do()
	s.consumeQuota(constants.YouTubeQuota.CommentThreadCost)
	if err != nil {
		if isCommentsDisabled(err) {
			s.logger.Debug("Comments disabled", zap.String("video_id", videoID))
			return []domain.Comment{}, nil
		}
		return nil, s.apiError("commentThreads.list", err)
	}

	comments := make([]domain.Comment, 0, len(resp.Items))
	for _, thread := range resp.Items {
		if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil || thread.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		top := thread.Snippet.TopLevelComment
		text := plainText(top.Snippet.TextDisplay)
		if text == "" {
			text = strings.TrimSpace(top.Snippet.TextOriginal)
		}
		if text == "" {
			continue
		}
		comments = append(comments, domain.Comment{
			ID:          top.Id,
			Author:      top.Snippet.AuthorDisplayName,
			Text:        text,
			LikeCount:   top.Snippet.LikeCount,
			PublishedAt: parseTime(top.Snippet.PublishedAt),
		})
	}

	s.logger.Debug("Comments fetched",
		zap.String("video_id", videoID),
		zap.Int("count", len(comments)))
	return comments, nil
}

// ListRecentUploads returns the channel's latest uploads with statistics,
// newest first, via the channel's uploads playlist.
func (s *Source) ListRecentUploads(ctx context.Context, channelID string, maxResults int) ([]domain.RelatedVideo, error) {
	if maxResults <= 0 {
		maxResults = constants.AnalysisLimits.MaxRelatedVideos
	}
	cost := constants.YouTubeQuota.ChannelsListCost + constants.YouTubeQuota.PlaylistItemsCost + constants.YouTubeQuota.VideosListCost
	if err := s.acquire(ctx, cost); err != nil {
		return nil, err
	}
	defer s.consumeQuota(cost)

	channels, err := s.service.Channels.List([]string{"contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, s.apiError("channels.list", err)
	}
	if len(channels.Items) == 0 || channels.Items[0].ContentDetails == nil || channels.Items[0].ContentDetails.RelatedPlaylists == nil {
		return []domain.RelatedVideo{}, nil
	}
	uploads := channels.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return []domain.RelatedVideo{}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	items, err := s.service.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(uploads).
		MaxResults(int64(min(maxResults, 50))).
		Context(ctx).
		Do()
	if err != nil {
		return nil, s.apiError("playlistItems.list", err)
	}

	ids := make([]string, 0, len(items.Items))
	for _, item := range items.Items {
		if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
			ids = append(ids, item.ContentDetails.VideoId)
		}
	}
	if len(ids) == 0 {
		return []domain.RelatedVideo{}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	videos, err := s.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, s.apiError("videos.list", err)
	}

	related := make([]domain.RelatedVideo, 0, len(videos.Items))
	for _, item := range videos.Items {
		v := convertVideo(item)
		related = append(related, domain.RelatedVideo{
			ID:              v.ID,
			Title:           v.Title,
			PublishedAt:     v.PublishedAt,
			DurationSeconds: v.DurationSeconds,
			Metrics:         v.Metrics,
		})
	}

	s.logger.Debug("Recent uploads fetched",
		zap.String("channel", channelID),
		zap.Int("count", len(related)))
	return related, nil
}

func (s *Source) acquire(ctx context.Context, cost int) error {
	if err := s.checkQuota(cost); err != nil {
		return err
	}
	return s.limiter.Wait(ctx)
}

func nextQuotaReset(now time.Time) time.Time {
	pt, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		pt = time.FixedZone("PT", -8*3600)
	}
	local := now.In(pt)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, pt)
}

func (s *Source) checkQuota(cost int) error {
	s.quotaMu.Lock()
	defer s.quotaMu.Unlock()

	now := s.now()
	if now.After(s.quotaReset) {
		s.quotaUsed = 0
		s.quotaReset = nextQuotaReset(now)
		s.logger.Info("YouTube API quota auto-reset",
			zap.Time("nextReset", s.quotaReset))
	}

	limit := constants.YouTubeQuota.DailyLimit
	if s.quotaUsed+cost > limit-constants.YouTubeQuota.SafetyMargin {
		qe := &QuotaExceededError{
			Used:      s.quotaUsed,
			Limit:     limit,
			Requested: cost,
			ResetTime: s.quotaReset,
		}
		return errors.NewRateLimitedError("YouTube API quota exhausted", s.quotaReset.Sub(now)).WithCause(qe)
	}

	return nil
}

func (s *Source) consumeQuota(cost int) {
	s.quotaMu.Lock()
	defer s.quotaMu.Unlock()

	s.quotaUsed += cost
	limit := constants.YouTubeQuota.DailyLimit
	remaining := limit - s.quotaUsed

	s.logger.Debug("YouTube API quota consumed",
		zap.Int("cost", cost),
		zap.Int("used", s.quotaUsed),
		zap.Int("remaining", remaining))

	if remaining < constants.YouTubeQuota.SafetyMargin {
		s.logger.Warn("YouTube API quota running low",
			zap.Int("remaining", remaining),
			zap.Time("resetTime", s.quotaReset))
	}
}

func (s *Source) GetQuotaStatus() (used int, remaining int, resetTime time.Time) {
	s.quotaMu.Lock()
	defer s.quotaMu.Unlock()

	limit := constants.YouTubeQuota.DailyLimit
	if s.now().After(s.quotaReset) {
		return 0, limit, nextQuotaReset(s.now())
	}
	return s.quotaUsed, limit - s.quotaUsed, s.quotaReset
}

func (s *Source) apiError(call string, err error) error {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		if apiErr.Code == http.StatusForbidden && hasReason(apiErr, "quotaExceeded", "dailyLimitExceeded") {
			s.quotaMu.Lock()
			reset := s.quotaReset
			s.quotaMu.Unlock()
			return errors.NewRateLimitedError("YouTube API quota exhausted", reset.Sub(s.now())).WithCause(err)
		}
		if apiErr.Code == http.StatusTooManyRequests {
			return errors.NewRateLimitedError("YouTube API rate limited", time.Minute).WithCause(err)
		}
	}
	s.logger.Warn("YouTube API call failed", zap.String("call", call), zap.Error(err))
	return fmt.Errorf("YouTube %s error: %w", call, err)
}

func isCommentsDisabled(err error) bool {
	var apiErr *googleapi.Error
	return stderrors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden && hasReason(apiErr, "commentsDisabled")
}

func hasReason(apiErr *googleapi.Error, reasons ...string) bool {
	for _, item := range apiErr.Errors {
		for _, r := range reasons {
			if item.Reason == r {
				return true
			}
		}
	}
	return false
}

func convertVideo(item *youtube.Video) *domain.Video {
	v := &domain.Video{ID: item.Id, Tags: []string{}}
	if sn := item.Snippet; sn != nil {
		v.ChannelID = sn.ChannelId
		v.ChannelTitle = sn.ChannelTitle
		v.Title = sn.Title
		v.Description = sn.Description
		v.CategoryID = sn.CategoryId
		v.PublishedAt = parseTime(sn.PublishedAt)
		v.Thumbnail = extractThumbnail(sn.Thumbnails)
		if len(sn.Tags) > 0 {
			v.Tags = append(v.Tags, sn.Tags...)
		}
	}
	if cd := item.ContentDetails; cd != nil {
		if secs, err := parseISODuration(cd.Duration); err == nil {
			v.DurationSeconds = secs
		}
	}
	if st := item.Statistics; st != nil {
		v.Metrics = domain.VideoMetrics{
			Views:    st.ViewCount,
			Likes:    st.LikeCount,
			Comments: st.CommentCount,
		}
	}
	return v
}

func extractThumbnail(thumbnails *youtube.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}
	for _, t := range []*youtube.Thumbnail{thumbnails.Maxres, thumbnails.High, thumbnails.Medium, thumbnails.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

type QuotaExceededError struct {
	Used      int
	Limit     int
	Requested int
	ResetTime time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("YouTube API quota exceeded: used %d/%d (requested %d more), resets at %s",
		e.Used, e.Limit, e.Requested, e.ResetTime.Format(time.RFC3339))
}
