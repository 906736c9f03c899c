package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/internal/service/database"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Repository is the Postgres side of the analysis cache.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepository(postgres *database.PostgresService, logger *zap.Logger) *Repository {
	return &Repository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

// LoadSubject returns the stored snapshot of a video, or nil when unknown.
func (r *Repository) LoadSubject(ctx context.Context, videoID string) (*domain.Video, error) {
	query := `
		SELECT id, channel_id, channel_title, title, description, tags,
		       duration_seconds, category_id, published_at, thumbnail,
		       view_count, like_count, comment_count
		FROM videos
		WHERE id = $1
		LIMIT 1
	`

	var (
		v            domain.Video
		channelTitle sql.NullString
		description  sql.NullString
		categoryID   sql.NullString
		publishedAt  sql.NullTime
		thumbnail    sql.NullString
		tags         []string
	)

	err := r.db.QueryRowContext(ctx, query, videoID).Scan(
		&v.ID, &v.ChannelID, &channelTitle, &v.Title, &description, pq.Array(&tags),
		&v.DurationSeconds, &categoryID, &publishedAt, &thumbnail,
		&v.Metrics.Views, &v.Metrics.Likes, &v.Metrics.Comments,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query video %s: %w", videoID, err)
	}

	v.ChannelTitle = channelTitle.String
	v.Description = description.String
	v.CategoryID = categoryID.String
	v.Thumbnail = thumbnail.String
	if publishedAt.Valid {
		v.PublishedAt = publishedAt.Time
	}
	v.Tags = tags
	if v.Tags == nil {
		v.Tags = []string{}
	}
	return &v, nil
}

func (r *Repository) IsOwner(ctx context.Context, videoID, ownerID string) (bool, error) {
	var owned bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1 AND owner_id = $2)`,
		videoID, ownerID,
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("failed to check ownership of %s: %w", videoID, err)
	}
	return owned, nil
}

func (r *Repository) LoadEntry(ctx context.Context, videoID string) (*domain.CacheEntry, error) {
	entry := &domain.CacheEntry{VideoID: videoID}
	found, err := r.loadPayload(ctx, "video_analysis_cache", videoID, &entry.Fingerprint, &entry.CapturedAt, &entry.Primary)
	if err != nil || !found {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) LoadAuxiliaryEntry(ctx context.Context, videoID string) (*domain.AuxiliaryEntry, error) {
	entry := &domain.AuxiliaryEntry{VideoID: videoID}
	found, err := r.loadPayload(ctx, "video_comment_analysis_cache", videoID, &entry.Fingerprint, &entry.CapturedAt, &entry.Payload)
	if err != nil || !found {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) loadPayload(ctx context.Context, table, videoID string, fingerprint *string, capturedAt *time.Time, payload any) (bool, error) {
	query := fmt.Sprintf(`SELECT fingerprint, captured_at, payload FROM %s WHERE video_id = $1`, table)

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, videoID).Scan(fingerprint, capturedAt, &raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query %s for %s: %w", table, videoID, err)
	}

	if err := json.Unmarshal(raw, payload); err != nil {
		r.logger.Warn("Discarding undecodable cache payload",
			zap.String("table", table),
			zap.String("video_id", videoID),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

// UpsertEntry is idempotent for a given (video, fingerprint).
func (r *Repository) UpsertEntry(ctx context.Context, entry domain.CacheEntry) error {
	return r.upsertPayload(ctx, "video_analysis_cache", entry.VideoID, entry.Fingerprint, entry.CapturedAt, entry.Primary)
}

func (r *Repository) UpsertAuxiliaryEntry(ctx context.Context, entry domain.AuxiliaryEntry) error {
	return r.upsertPayload(ctx, "video_comment_analysis_cache", entry.VideoID, entry.Fingerprint, entry.CapturedAt, entry.Payload)
}

func (r *Repository) upsertPayload(ctx context.Context, table, videoID, fingerprint string, capturedAt time.Time, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", table, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (video_id, fingerprint, captured_at, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (video_id) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			captured_at = EXCLUDED.captured_at,
			payload     = EXCLUDED.payload
	`, table)

	if _, err := r.db.ExecContext(ctx, query, videoID, fingerprint, capturedAt, raw); err != nil {
		return fmt.Errorf("failed to upsert %s for %s: %w", table, videoID, err)
	}
	return nil
}

func (r *Repository) LoadNiche(ctx context.Context, channelID string) (*domain.Niche, error) {
	var n domain.Niche
	err := r.db.QueryRowContext(ctx, `
		SELECT label, sub_niche, audience, confidence, captured_at
		FROM channel_niches
		WHERE channel_id = $1
	`, channelID).Scan(&n.Label, &n.SubNiche, &n.Audience, &n.Confidence, &n.CapturedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query niche for %s: %w", channelID, err)
	}
	return &n, nil
}

func (r *Repository) UpsertNiche(ctx context.Context, channelID string, niche domain.Niche) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_niches (channel_id, label, sub_niche, audience, confidence, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (channel_id) DO UPDATE SET
			label       = EXCLUDED.label,
			sub_niche   = EXCLUDED.sub_niche,
			audience    = EXCLUDED.audience,
			confidence  = EXCLUDED.confidence,
			captured_at = EXCLUDED.captured_at
	`, channelID, niche.Label, niche.SubNiche, niche.Audience, niche.Confidence, niche.CapturedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert niche for %s: %w", channelID, err)
	}
	return nil
}
