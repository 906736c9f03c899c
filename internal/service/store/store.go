// Package store reads and writes persisted analysis state. Postgres is the
// record; Redis, when configured, fronts the entry reads.
package store

import (
	"context"
	"time"

	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/kapu/creator-insight-go/internal/domain"
	"go.uber.org/zap"
)

// Backend is the system of record; Repository satisfies it.
type Backend interface {
	LoadSubject(ctx context.Context, videoID string) (*domain.Video, error)
	IsOwner(ctx context.Context, videoID, ownerID string) (bool, error)
	LoadEntry(ctx context.Context, videoID string) (*domain.CacheEntry, error)
	LoadAuxiliaryEntry(ctx context.Context, videoID string) (*domain.AuxiliaryEntry, error)
	UpsertEntry(ctx context.Context, entry domain.CacheEntry) error
	UpsertAuxiliaryEntry(ctx context.Context, entry domain.AuxiliaryEntry) error
	LoadNiche(ctx context.Context, channelID string) (*domain.Niche, error)
	UpsertNiche(ctx context.Context, channelID string, niche domain.Niche) error
}

// JSONCache is the hot tier; cache.CacheService satisfies it.
type JSONCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
}

type AnalysisStore struct {
	repo   Backend
	cache  JSONCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewAnalysisStore wraps repo with an optional hot tier; pass a nil cache to
// read Postgres directly.
func NewAnalysisStore(repo Backend, cache JSONCache, logger *zap.Logger) *AnalysisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisStore{
		repo:   repo,
		cache:  cache,
		ttl:    constants.CacheTTL.RedisEntry,
		logger: logger,
	}
}

func entryKey(videoID string) string     { return "analysis:primary:" + videoID }
func auxiliaryKey(videoID string) string { return "analysis:comments:" + videoID }
func nicheKey(channelID string) string   { return "analysis:niche:" + channelID }

func (s *AnalysisStore) LoadSubject(ctx context.Context, videoID string) (*domain.Video, error) {
	return s.repo.LoadSubject(ctx, videoID)
}

func (s *AnalysisStore) IsOwner(ctx context.Context, videoID, ownerID string) (bool, error) {
	return s.repo.IsOwner(ctx, videoID, ownerID)
}

func (s *AnalysisStore) LoadEntry(ctx context.Context, videoID string) (*domain.CacheEntry, error) {
	return readThrough(ctx, s, entryKey(videoID), func(ctx context.Context) (*domain.CacheEntry, error) {
		return s.repo.LoadEntry(ctx, videoID)
	})
}

func (s *AnalysisStore) LoadAuxiliaryEntry(ctx context.Context, videoID string) (*domain.AuxiliaryEntry, error) {
	return readThrough(ctx, s, auxiliaryKey(videoID), func(ctx context.Context) (*domain.AuxiliaryEntry, error) {
		return s.repo.LoadAuxiliaryEntry(ctx, videoID)
	})
}

func (s *AnalysisStore) LoadNiche(ctx context.Context, channelID string) (*domain.Niche, error) {
	return readThrough(ctx, s, nicheKey(channelID), func(ctx context.Context) (*domain.Niche, error) {
		return s.repo.LoadNiche(ctx, channelID)
	})
}

func (s *AnalysisStore) UpsertEntry(ctx context.Context, entry domain.CacheEntry) error {
	if err := s.repo.UpsertEntry(ctx, entry); err != nil {
		s.invalidate(ctx, entryKey(entry.VideoID))
		return err
	}
	s.writeThrough(ctx, entryKey(entry.VideoID), entry)
	return nil
}

func (s *AnalysisStore) UpsertAuxiliaryEntry(ctx context.Context, entry domain.AuxiliaryEntry) error {
	if err := s.repo.UpsertAuxiliaryEntry(ctx, entry); err != nil {
		s.invalidate(ctx, auxiliaryKey(entry.VideoID))
		return err
	}
	s.writeThrough(ctx, auxiliaryKey(entry.VideoID), entry)
	return nil
}

func (s *AnalysisStore) UpsertNiche(ctx context.Context, channelID string, niche domain.Niche) error {
	if err := s.repo.UpsertNiche(ctx, channelID, niche); err != nil {
		s.invalidate(ctx, nicheKey(channelID))
		return err
	}
	s.writeThrough(ctx, nicheKey(channelID), niche)
	return nil
}

// readThrough consults the hot tier first. Hot-tier failures are logged and
// fall through to Postgres; a Postgres hit is copied back.
func readThrough[T any](ctx context.Context, s *AnalysisStore, key string, load func(context.Context) (*T, error)) (*T, error) {
	if s.cache != nil {
		var cached T
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Hot cache read failed, using Postgres", zap.String("key", key), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	value, err := load(ctx)
	if err != nil || value == nil {
		return value, err
	}
	s.writeThrough(ctx, key, value)
	return value, nil
}

func (s *AnalysisStore) writeThrough(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("Hot cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *AnalysisStore) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Del(ctx, key); err != nil {
		s.logger.Warn("Hot cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
