package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeBackend struct {
	mu        sync.Mutex
	entries   map[string]domain.CacheEntry
	aux       map[string]domain.AuxiliaryEntry
	niches    map[string]domain.Niche
	loads     int
	upsertErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		entries: map[string]domain.CacheEntry{},
		aux:     map[string]domain.AuxiliaryEntry{},
		niches:  map[string]domain.Niche{},
	}
}

func (f *fakeBackend) LoadSubject(context.Context, string) (*domain.Video, error) { return nil, nil }
func (f *fakeBackend) IsOwner(context.Context, string, string) (bool, error)      { return true, nil }

func (f *fakeBackend) LoadEntry(_ context.Context, id string) (*domain.CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	e, ok := f.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeBackend) LoadAuxiliaryEntry(_ context.Context, id string) (*domain.AuxiliaryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	e, ok := f.aux[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeBackend) UpsertEntry(_ context.Context, e domain.CacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.entries[e.VideoID] = e
	return nil
}

func (f *fakeBackend) UpsertAuxiliaryEntry(_ context.Context, e domain.AuxiliaryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.aux[e.VideoID] = e
	return nil
}

func (f *fakeBackend) LoadNiche(_ context.Context, id string) (*domain.Niche, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.niches[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (f *fakeBackend) UpsertNiche(_ context.Context, id string, n domain.Niche) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.niches[id] = n
	return nil
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return false, m.getErr
	}
	raw, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = raw
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			delete(m.values, k)
			n++
		}
	}
	return n, nil
}

func sampleEntry() domain.CacheEntry {
	return domain.CacheEntry{
		VideoID:     "vid1",
		Fingerprint: "00000000deadbeef",
		CapturedAt:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Primary:     domain.PrimaryPayload{Summary: "s", Strengths: []string{"hook"}},
	}
}

func TestUpsertWritesThroughAndHotReadSkipsBackend(t *testing.T) {
	backend := newFakeBackend()
	hot := newMemoryCache()
	s := NewAnalysisStore(backend, hot, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.UpsertEntry(ctx, sampleEntry()))

	got, err := s.LoadEntry(ctx, "vid1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "00000000deadbeef", got.Fingerprint)
	assert.Equal(t, []string{"hook"}, got.Primary.Strengths)
	assert.Equal(t, 0, backend.loads)
}

func TestHotCacheFailureFallsBackToBackend(t *testing.T) {
	backend := newFakeBackend()
	backend.entries["vid1"] = sampleEntry()
	hot := newMemoryCache()
	hot.getErr = stderrors.New("connection refused")

	core, logs := observer.New(zap.WarnLevel)
	s := NewAnalysisStore(backend, hot, zap.New(core))

	got, err := s.LoadEntry(context.Background(), "vid1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, backend.loads)
	assert.Equal(t, 1, logs.FilterMessage("Hot cache read failed, using Postgres").Len())
}

func TestMissReturnsNilAndBackendHitIsCopied(t *testing.T) {
	backend := newFakeBackend()
	hot := newMemoryCache()
	s := NewAnalysisStore(backend, hot, nil)
	ctx := context.Background()

	missing, err := s.LoadAuxiliaryEntry(ctx, "none")
	require.NoError(t, err)
	assert.Nil(t, missing)

	backend.aux["vid1"] = domain.AuxiliaryEntry{VideoID: "vid1", Fingerprint: "fp"}
	_, err = s.LoadAuxiliaryEntry(ctx, "vid1")
	require.NoError(t, err)
	_, err = s.LoadAuxiliaryEntry(ctx, "vid1")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.loads, "second read of vid1 should come from the hot tier")
}

func TestFailedUpsertInvalidatesHotCopy(t *testing.T) {
	backend := newFakeBackend()
	hot := newMemoryCache()
	s := NewAnalysisStore(backend, hot, nil)
	ctx := context.Background()

	require.NoError(t, s.UpsertEntry(ctx, sampleEntry()))
	backend.upsertErr = stderrors.New("disk full")

	err := s.UpsertEntry(ctx, sampleEntry())
	require.Error(t, err)
	_, ok := hot.values[entryKey("vid1")]
	assert.False(t, ok)
}

func TestStoreWithoutHotTier(t *testing.T) {
	backend := newFakeBackend()
	s := NewAnalysisStore(backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, s.UpsertNiche(ctx, "chan", domain.Niche{Label: "gaming"}))
	n, err := s.LoadNiche(ctx, "chan")
	require.NoError(t, err)
	assert.Equal(t, "gaming", n.Label)
}
