package deadline

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequiredReturnsValue(t *testing.T) {
	rc := domain.NewRequestContext()
	ctx := domain.WithRequestContext(context.Background(), rc)

	got, err := Required(ctx, "youtube.video", time.Second, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	stages := rc.Stages()
	require.Len(t, stages, 1)
	assert.Equal(t, "youtube.video", stages[0].Stage)
}

func TestRequiredPropagatesOpError(t *testing.T) {
	boom := stderrors.New("boom")
	_, err := Required(context.Background(), "gemini", time.Second, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.IsTimeout(err))
}

func TestRequiredTimesOutWithoutWaitingForOp(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := Required(context.Background(), "gemini.primary", 20*time.Millisecond, func(context.Context) (int, error) {
		// ignores its context on purpose
		<-release
		return 1, nil
	})
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.Less(t, time.Since(start), time.Second)

	ie, ok := errors.AsInsightError(err)
	require.True(t, ok)
	assert.Equal(t, "gemini.primary", ie.Details["stage"])
	assert.Equal(t, 504, ie.StatusCode)
}

func TestRequiredMapsContextAwareTimeout(t *testing.T) {
	_, err := Required(context.Background(), "youtube.comments", 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.True(t, errors.IsTimeout(err))
}

func TestRequiredRecoversPanics(t *testing.T) {
	_, err := Required(context.Background(), "panicky", time.Second, func(context.Context) (int, error) {
		panic("bad provider")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicky panicked")
}

func TestRequiredHonorsParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Required(ctx, "youtube.video", time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequiredSkipsOpWhenParentIsDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := Required(ctx, "store.subject", time.Second, func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestOptionalSwallowsFailures(t *testing.T) {
	got, ok := Optional(context.Background(), zap.NewNop(), "youtube.comments", time.Second, func(context.Context) ([]string, error) {
		return nil, stderrors.New("quota")
	})
	assert.False(t, ok)
	assert.Nil(t, got)

	release := make(chan struct{})
	defer close(release)
	_, ok = Optional(context.Background(), nil, "youtube.related", 10*time.Millisecond, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.False(t, ok)

	got, ok = Optional(context.Background(), zap.NewNop(), "youtube.comments", time.Second, func(context.Context) ([]string, error) {
		return []string{"nice"}, nil
	})
	assert.True(t, ok)
	assert.Equal(t, []string{"nice"}, got)
}
