package domain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// RequestContext accumulates per-stage timings for one analysis request.
// Stages run concurrently inside the orchestrator, so appends are guarded.
type RequestContext struct {
	CorrelationID string
	StartedAt     time.Time

	mu     sync.Mutex
	stages []StageTiming
}

func NewRequestContext() *RequestContext {
	return &RequestContext{
		CorrelationID: uuid.NewString(),
		StartedAt:     time.Now(),
	}
}

func (rc *RequestContext) Record(stage string, d time.Duration) {
	if rc == nil {
		return
	}
	rc.mu.Lock()
	rc.stages = append(rc.stages, StageTiming{Stage: stage, Duration: d})
	rc.mu.Unlock()
}

// Stages returns a copy of the recorded timings in append order.
func (rc *RequestContext) Stages() []StageTiming {
	if rc == nil {
		return nil
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]StageTiming, len(rc.stages))
	copy(out, rc.stages)
	return out
}

type requestContextKey struct{}

func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom returns the RequestContext carried by ctx, or nil.
func RequestContextFrom(ctx context.Context) *RequestContext {
	if ctx == nil {
		return nil
	}
	rc, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc
}
