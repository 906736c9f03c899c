// Package inflight deduplicates concurrent computations of the same key.
package inflight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	startedAt time.Time
	timer     *time.Timer
}

// Registry collapses concurrent Do calls for one key into a single computation.
// An entry is inserted when the computation starts and removed when it settles;
// a safety timer evicts entries that never settle so later callers can retry.
type Registry[T any] struct {
	group   singleflight.Group
	safety  time.Duration
	logger  *zap.Logger
	mu      sync.Mutex
	entries map[string]*entry
	waiters map[string]int
}

func NewRegistry[T any](safety time.Duration, logger *zap.Logger) *Registry[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if safety <= 0 {
		safety = time.Minute
	}
	return &Registry[T]{
		safety:  safety,
		logger:  logger,
		entries: make(map[string]*entry),
		waiters: make(map[string]int),
	}
}

// Do runs fn once per key among concurrent callers. shared reports whether the
// result was handed to more than one caller. The computation runs detached from
// any single caller's cancellation and is bounded by the safety timeout.
func (r *Registry[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (value T, shared bool, err error) {
	ch := r.group.DoChan(key, func() (any, error) {
		e := r.begin(key)
		defer r.settle(key, e)

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.safety)
		defer cancel()
		return r.run(runCtx, key, fn)
	})

	r.mu.Lock()
	r.waiters[key]++
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		if r.waiters[key]--; r.waiters[key] <= 0 {
			delete(r.waiters, key)
		}
		r.mu.Unlock()
	}()

	select {
	case res := <-ch:
		if res.Err != nil {
			return value, res.Shared, res.Err
		}
		v, _ := res.Val.(T)
		return v, res.Shared, nil
	case <-ctx.Done():
		return value, false, ctx.Err()
	}
}

func (r *Registry[T]) run(ctx context.Context, key string, fn func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("inflight computation %q panicked: %v", key, rec)
		}
	}()
	return fn(ctx)
}

func (r *Registry[T]) begin(key string) *entry {
	e := &entry{startedAt: time.Now()}
	r.mu.Lock()
	r.entries[key] = e
	e.timer = time.AfterFunc(r.safety, func() { r.evict(key, e) })
	r.mu.Unlock()
	return e
}

func (r *Registry[T]) settle(key string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.timer.Stop()
	if r.entries[key] == e {
		delete(r.entries, key)
	}
}

func (r *Registry[T]) evict(key string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[key] != e {
		return
	}
	delete(r.entries, key)
	r.group.Forget(key)
	r.logger.Warn("Evicted stale in-flight computation",
		zap.String("key", key),
		zap.Duration("age", time.Since(e.startedAt)),
	)
}

// InFlight reports whether a computation for key is currently registered.
func (r *Registry[T]) InFlight(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	return ok
}

// Waiters returns how many callers are currently waiting on key.
func (r *Registry[T]) Waiters(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiters[key]
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
