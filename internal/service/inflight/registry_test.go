package inflight

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestConcurrentCallersShareOneComputation(t *testing.T) {
	reg := NewRegistry[string](time.Minute, zap.NewNop())
	var calls atomic.Int32
	release := make(chan struct{})

	fn := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "gaming/speedrun", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	shared := make([]bool, 2)
	errs := make([]error, 2)

	start := func(i int) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], shared[i], errs[i] = reg.Do(context.Background(), "channel-1", fn)
		}()
	}

	start(0)
	waitFor(t, func() bool { return reg.Waiters("channel-1") == 1 && reg.InFlight("channel-1") })
	start(1)
	waitFor(t, func() bool { return reg.Waiters("channel-1") == 2 })
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected exactly one computation, got %d", calls.Load())
	}
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i] != "gaming/speedrun" || !shared[i] {
			t.Fatalf("caller %d got %q shared=%v", i, results[i], shared[i])
		}
	}
	if reg.Len() != 0 {
		t.Fatalf("settled entries must be removed, got %d", reg.Len())
	}
}

func TestSettledKeyRecomputes(t *testing.T) {
	reg := NewRegistry[int](time.Minute, nil)
	var calls atomic.Int32
	fn := func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	first, _, _ := reg.Do(context.Background(), "k", fn)
	second, _, _ := reg.Do(context.Background(), "k", fn)
	if first != 1 || second != 2 {
		t.Fatalf("expected a fresh computation after settle, got %d then %d", first, second)
	}
}

func TestSafetyTimeoutEvictsStuckEntry(t *testing.T) {
	reg := NewRegistry[string](30*time.Millisecond, zap.NewNop())
	stuck := make(chan struct{})

	stuckDone := make(chan string, 1)
	go func() {
		v, _, _ := reg.Do(context.Background(), "k", func(context.Context) (string, error) {
			<-stuck
			return "late", nil
		})
		stuckDone <- v
	}()

	waitFor(t, func() bool { return reg.InFlight("k") })
	waitFor(t, func() bool { return !reg.InFlight("k") })

	got, _, err := reg.Do(context.Background(), "k", func(context.Context) (string, error) {
		return "fresh", nil
	})
	if err != nil || got != "fresh" {
		t.Fatalf("expected a new computation after eviction, got %q %v", got, err)
	}

	close(stuck)
	if v := <-stuckDone; v != "late" {
		t.Fatalf("stuck caller should still receive its own result, got %q", v)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected no entries left, got %d", reg.Len())
	}
}

func TestPanicBecomesError(t *testing.T) {
	reg := NewRegistry[int](time.Minute, nil)
	_, _, err := reg.Do(context.Background(), "k", func(context.Context) (int, error) {
		panic("provider exploded")
	})
	if err == nil {
		t.Fatalf("expected panic to surface as error")
	}
	if reg.InFlight("k") {
		t.Fatalf("panicked computation must settle")
	}
}

func TestCallerCancellationDoesNotCancelComputation(t *testing.T) {
	reg := NewRegistry[string](time.Minute, nil)
	release := make(chan struct{})
	var computationErr atomic.Value

	ctx, cancel := context.WithCancel(context.Background())
	impatient := make(chan error, 1)
	go func() {
		_, _, err := reg.Do(ctx, "k", func(runCtx context.Context) (string, error) {
			<-release
			if runCtx.Err() != nil {
				computationErr.Store(runCtx.Err())
			}
			return "done", nil
		})
		impatient <- err
	}()

	waitFor(t, func() bool { return reg.InFlight("k") })
	patient := make(chan string, 1)
	go func() {
		v, _, _ := reg.Do(context.Background(), "k", func(context.Context) (string, error) {
			return "unexpected", nil
		})
		patient <- v
	}()
	waitFor(t, func() bool { return reg.Waiters("k") == 2 })

	cancel()
	if err := <-impatient; err != context.Canceled {
		t.Fatalf("expected cancelled caller to return context.Canceled, got %v", err)
	}

	close(release)
	if v := <-patient; v != "done" {
		t.Fatalf("remaining caller should get the shared result, got %q", v)
	}
	if computationErr.Load() != nil {
		t.Fatalf("computation context must survive caller cancellation")
	}
}
