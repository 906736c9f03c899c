package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestUpstreamPreservesTypedErrors(t *testing.T) {
	timeout := NewUpstreamTimeoutError("youtube.video", 2*time.Second)
	wrapped := fmt.Errorf("fetch: %w", timeout)

	got := Upstream("youtube.video", wrapped)
	if CodeOf(got) != CodeUpstreamTimeout {
		t.Fatalf("expected timeout code to survive, got %s", CodeOf(got))
	}

	plain := stderrors.New("boom")
	got = Upstream("gemini", plain)
	ie, ok := AsInsightError(got)
	if !ok {
		t.Fatalf("expected InsightError, got %T", got)
	}
	if ie.Code != CodeUpstream || ie.StatusCode != 502 {
		t.Fatalf("unexpected code/status: %s/%d", ie.Code, ie.StatusCode)
	}
	if !stderrors.Is(got, plain) {
		t.Fatalf("expected cause to be unwrappable")
	}
}

func TestUpstreamRewrapsCacheErrors(t *testing.T) {
	cacheErr := NewCacheError("get failed", "get", "k", stderrors.New("redis down"))
	if CodeOf(Upstream("store", cacheErr)) != CodeUpstream {
		t.Fatalf("cache errors must not leak as-is")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(nil) != "" {
		t.Fatalf("nil error should have empty code")
	}
	if CodeOf(stderrors.New("x")) != CodeInternal {
		t.Fatalf("untyped errors should map to internal")
	}
	if CodeOf(NewValidationError("bad", "range", "3y")) != CodeValidation {
		t.Fatalf("validation code lost")
	}
	if !IsTimeout(NewUpstreamTimeoutError("s", time.Second)) {
		t.Fatalf("expected IsTimeout")
	}
}

func TestAbortedTypesContextErrors(t *testing.T) {
	if Aborted("x", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}

	cancelled := Aborted("store.subject", context.Canceled)
	if CodeOf(cancelled) != CodeInternal {
		t.Fatalf("expected %s, got %s", CodeInternal, CodeOf(cancelled))
	}
	if !stderrors.Is(cancelled, context.Canceled) {
		t.Fatalf("expected context.Canceled to stay in the chain")
	}

	expired := Aborted("fetch.video", fmt.Errorf("get: %w", context.DeadlineExceeded))
	if !IsTimeout(expired) {
		t.Fatalf("expected caller deadline to map to %s, got %s", CodeUpstreamTimeout, CodeOf(expired))
	}

	typed := NewNotFoundError("gone", "video", "v")
	if Aborted("x", typed) != error(typed) {
		t.Fatalf("expected typed errors to pass through")
	}
}
