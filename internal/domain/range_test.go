package domain

import (
	"testing"
	"time"
)

func TestParseRangeSelector(t *testing.T) {
	cases := map[string]struct {
		want RangeSelector
		ok   bool
	}{
		"":         {Range28Days, true},
		" 7D ":     {Range7Days, true},
		"lifetime": {RangeLifetime, true},
		"3y":       {RangeSelector("3y"), false},
	}

	for input, tc := range cases {
		got, ok := ParseRangeSelector(input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseRangeSelector(%q) = %q,%v want %q,%v", input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRangeContains(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-40 * 24 * time.Hour)

	if Range28Days.Contains(old, now) {
		t.Fatalf("40 days ago should fall outside 28d")
	}
	if !Range90Days.Contains(old, now) {
		t.Fatalf("40 days ago should fall inside 90d")
	}
	if !RangeLifetime.Contains(time.Time{}, now) {
		t.Fatalf("lifetime contains everything")
	}
}

func TestRequestContextRecordsInOrder(t *testing.T) {
	rc := NewRequestContext()
	rc.Record("store.read", time.Millisecond)
	rc.Record("youtube.video", 2*time.Millisecond)

	stages := rc.Stages()
	if len(stages) != 2 || stages[0].Stage != "store.read" || stages[1].Stage != "youtube.video" {
		t.Fatalf("unexpected stages %+v", stages)
	}
	if rc.CorrelationID == "" {
		t.Fatalf("expected correlation id")
	}

	var nilRC *RequestContext
	nilRC.Record("ignored", time.Second)
	if nilRC.Stages() != nil {
		t.Fatalf("nil context should record nothing")
	}
}
