package analysis

import (
	"regexp"
	"testing"
	"time"

	"github.com/kapu/creator-insight-go/internal/domain"
)

func sampleVideo() *domain.Video {
	return &domain.Video{
		ID:              "dQw4w9WgXcQ",
		ChannelID:       "UC123",
		ChannelTitle:    "Workshop",
		Title:           "How to sharpen a chisel in 5 minutes",
		Description:     "Today we look at a simple honing routine that keeps your chisels scary sharp without a grinder. Links below.",
		Tags:            []string{"woodworking", "Sharpening", "chisel"},
		DurationSeconds: 312,
		CategoryID:      "26",
		PublishedAt:     time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		Metrics:         domain.VideoMetrics{Views: 12000, Likes: 640, Comments: 85},
	}
}

func TestFingerprintIsStableAndOrderIndependent(t *testing.T) {
	a := sampleVideo()
	b := sampleVideo()
	b.Tags = []string{" chisel ", "WOODWORKING", "sharpening"}
	b.Metrics.Views = 99999

	fa, fb := Fingerprint(a), Fingerprint(b)
	if fa != fb {
		t.Fatalf("tag order, case and metrics must not change the fingerprint: %s vs %s", fa, fb)
	}
	if !regexp.MustCompile(`^[0-9a-f]{16}$`).MatchString(fa) {
		t.Fatalf("expected 16 hex digits, got %q", fa)
	}
	if Fingerprint(a) != fa {
		t.Fatalf("fingerprint must be deterministic")
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	base := Fingerprint(sampleVideo())

	mutations := map[string]func(v *domain.Video){
		"title":       func(v *domain.Video) { v.Title += "!" },
		"description": func(v *domain.Video) { v.Description = "" },
		"tags":        func(v *domain.Video) { v.Tags = append(v.Tags, "diy") },
		"duration":    func(v *domain.Video) { v.DurationSeconds++ },
		"category":    func(v *domain.Video) { v.CategoryID = "27" },
	}
	for name, mutate := range mutations {
		v := sampleVideo()
		mutate(v)
		if Fingerprint(v) == base {
			t.Errorf("changing %s must change the fingerprint", name)
		}
	}
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	a := &domain.Video{Title: "ab", Description: "c"}
	b := &domain.Video{Title: "a", Description: "bc"}
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("field boundaries must be part of the digest")
	}
	if Fingerprint(nil) != "" {
		t.Fatalf("nil video has no fingerprint")
	}
}

func TestIsFresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ttl := 72 * time.Hour

	tests := []struct {
		name     string
		captured time.Time
		stored   string
		current  string
		want     bool
	}{
		{"within ttl and matching", now.Add(-time.Hour), "fp1", "fp1", true},
		{"fingerprint changed", now.Add(-time.Hour), "fp1", "fp2", false},
		{"ttl lapsed", now.Add(-ttl), "fp1", "fp1", false},
		{"never captured", time.Time{}, "fp1", "fp1", false},
		// Legacy rows without a fingerprint are treated as matching.
		{"absent stored fingerprint is lenient", now.Add(-time.Hour), "", "fp2", true},
		{"absent stored fingerprint still expires", now.Add(-ttl - time.Second), "", "fp2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFresh(tt.captured, tt.stored, tt.current, now, ttl); got != tt.want {
				t.Fatalf("IsFresh() = %v, want %v", got, tt.want)
			}
		})
	}
}
