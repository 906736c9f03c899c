package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/pkg/errors"
	"github.com/spf13/cobra"
)

func sampleResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		VideoID: "abc",
		Range:   domain.Range28Days,
		Video:   domain.Video{Title: "Chisel sharpening", ChannelTitle: "Workshop"},
		Metrics: domain.VideoMetrics{Views: 1200, Likes: 80, Comments: 9},
		Insights: []domain.DerivedInsight{
			{Key: "engagement_rate", Label: "Engagement rate", Value: "7.4%", Verdict: domain.VerdictStrong},
		},
		Narrative: domain.PrimaryPayload{
			Summary:   "Solid tutorial.",
			Strengths: []string{"Clear shots"},
		},
		Audience: domain.AudienceSection{
			Available: true,
			Payload:   domain.AuxiliaryPayload{Themes: []string{"Gear"}, CommentsAnalyzed: 9},
		},
		Capabilities: domain.CapabilityDisclosure{Notes: []string{"Narrative reused."}},
		GeneratedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		FromCache:    true,
	}
}

func TestWriteReportTable(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, sampleResult())
	out := buf.String()

	for _, want := range []string{"Chisel sharpening", "Engagement rate", "Solid tutorial.", "Clear shots", "Gear", "cached narrative", "Narrative reused."} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintReportJSON(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := printReport(cmd, &commandOptions{output: "json"}, sampleResult()); err != nil {
		t.Fatalf("printReport: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["video_id"] != "abc" || decoded["from_cache"] != true {
		t.Fatalf("unexpected JSON payload: %v", decoded)
	}
}

func TestCommandOptionsValidate(t *testing.T) {
	for _, ok := range []string{"table", "JSON", " json "} {
		if err := (&commandOptions{output: ok}).validate(); err != nil {
			t.Fatalf("%q should be accepted: %v", ok, err)
		}
	}
	if err := (&commandOptions{output: "yaml"}).validate(); err == nil {
		t.Fatalf("yaml should be rejected")
	}
}

func TestDescribeError(t *testing.T) {
	err := describeError(errors.NewUpstreamTimeoutError("generate.primary", time.Second))
	if !strings.HasPrefix(err.Error(), "UPSTREAM_TIMEOUT: ") {
		t.Fatalf("expected code prefix, got %q", err)
	}

	plain := stderrors.New("plain")
	if describeError(plain) != plain {
		t.Fatalf("untyped errors must pass through")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"analyze", "comments", "niche", "status", "auth"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("missing subcommand %s", name)
		}
	}
}
