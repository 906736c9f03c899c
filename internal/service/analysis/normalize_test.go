package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrimaryCoercesMalformedOutput(t *testing.T) {
	raw := map[string]any{
		"summary":          "  Solid   tutorial.  ",
		"strengths":        "not a list",
		"improvements":     []any{"Tighter intro", 42, "", "tighter intro"},
		"checklist":        []any{"short", "Add chapters to the description for skimmers", nil},
		"alternate_angles": []any{"One", "Two"},
	}
	v := sampleVideo()
	p := NormalizePrimary(raw, v.ID, v)

	assert.Equal(t, "Solid tutorial.", p.Summary)
	assert.NotNil(t, p.Strengths)
	assert.Empty(t, p.Strengths)
	assert.Equal(t, []string{"Tighter intro"}, p.Improvements)
	assert.Equal(t, []string{"Add chapters to the description for skimmers"}, p.Checklist)
	assert.NotNil(t, p.TitleIdeas)
	require.Len(t, p.AlternateAngles, 4)
	assert.Equal(t, []string{"One", "Two"}, p.AlternateAngles[:2])
	assert.NotEmpty(t, p.Description)
}

func TestNormalizePrimaryNilInput(t *testing.T) {
	p := NormalizePrimary(nil, "x", nil)
	assert.NotEmpty(t, p.Summary)
	assert.NotEmpty(t, p.Description)
	for _, list := range [][]string{p.Strengths, p.Improvements, p.Checklist, p.TitleIdeas} {
		assert.NotNil(t, list)
	}
	assert.GreaterOrEqual(t, len(p.AlternateAngles), 4)
}

func TestChecklistIsCapped(t *testing.T) {
	var items []any
	for i := 0; i < 12; i++ {
		items = append(items, strings.Repeat("x", 12)+string(rune('a'+i)))
	}
	p := NormalizePrimary(map[string]any{"checklist": items}, "x", sampleVideo())
	assert.Len(t, p.Checklist, 8)
}

func TestDescriptionEchoingTitleIsReplaced(t *testing.T) {
	v := sampleVideo()
	p := NormalizePrimary(map[string]any{"description": v.Title}, v.ID, v)
	assert.NotEqual(t, v.Title, p.Description)
}

func TestFallbackDescription(t *testing.T) {
	v := sampleVideo()
	assert.Equal(t,
		"Today we look at a simple honing routine that keeps your chisels scary sharp without a grinder.",
		FallbackDescription(v))

	v.Description = "Check https://example.com/a-very-long-link-that-should-be-skipped-entirely for more. Short."
	assert.Equal(t, "A video about woodworking, Sharpening and chisel.", FallbackDescription(v))

	v.Tags = nil
	assert.Equal(t, "A Howto & Style video from this channel.", FallbackDescription(v))
}

func TestFallbackDescriptionForBareSubject(t *testing.T) {
	v := &domain.Video{ID: "new", Title: "My first upload"}
	desc := FallbackDescription(v)
	assert.NotEmpty(t, desc)
	assert.NotEqual(t, v.Title, desc)

	p := NormalizePrimary(map[string]any{}, v.ID, v)
	assert.NotEmpty(t, p.Description)
	assert.NotEqual(t, v.Title, p.Description)
}

func TestFallbackDescriptionSkipsTitleSentence(t *testing.T) {
	title := "This is a perfectly ordinary sentence used as the title here"
	v := &domain.Video{Title: title, Description: title + "."}
	assert.NotEqual(t, title+".", FallbackDescription(v))
}

func TestFallbackDescriptionNeverEchoesTitle(t *testing.T) {
	cases := []struct {
		name  string
		video domain.Video
		want  string
	}{
		{
			name:  "title equals tag synthesis",
			video: domain.Video{Title: "A video about cats.", Tags: []string{"cats"}, CategoryID: "15"},
			want:  "A Pets & Animals video from this channel.",
		},
		{
			name:  "title equals tag synthesis without category",
			video: domain.Video{Title: "a video about cats", Tags: []string{"cats"}},
			want:  "A video from this channel.",
		},
		{
			name:  "title equals category line",
			video: domain.Video{Title: "A Pets & Animals video from this channel.", CategoryID: "15"},
			want:  "A video from this channel.",
		},
		{
			name:  "title equals generic line",
			video: domain.Video{Title: "A video from this channel."},
			want:  "An upload from this channel.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := tc.video
			assert.Equal(t, tc.want, FallbackDescription(&v))

			p := NormalizePrimary(nil, "vid", &v)
			assert.Equal(t, tc.want, p.Description)
			assert.NotEqual(t, normalizedSentence(v.Title), normalizedSentence(p.Description))
		})
	}
}

func TestNormalizeAuxiliary(t *testing.T) {
	fields := NormalizeAuxiliary(map[string]any{
		"sentiment": map[string]any{"positive": 60.0, "neutral": 30.0, "negative": 10.0},
		"themes":    []any{"audio quality", "Audio Quality", "pacing"},
		"quotes": []any{
			map[string]any{"text": "best guide", "author": "kim", "sentiment": "Positive"},
			"raw string quote",
			map[string]any{"text": ""},
		},
	})
	require.NotNil(t, fields.Sentiment)
	assert.InDelta(t, 0.6, fields.Sentiment.Positive, 0.001)
	assert.InDelta(t, 0.1, fields.Sentiment.Negative, 0.001)
	assert.Equal(t, []string{"audio quality", "pacing"}, fields.Themes)
	require.Len(t, fields.Quotes, 2)
	assert.Equal(t, "positive", fields.Quotes[0].Sentiment)
	assert.Equal(t, "raw string quote", fields.Quotes[1].Text)

	bad := NormalizeAuxiliary(map[string]any{"sentiment": map[string]any{"positive": "lots"}})
	assert.True(t, bad.empty())
}

func TestMergeAuxiliaryOnlyOverwritesProducedFields(t *testing.T) {
	existing := domain.AuxiliaryPayload{
		Sentiment:        domain.SentimentDistribution{Positive: 0.5, Neutral: 0.5},
		Themes:           []string{"old theme"},
		Quotes:           []domain.Quote{{Text: "old quote"}},
		CommentsAnalyzed: 40,
	}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	merged, changed := MergeAuxiliary(existing, auxiliaryFields{Themes: []string{"new theme"}}, 80, now)
	require.True(t, changed)
	assert.Equal(t, []string{"new theme"}, merged.Themes)
	assert.Equal(t, existing.Sentiment, merged.Sentiment)
	assert.Equal(t, existing.Quotes, merged.Quotes)
	assert.Equal(t, 80, merged.CommentsAnalyzed)
	assert.Equal(t, now, merged.UpdatedAt)

	same, changed := MergeAuxiliary(existing, auxiliaryFields{}, 80, now)
	assert.False(t, changed)
	assert.Equal(t, existing, same)
}
