package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/internal/service/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrimary(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	video := domain.Video{
		ID:              "abc",
		Title:           "I built a keyboard from scratch",
		Description:     "Full build log.",
		Tags:            []string{"keyboard", "diy"},
		CategoryID:      "28",
		DurationSeconds: 754,
		PublishedAt:     now.Add(-48 * time.Hour),
		Metrics:         domain.VideoMetrics{Views: 1200, Likes: 80, Comments: 14},
	}
	related := []domain.RelatedVideo{
		{ID: "abc", Title: "self"},
		{ID: "def", Title: "Soldering basics", PublishedAt: now.Add(-24 * time.Hour), Metrics: domain.VideoMetrics{Views: 900}},
	}

	msgs, err := NewPromptBuilder().BuildPrimary(video, related, domain.Range28Days, now)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, `"alternate_angles"`)
	assert.Equal(t, ai.RoleUser, msgs[1].Role)

	user := msgs[1].Content
	assert.Contains(t, user, "Science & Technology")
	assert.Contains(t, user, "12:34")
	assert.Contains(t, user, "Tags: keyboard, diy")
	assert.Contains(t, user, "Soldering basics | 900 views | 1 day ago")
	assert.NotContains(t, user, "- self")
}

func TestBuildPrimaryFiltersUploadsOutsideRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	video := domain.Video{ID: "abc", Title: "Weekly update"}
	related := []domain.RelatedVideo{
		{ID: "new", Title: "Last Tuesday", PublishedAt: now.Add(-3 * 24 * time.Hour)},
		{ID: "old", Title: "Back in January", PublishedAt: now.Add(-40 * 24 * time.Hour)},
	}

	msgs, err := NewPromptBuilder().BuildPrimary(video, related, domain.Range7Days, now)
	require.NoError(t, err)
	assert.Contains(t, msgs[1].Content, "Other uploads from the same channel (7d)")
	assert.Contains(t, msgs[1].Content, "Last Tuesday")
	assert.NotContains(t, msgs[1].Content, "Back in January")

	msgs, err = NewPromptBuilder().BuildPrimary(video, related[1:], domain.Range7Days, now)
	require.NoError(t, err)
	assert.NotContains(t, msgs[1].Content, "Other uploads")

	msgs, err = NewPromptBuilder().BuildPrimary(video, related, domain.RangeLifetime, now)
	require.NoError(t, err)
	assert.Contains(t, msgs[1].Content, "Back in January")
}

func TestBuildCommentsSkipsBlankAndTruncates(t *testing.T) {
	long := strings.Repeat("가", 400)
	msgs, err := NewPromptBuilder().BuildComments(domain.Video{Title: "t"}, []domain.Comment{
		{Author: "a", Text: "  great   video  ", LikeCount: 3},
		{Author: "b", Text: "   "},
		{Author: "c", Text: long},
	})
	require.NoError(t, err)
	user := msgs[1].Content
	assert.Contains(t, user, "Comments (2):")
	assert.Contains(t, user, "[3 likes] a: great video")
	assert.NotContains(t, user, long)
}

func TestBuildNicheWithoutOptionalSections(t *testing.T) {
	msgs, err := NewPromptBuilder().BuildNiche(domain.Video{ChannelTitle: "Chan", Title: "t"}, nil)
	require.NoError(t, err)
	assert.Contains(t, msgs[1].Content, "Channel: Chan")
	assert.Contains(t, msgs[1].Content, "Category: Unknown")
	assert.NotContains(t, msgs[1].Content, "Recent uploads")
}
