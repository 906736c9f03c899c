package analysis

import (
	"strings"
	"testing"

	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlternateAnglesIsReproducible(t *testing.T) {
	v := sampleVideo()
	first := AlternateAngles(v.ID, v)
	second := AlternateAngles(v.ID, sampleVideo())

	require.Equal(t, first, second)
	assert.GreaterOrEqual(t, len(first), 4)
	assert.LessOrEqual(t, len(first), 6)
}

func TestAlternateAnglesDependsOnSeedInputs(t *testing.T) {
	v := sampleVideo()
	a := AlternateAngles("subject-a", v)
	b := AlternateAngles("subject-b", v)
	c := AlternateAngles("subject-c", v)
	assert.False(t, equalSlices(a, b) && equalSlices(b, c), "different subject ids should not all produce the same ordering")
}

func TestAlternateAnglesForEmptyVideo(t *testing.T) {
	angles := AlternateAngles("", &domain.Video{})
	require.GreaterOrEqual(t, len(angles), 4)
	for _, a := range angles {
		assert.NotEmpty(t, a)
		assert.Contains(t, strings.ToLower(a), "this topic")
	}

	assert.Equal(t, angles, AlternateAngles("", nil))
}

func TestAlternateAnglesHaveNoDuplicates(t *testing.T) {
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		angles := AlternateAngles(id, sampleVideo())
		seen := map[string]bool{}
		for _, a := range angles {
			assert.False(t, seen[a], "duplicate angle %q", a)
			seen[a] = true
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		video domain.Video
		want  contentFormat
	}{
		{domain.Video{Title: "How to bake bread"}, formatTutorial},
		{domain.Video{Title: "Pixel 10 review"}, formatReview},
		{domain.Video{Title: "Any% speedrun attempt"}, formatGaming},
		{domain.Video{Title: "my week in Seoul", Tags: []string{"vlog"}}, formatVlog},
		{domain.Video{Title: "Untitled", CategoryID: "10"}, formatMusic},
		{domain.Video{Title: "Untitled", CategoryID: "20"}, formatGaming},
		{domain.Video{Title: "Untitled"}, formatGeneral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectFormat(&tt.video), tt.video.Title)
	}
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, bucketShort, bucketFor(45))
	assert.Equal(t, bucketShort, bucketFor(60))
	assert.Equal(t, bucketMid, bucketFor(61))
	assert.Equal(t, bucketMid, bucketFor(20*60))
	assert.Equal(t, bucketLong, bucketFor(20*60+1))
	assert.Equal(t, bucketMid, bucketFor(0))
}

func TestInferTopic(t *testing.T) {
	assert.Equal(t, "woodworking", inferTopic(sampleVideo()))
	assert.Equal(t, "ways to fold a shirt", inferTopic(&domain.Video{Title: "10 ways to fold a shirt!!"}))
	assert.Equal(t, "gaming", inferTopic(&domain.Video{Title: "123", CategoryID: "20"}))
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
