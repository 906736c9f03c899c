package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kapu/creator-insight-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := youtube.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return newSource(svc, 1000, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetVideoConvertsResource(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/videos"))
		writeJSON(w, map[string]any{
			"items": []any{map[string]any{
				"id": "vid1",
				"snippet": map[string]any{
					"channelId":    "chan1",
					"channelTitle": "Channel",
					"title":        "Title",
					"description":  "Desc",
					"tags":         []string{"a", "b"},
					"categoryId":   "27",
					"publishedAt":  "2026-01-02T03:04:05Z",
				},
				"contentDetails": map[string]any{"duration": "PT10M5S"},
				"statistics":     map[string]any{"viewCount": "1000", "likeCount": "50", "commentCount": "7"},
			}},
		})
	})

	v, err := src.GetVideo(context.Background(), "vid1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "chan1", v.ChannelID)
	assert.Equal(t, []string{"a", "b"}, v.Tags)
	assert.Equal(t, 605, v.DurationSeconds)
	assert.Equal(t, uint64(1000), v.Metrics.Views)
	assert.Equal(t, uint64(7), v.Metrics.Comments)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), v.PublishedAt)

	used, _, _ := src.GetQuotaStatus()
	assert.Equal(t, 1, used)
}

func TestGetVideoMissingReturnsNil(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"items": []any{}})
	})

	v, err := src.GetVideo(context.Background(), "gone")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestListCommentsDisabled(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"disabled","errors":[{"reason":"commentsDisabled"}]}}`))
	})

	comments, err := src.ListComments(context.Background(), "vid1", 10)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestListCommentsStripsMarkup(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/commentThreads"))
		writeJSON(w, map[string]any{
			"items": []any{
				map[string]any{"snippet": map[string]any{"topLevelComment": map[string]any{
					"id": "c1",
					"snippet": map[string]any{
						"authorDisplayName": "viewer",
						"textDisplay":       "love <b>this</b>",
						"likeCount":         4,
					},
				}}},
				map[string]any{"snippet": map[string]any{}},
			},
		})
	})

	comments, err := src.ListComments(context.Background(), "vid1", 10)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "love this", comments[0].Text)
	assert.Equal(t, int64(4), comments[0].LikeCount)
}

func TestQuotaGuardReturnsRateLimited(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected once quota is exhausted")
	})
	src.quotaUsed = 10000

	_, err := src.GetVideo(context.Background(), "vid1")
	assert.Equal(t, errors.CodeRateLimited, errors.CodeOf(err))
}
