package prompt

import (
	"fmt"
	"time"

	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/internal/service/ai"
	"github.com/kapu/creator-insight-go/internal/util"
)

// BuildPrimary renders the narrative prompt for a video and its sibling
// uploads published inside rangeSel.
func (pb *PromptBuilder) BuildPrimary(video domain.Video, related []domain.RelatedVideo, rangeSel domain.RangeSelector, now time.Time) ([]ai.Message, error) {
	data := PrimaryUserData{
		Title:       video.Title,
		Description: util.TruncateString(video.Description, 2000),
		Tags:        video.Tags,
		Category:    categoryLabel(video.CategoryID),
		Duration:    formatDuration(video.DurationSeconds),
		PublishedAt: formatDate(video.PublishedAt),
		Views:       video.Metrics.Views,
		Likes:       video.Metrics.Likes,
		Comments:    video.Metrics.Comments,
		Range:       rangeSel.String(),
	}
	for _, r := range related {
		if r.ID == video.ID || !rangeSel.Contains(r.PublishedAt, now) {
			continue
		}
		data.Related = append(data.Related, RelatedLine{
			Title: r.Title,
			Views: r.Metrics.Views,
			Age:   formatAge(r.PublishedAt, now),
		})
	}

	return pb.RenderMessages(TemplatePrimarySystem, TemplatePrimaryUser,
		PrimarySystemData{MaxItems: constants.AnalysisLimits.MaxListItems}, data)
}

// BuildComments renders the comment-summary prompt.
func (pb *PromptBuilder) BuildComments(video domain.Video, comments []domain.Comment) ([]ai.Message, error) {
	data := CommentsUserData{Title: video.Title}
	for _, c := range comments {
		text := util.CollapseSpace(c.Text)
		if text == "" {
			continue
		}
		data.Comments = append(data.Comments, CommentLine{
			Author: c.Author,
			Text:   util.TruncateString(text, constants.AnalysisLimits.CommentPromptRunes),
			Likes:  c.LikeCount,
		})
	}

	return pb.RenderMessages(TemplateCommentsSystem, TemplateCommentsUser, CommentsSystemData{
		MaxThemes: constants.AnalysisLimits.MaxListItems,
		MaxQuotes: constants.AnalysisLimits.MaxQuotes,
	}, data)
}

// BuildNiche renders the channel classification prompt.
func (pb *PromptBuilder) BuildNiche(video domain.Video, recentTitles []string) ([]ai.Message, error) {
	return pb.RenderMessages(TemplateNicheSystem, TemplateNicheUser, nil, NicheUserData{
		ChannelTitle: video.ChannelTitle,
		Title:        video.Title,
		Description:  util.TruncateString(video.Description, 600),
		Tags:         video.Tags,
		Category:     categoryLabel(video.CategoryID),
		RecentTitles: recentTitles,
	})
}

func categoryLabel(id string) string {
	if name := domain.CategoryName(id); name != "" {
		return name
	}
	return "Unknown"
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "unknown"
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02")
}

func formatAge(published, now time.Time) string {
	if published.IsZero() || now.Before(published) {
		return "unknown age"
	}
	days := int(now.Sub(published).Hours() / 24)
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}
