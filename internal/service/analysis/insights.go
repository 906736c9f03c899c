package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/internal/util"
)

const minComparableUploads = 3

// DerivedInsights computes rule-based observations from public metrics and
// metadata. related may be nil when the channel's uploads were unavailable,
// in which case the comparison insight is omitted.
func DerivedInsights(v *domain.Video, related []domain.RelatedVideo, rangeSel domain.RangeSelector, now time.Time) []domain.DerivedInsight {
	insights := make([]domain.DerivedInsight, 0, 9)
	if v == nil {
		return insights
	}
	m := v.Metrics

	if m.Views == 0 {
		insights = append(insights, domain.DerivedInsight{
			Key:     "engagement_rate",
			Label:   "Engagement rate",
			Value:   "n/a",
			Verdict: domain.VerdictInfo,
			Detail:  "No public views recorded yet.",
		})
	} else {
		engagement := float64(m.Likes+m.Comments) / float64(m.Views)
		insights = append(insights,
			domain.DerivedInsight{
				Key:     "engagement_rate",
				Label:   "Engagement rate",
				Value:   percent(engagement),
				Verdict: grade(engagement, 0.06, 0.03),
				Detail:  "Likes plus comments per view.",
			},
			domain.DerivedInsight{
				Key:     "like_ratio",
				Label:   "Like ratio",
				Value:   percent(float64(m.Likes) / float64(m.Views)),
				Verdict: grade(float64(m.Likes)/float64(m.Views), 0.04, 0.02),
				Detail:  "Likes per view.",
			},
			domain.DerivedInsight{
				Key:     "comment_ratio",
				Label:   "Comments per 1k views",
				Value:   fmt.Sprintf("%.1f", float64(m.Comments)*1000/float64(m.Views)),
				Verdict: grade(float64(m.Comments)*1000/float64(m.Views), 5, 1),
				Detail:  "How often viewers start a conversation.",
			},
		)
	}

	if age := v.Age(now); age > 0 {
		days := age.Hours() / 24
		if days < 1 {
			days = 1
		}
		insights = append(insights, domain.DerivedInsight{
			Key:     "views_per_day",
			Label:   "Views per day",
			Value:   fmt.Sprintf("%.0f", float64(m.Views)/days),
			Verdict: domain.VerdictInfo,
			Detail:  fmt.Sprintf("Averaged over %.0f days since publishing.", days),
		})
	}

	titleLen := util.RuneLen(strings.TrimSpace(v.Title))
	insights = append(insights, domain.DerivedInsight{
		Key:     "title_length",
		Label:   "Title length",
		Value:   fmt.Sprintf("%d characters", titleLen),
		Verdict: bandVerdict(titleLen, 30, 70, 20, 90),
		Detail:  "Titles between 30 and 70 characters rarely truncate in search and suggested feeds.",
	})

	words := len(strings.Fields(v.Description))
	insights = append(insights, domain.DerivedInsight{
		Key:     "description_depth",
		Label:   "Description depth",
		Value:   fmt.Sprintf("%d words", words),
		Verdict: grade(float64(words), 150, 50),
		Detail:  "Longer descriptions give search more context.",
	})

	tags := len(util.UniqueFold(v.Tags))
	insights = append(insights, domain.DerivedInsight{
		Key:     "tag_coverage",
		Label:   "Tag coverage",
		Value:   fmt.Sprintf("%d tags", tags),
		Verdict: bandVerdict(tags, 5, 15, 1, 30),
		Detail:  "Five to fifteen specific tags cover common misspellings and related searches.",
	})

	insights = append(insights, domain.DerivedInsight{
		Key:     "duration_bucket",
		Label:   "Format length",
		Value:   string(bucketFor(v.DurationSeconds)),
		Verdict: domain.VerdictInfo,
		Detail:  durationDetail(v.DurationSeconds),
	})

	if related != nil {
		insights = append(insights, rangeComparison(v, related, rangeSel, now))
	}
	return insights
}

func rangeComparison(v *domain.Video, related []domain.RelatedVideo, rangeSel domain.RangeSelector, now time.Time) domain.DerivedInsight {
	views := make([]uint64, 0, len(related))
	for _, r := range related {
		if r.ID == v.ID || !rangeSel.Contains(r.PublishedAt, now) {
			continue
		}
		views = append(views, r.Metrics.Views)
	}

	insight := domain.DerivedInsight{
		Key:   "range_comparison",
		Label: "Versus recent uploads (" + rangeSel.String() + ")",
	}
	if len(views) < minComparableUploads {
		insight.Value = "n/a"
		insight.Verdict = domain.VerdictInfo
		insight.Detail = fmt.Sprintf("Only %d other uploads in range; at least %d are needed.", len(views), minComparableUploads)
		return insight
	}

	median := medianViews(views)
	if median == 0 {
		insight.Value = "n/a"
		insight.Verdict = domain.VerdictInfo
		insight.Detail = "Recent uploads have no recorded views."
		return insight
	}

	ratio := float64(v.Metrics.Views) / median
	insight.Value = fmt.Sprintf("%.2fx median", ratio)
	insight.Verdict = grade(ratio, 1.5, 0.75)
	insight.Detail = fmt.Sprintf("Median of %d uploads in range is %.0f views.", len(views), median)
	return insight
}

func medianViews(views []uint64) float64 {
	sorted := append([]uint64(nil), views...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (float64(sorted[mid-1]) + float64(sorted[mid])) / 2
	}
	return float64(sorted[mid])
}

func grade(value, strong, average float64) domain.Verdict {
	switch {
	case value >= strong:
		return domain.VerdictStrong
	case value >= average:
		return domain.VerdictAverage
	default:
		return domain.VerdictWeak
	}
}

// bandVerdict is strong inside [lo, hi], average inside [outerLo, outerHi].
func bandVerdict(n, lo, hi, outerLo, outerHi int) domain.Verdict {
	switch {
	case n >= lo && n <= hi:
		return domain.VerdictStrong
	case n >= outerLo && n <= outerHi:
		return domain.VerdictAverage
	default:
		return domain.VerdictWeak
	}
}

func percent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

func durationDetail(seconds int) string {
	switch bucketFor(seconds) {
	case bucketShort:
		return "Short-form; discovery leans on the Shorts feed."
	case bucketLong:
		return "Long-form; retention across the full runtime matters most."
	default:
		if seconds <= 0 {
			return "Duration unknown."
		}
		return "Mid-length; typical for search-driven uploads."
	}
}
