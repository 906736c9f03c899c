package analysis

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/internal/util"
)

var urlRegex = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)

const sentenceTerminators = ".!?。！？"

// NormalizePrimary turns an untrusted generated object into a fully populated
// PrimaryPayload. Missing or malformed fields fall back to values derived from
// the video itself.
func NormalizePrimary(raw map[string]any, subjectID string, v *domain.Video) domain.PrimaryPayload {
	if v == nil {
		v = &domain.Video{}
	}
	limits := constants.AnalysisLimits

	p := domain.PrimaryPayload{
		Summary:      stringField(raw, "summary"),
		Description:  stringField(raw, "description"),
		Strengths:    capList(stringList(raw, "strengths"), limits.MaxListItems),
		Improvements: capList(stringList(raw, "improvements"), limits.MaxListItems),
		TitleIdeas:   capList(stringList(raw, "title_ideas"), limits.MaxListItems),
	}

	if p.Summary == "" {
		p.Summary = fallbackSummary(v)
	}
	if p.Description == "" || normalizedSentence(p.Description) == normalizedSentence(v.Title) {
		p.Description = FallbackDescription(v)
	}

	checklist := make([]string, 0, limits.MaxChecklistItems)
	for _, item := range stringList(raw, "checklist") {
		if util.RuneLen(item) < limits.MinChecklistItemRunes {
			continue
		}
		checklist = append(checklist, item)
	}
	p.Checklist = capList(checklist, limits.MaxChecklistItems)

	p.AlternateAngles = SupplementAngles(capList(stringList(raw, "alternate_angles"), limits.MaxAlternateAngles), subjectID, v)
	return p
}

// SupplementAngles tops up a sparse angle list from the deterministic
// generator until the minimum count is reached.
func SupplementAngles(angles []string, subjectID string, v *domain.Video) []string {
	angles = util.UniqueFold(angles)
	if len(angles) >= constants.AnalysisLimits.MinAlternateAngles {
		return angles
	}
	for _, extra := range AlternateAngles(subjectID, v) {
		if len(angles) >= constants.AnalysisLimits.MinAlternateAngles {
			break
		}
		angles = util.UniqueFold(append(angles, extra))
	}
	return angles
}

// FallbackDescription derives a one-sentence description without echoing the
// title: the first well-formed sentence of the video description, else a
// synthesis of up to three tags, else a category line, else a generic line.
// Candidates equal to the title are skipped.
func FallbackDescription(v *domain.Video) string {
	if v == nil {
		v = &domain.Video{}
	}
	title := normalizedSentence(v.Title)
	limits := constants.AnalysisLimits

	for _, raw := range splitSentences(v.Description) {
		sentence := util.CollapseSpace(raw)
		n := util.RuneLen(sentence)
		if n < limits.MinDescriptionRunes || n > limits.MaxDescriptionRunes {
			continue
		}
		if urlRegex.MatchString(sentence) || normalizedSentence(sentence) == title {
			continue
		}
		return sentence
	}

	var candidates []string
	tags := util.UniqueFold(v.Tags)
	if len(tags) > 3 {
		tags = tags[:3]
	}
	switch len(tags) {
	case 1:
		candidates = append(candidates, fmt.Sprintf("A video about %s.", tags[0]))
	case 2:
		candidates = append(candidates, fmt.Sprintf("A video about %s and %s.", tags[0], tags[1]))
	case 3:
		candidates = append(candidates, fmt.Sprintf("A video about %s, %s and %s.", tags[0], tags[1], tags[2]))
	}
	if name := domain.CategoryName(v.CategoryID); name != "" {
		candidates = append(candidates, fmt.Sprintf("A %s video from this channel.", name))
	}
	candidates = append(candidates, "A video from this channel.")

	for _, c := range candidates {
		if normalizedSentence(c) != title {
			return c
		}
	}
	// Only reached when the title is the generic line itself.
	return "An upload from this channel."
}

func normalizedSentence(s string) string {
	return util.Normalize(strings.TrimRight(strings.TrimSpace(s), sentenceTerminators))
}

// splitSentences cuts at newlines, full-width terminators, and ASCII
// terminators followed by whitespace so dots inside URLs do not end a sentence.
func splitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(text)
	for i, r := range runes {
		switch {
		case r == '\n':
			out = append(out, string(runes[start:i]))
			start = i + 1
		case strings.ContainsRune(sentenceTerminators, r):
			if r > unicode.MaxASCII || i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				out = append(out, string(runes[start:i+1]))
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

func fallbackSummary(v *domain.Video) string {
	kind := "video"
	if name := domain.CategoryName(v.CategoryID); name != "" {
		kind = name + " video"
	}
	return fmt.Sprintf("A %s-form %s with %d views, %d likes and %d comments so far.",
		bucketFor(v.DurationSeconds), kind, v.Metrics.Views, v.Metrics.Likes, v.Metrics.Comments)
}

// auxiliaryFields holds what the comment task actually produced; nil or
// empty members were absent and must not overwrite cached values.
type auxiliaryFields struct {
	Sentiment *domain.SentimentDistribution
	Themes    []string
	Quotes    []domain.Quote
}

func (f auxiliaryFields) empty() bool {
	return f.Sentiment == nil && len(f.Themes) == 0 && len(f.Quotes) == 0
}

// NormalizeAuxiliary extracts the comment-task fields from an untrusted object.
func NormalizeAuxiliary(raw map[string]any) auxiliaryFields {
	var out auxiliaryFields
	limits := constants.AnalysisLimits

	if s, ok := raw["sentiment"].(map[string]any); ok {
		pos, okP := number(s["positive"])
		neu, okN := number(s["neutral"])
		neg, okG := number(s["negative"])
		sum := pos + neu + neg
		if okP && okN && okG && pos >= 0 && neu >= 0 && neg >= 0 && sum > 0 {
			out.Sentiment = &domain.SentimentDistribution{
				Positive: round3(pos / sum),
				Neutral:  round3(neu / sum),
				Negative: round3(neg / sum),
			}
		}
	}

	out.Themes = capList(stringList(raw, "themes"), limits.MaxListItems)

	if items, ok := raw["quotes"].([]any); ok {
		for _, item := range items {
			var q domain.Quote
			switch val := item.(type) {
			case string:
				q.Text = util.CollapseSpace(val)
			case map[string]any:
				q.Text = util.CollapseSpace(asString(val["text"]))
				q.Author = strings.TrimSpace(asString(val["author"]))
				q.Sentiment = normalizeSentimentLabel(asString(val["sentiment"]))
			}
			if q.Text == "" {
				continue
			}
			q.Text = util.TruncateString(q.Text, limits.CommentPromptRunes)
			out.Quotes = append(out.Quotes, q)
			if len(out.Quotes) == limits.MaxQuotes {
				break
			}
		}
	}
	return out
}

// MergeAuxiliary writes the produced fields over existing and leaves the rest
// untouched. changed is false when nothing was produced.
func MergeAuxiliary(existing domain.AuxiliaryPayload, fields auxiliaryFields, commentsAnalyzed int, now time.Time) (merged domain.AuxiliaryPayload, changed bool) {
	merged = existing
	if fields.empty() {
		return merged, false
	}
	if fields.Sentiment != nil {
		merged.Sentiment = *fields.Sentiment
	}
	if len(fields.Themes) > 0 {
		merged.Themes = fields.Themes
	}
	if len(fields.Quotes) > 0 {
		merged.Quotes = fields.Quotes
	}
	merged.CommentsAnalyzed = commentsAnalyzed
	merged.UpdatedAt = now
	return merged, true
}

// EnsureAuxiliaryShape replaces nil slices so the payload serializes as empty lists.
func EnsureAuxiliaryShape(p domain.AuxiliaryPayload) domain.AuxiliaryPayload {
	if p.Themes == nil {
		p.Themes = []string{}
	}
	if p.Quotes == nil {
		p.Quotes = []domain.Quote{}
	}
	return p
}

// EnsurePrimaryShape replaces nil slices and empty narrative strings.
func EnsurePrimaryShape(p domain.PrimaryPayload, subjectID string, v *domain.Video) domain.PrimaryPayload {
	if p.Summary == "" {
		p.Summary = fallbackSummary(v)
	}
	if p.Description == "" {
		p.Description = FallbackDescription(v)
	}
	for _, list := range []*[]string{&p.Strengths, &p.Improvements, &p.Checklist, &p.TitleIdeas} {
		if *list == nil {
			*list = []string{}
		}
	}
	if len(p.AlternateAngles) < constants.AnalysisLimits.MinAlternateAngles {
		p.AlternateAngles = SupplementAngles(p.AlternateAngles, subjectID, v)
	}
	return p
}

func stringField(raw map[string]any, key string) string {
	return util.CollapseSpace(asString(raw[key]))
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// stringList coerces raw[key] to a list of non-empty strings; anything that
// is not a list yields an empty slice.
func stringList(raw map[string]any, key string) []string {
	items, ok := raw[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, util.CollapseSpace(s))
		}
	}
	return util.UniqueFold(out)
}

func capList(items []string, limit int) []string {
	if items == nil {
		return []string{}
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func normalizeSentimentLabel(s string) string {
	switch util.Normalize(s) {
	case "positive":
		return "positive"
	case "negative":
		return "negative"
	case "neutral", "mixed":
		return "neutral"
	default:
		return ""
	}
}
