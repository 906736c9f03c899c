package analysis

import (
	"hash/fnv"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kapu/creator-insight-go/internal/constants"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/internal/util"
)

type contentFormat string

const (
	formatTutorial contentFormat = "tutorial"
	formatReview   contentFormat = "review"
	formatGaming   contentFormat = "gaming"
	formatVlog     contentFormat = "vlog"
	formatMusic    contentFormat = "music"
	formatGeneral  contentFormat = "general"
)

type durationBucket string

const (
	bucketShort durationBucket = "short"
	bucketMid   durationBucket = "mid"
	bucketLong  durationBucket = "long"
)

var (
	numericHookRegex  = regexp.MustCompile(`\d+`)
	curiosityGapRegex = regexp.MustCompile(`(?i)\?|\b(why|secret|nobody|truth|what happens|you won't|never)\b`)
	topicNoiseRegex   = regexp.MustCompile(`[^\p{L}\p{N}\s'-]+`)

	formatKeywords = []struct {
		format   contentFormat
		keywords []string
	}{
		{formatTutorial, []string{"how to", "tutorial", "guide", "learn", "tips", "explained", "step by step"}},
		{formatReview, []string{"review", "unboxing", " vs ", "tested", "worth it", "comparison"}},
		{formatGaming, []string{"gameplay", "let's play", "speedrun", "walkthrough", "playthrough", "minecraft"}},
		{formatVlog, []string{"vlog", "day in the life", "my week", "travel", "routine"}},
		{formatMusic, []string{"cover", "official video", "lyrics", "remix", "live session"}},
	}

	categoryFormats = map[string]contentFormat{
		"10": formatMusic,
		"20": formatGaming,
		"22": formatVlog,
		"19": formatVlog,
		"26": formatTutorial,
		"27": formatTutorial,
		"28": formatReview,
	}

	formatTemplates = map[contentFormat][]string{
		formatTutorial: {
			"A beginner-friendly {topic} walkthrough with zero jargon",
			"The {n} most common {topic} mistakes and how to fix them",
			"{topic} in {min} minutes: the speed-run version",
			"Follow-up: answering viewer questions about {topic}",
		},
		formatReview: {
			"Long-term follow-up: {topic} after {days} days",
			"{topic} head to head with its closest alternative",
			"Who should skip {topic}",
			"The budget alternative to {topic}",
		},
		formatGaming: {
			"Top {n} {topic} moments, ranked",
			"Playing {topic} for {days} days straight",
			"A {topic} challenge run with one self-imposed rule",
			"Beginner's guide to {topic}",
		},
		formatVlog: {
			"What {days} days of {topic} actually looks like",
			"Behind the scenes of {topic}",
			"A day-in-the-life follow-up on {topic}",
			"{n} lessons learned from {topic}",
		},
		formatMusic: {
			"A stripped-down acoustic version of {topic}",
			"Breaking down how {topic} was made",
			"Reacting to fan covers of {topic}",
			"The story behind {topic}",
		},
		formatGeneral: {
			"Explaining {topic} to a complete beginner",
			"Common myths about {topic}, tested",
			"The {n} things I wish I knew about {topic}",
			"{topic}: what changed in the last {days} days",
		},
	}

	padTemplates = []string{
		"A fresh take on {topic} for first-time viewers",
		"{topic} explained with real examples",
		"Your questions about {topic}, answered",
		"The {topic} follow-up viewers asked for",
	}

	numberChoices = []int{3, 5, 7, 10}
	dayChoices    = []int{7, 30, 100}
	minuteChoices = []int{5, 10, 15}
)

// AlternateAngles returns between four and six packaging ideas for the video
// without any external call. The same (subjectID, video content) always yields
// the same ordered list.
func AlternateAngles(subjectID string, v *domain.Video) []string {
	if v == nil {
		v = &domain.Video{}
	}

	rng := rand.New(rand.NewPCG(uint64(fallbackSeed(subjectID, v.Title)), 0x9e3779b97f4a7c15))
	format := detectFormat(v)
	bucket := bucketFor(v.DurationSeconds)
	topic := inferTopic(v)

	candidates := make([]string, 0, 10)
	for _, tmpl := range formatTemplates[format] {
		candidates = append(candidates, fill(tmpl, topic, rng))
	}
	if format != formatGeneral {
		candidates = append(candidates, fill(formatTemplates[formatGeneral][0], topic, rng))
	}

	switch bucket {
	case bucketShort:
		candidates = append(candidates, fill("Expand {topic} into a full-length deep dive", topic, rng))
	case bucketLong:
		candidates = append(candidates, fill("Cut {topic} into a {n}-part Shorts series", topic, rng))
	default:
		candidates = append(candidates, fill("A 60-second Shorts teaser for {topic}", topic, rng))
	}

	if numericHookRegex.MatchString(v.Title) {
		candidates = append(candidates, fill("A story-led angle on {topic} without a number in the title", topic, rng))
	} else {
		candidates = append(candidates, fill("A list-format take: {n} {topic} tips in one video", topic, rng))
	}

	if curiosityGapRegex.MatchString(v.Title) {
		candidates = append(candidates, fill("A direct, no-suspense version of {topic} that answers upfront", topic, rng))
	} else {
		candidates = append(candidates, fill("A question-led hook: why {topic} matters more than people think", topic, rng))
	}

	unique := util.UniqueFold(candidates)
	rng.Shuffle(len(unique), func(i, j int) { unique[i], unique[j] = unique[j], unique[i] })

	maxAngles := constants.AnalysisLimits.MaxAlternateAngles
	if len(unique) > maxAngles {
		unique = unique[:maxAngles]
	}
	for _, tmpl := range padTemplates {
		if len(unique) >= constants.AnalysisLimits.MinAlternateAngles {
			break
		}
		unique = util.UniqueFold(append(unique, fill(tmpl, topic, rng)))
	}
	return unique
}

// fallbackSeed is FNV-1a over the subject id followed by the title.
func fallbackSeed(subjectID, title string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subjectID + title))
	return h.Sum32()
}

func detectFormat(v *domain.Video) contentFormat {
	haystack := " " + strings.ToLower(v.Title+" "+strings.Join(v.Tags, " ")) + " "
	for _, fk := range formatKeywords {
		for _, kw := range fk.keywords {
			if strings.Contains(haystack, kw) {
				return fk.format
			}
		}
	}
	if f, ok := categoryFormats[v.CategoryID]; ok {
		return f
	}
	return formatGeneral
}

func bucketFor(seconds int) durationBucket {
	switch {
	case seconds > 0 && seconds <= 60:
		return bucketShort
	case seconds > 20*60:
		return bucketLong
	default:
		return bucketMid
	}
}

// inferTopic prefers the first tag, then a cleaned prefix of the title, then
// the category name.
func inferTopic(v *domain.Video) string {
	for _, tag := range v.Tags {
		if tag = util.CollapseSpace(tag); tag != "" {
			return tag
		}
	}

	cleaned := util.CollapseSpace(topicNoiseRegex.ReplaceAllString(numericHookRegex.ReplaceAllString(v.Title, " "), " "))
	if words := strings.Fields(cleaned); len(words) > 0 {
		if len(words) > 5 {
			words = words[:5]
		}
		return strings.Join(words, " ")
	}

	if name := domain.CategoryName(v.CategoryID); name != "" {
		return strings.ToLower(name)
	}
	return "this topic"
}

// fill substitutes placeholders. Each placeholder present draws once from rng,
// in a fixed order, so output depends only on the seed.
func fill(tmpl, topic string, rng *rand.Rand) string {
	out := strings.ReplaceAll(tmpl, "{topic}", topic)
	if strings.Contains(out, "{n}") {
		out = strings.ReplaceAll(out, "{n}", strconv.Itoa(numberChoices[rng.IntN(len(numberChoices))]))
	}
	if strings.Contains(out, "{days}") {
		out = strings.ReplaceAll(out, "{days}", strconv.Itoa(dayChoices[rng.IntN(len(dayChoices))]))
	}
	if strings.Contains(out, "{min}") {
		out = strings.ReplaceAll(out, "{min}", strconv.Itoa(minuteChoices[rng.IntN(len(minuteChoices))]))
	}
	return capitalizeFirst(out)
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
