package domain

import "time"

// PrimaryPayload is the normalized narrative produced by the primary generation task.
type PrimaryPayload struct {
	Summary         string   `json:"summary"`
	Description     string   `json:"description"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	Checklist       []string `json:"checklist"`
	AlternateAngles []string `json:"alternate_angles"`
	TitleIdeas      []string `json:"title_ideas"`
	Niche           *Niche   `json:"niche,omitempty"`
}

type SentimentDistribution struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

func (s SentimentDistribution) IsZero() bool {
	return s.Positive == 0 && s.Neutral == 0 && s.Negative == 0
}

type Quote struct {
	Text      string `json:"text"`
	Author    string `json:"author,omitempty"`
	Sentiment string `json:"sentiment,omitempty"`
}

// AuxiliaryPayload is the comment-derived narrative. Sentiment, Themes and Quotes
// belong to the auxiliary generation task.
type AuxiliaryPayload struct {
	Sentiment        SentimentDistribution `json:"sentiment"`
	Themes           []string              `json:"themes"`
	Quotes           []Quote               `json:"quotes"`
	CommentsAnalyzed int                   `json:"comments_analyzed"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// IsEmpty reports whether nothing has ever been captured into the payload.
func (p *AuxiliaryPayload) IsEmpty() bool {
	return p == nil || (p.Sentiment.IsZero() && len(p.Themes) == 0 && len(p.Quotes) == 0)
}

type Verdict string

const (
	VerdictStrong  Verdict = "strong"
	VerdictAverage Verdict = "average"
	VerdictWeak    Verdict = "weak"
	VerdictInfo    Verdict = "info"
)

// DerivedInsight is a rule-based (non-generative) observation over public metrics.
type DerivedInsight struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Value   string  `json:"value"`
	Verdict Verdict `json:"verdict"`
	Detail  string  `json:"detail"`
}

type Capability struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// CapabilityDisclosure lists which signal categories the report can and cannot speak to.
type CapabilityDisclosure struct {
	Knowable   []Capability `json:"knowable"`
	Unknowable []Capability `json:"unknowable"`
	Notes      []string     `json:"notes"`
}

type AudienceSection struct {
	Available bool             `json:"available"`
	Payload   AuxiliaryPayload `json:"payload"`
}

// AnalysisResult is the fixed-shape report returned to the boundary layer.
type AnalysisResult struct {
	VideoID      string               `json:"video_id"`
	Range        RangeSelector        `json:"range"`
	Video        Video                `json:"video"`
	Metrics      VideoMetrics         `json:"metrics"`
	Insights     []DerivedInsight     `json:"insights"`
	Narrative    PrimaryPayload       `json:"narrative"`
	Audience     AudienceSection      `json:"audience"`
	Capabilities CapabilityDisclosure `json:"capabilities"`
	Fingerprint  string               `json:"fingerprint"`
	GeneratedAt  time.Time            `json:"generated_at"`
	FromCache    bool                 `json:"from_cache"`
}
