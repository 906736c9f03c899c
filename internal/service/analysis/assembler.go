package analysis

import (
	"time"

	"github.com/kapu/creator-insight-go/internal/domain"
)

// AssembleInput is everything the report is built from. Auxiliary is nil when
// no comment analysis exists; Related is nil when uploads could not be fetched.
type AssembleInput struct {
	SubjectID   string
	Range       domain.RangeSelector
	Video       *domain.Video
	Primary     domain.PrimaryPayload
	Auxiliary   *domain.AuxiliaryPayload
	Related     []domain.RelatedVideo
	Fingerprint string
	FromCache   bool
	Notes       []string
	Now         time.Time
}

var unknowableCapabilities = []domain.Capability{
	{Key: "retention", Label: "Audience retention and watch time", Reason: "Only visible in the creator's private analytics."},
	{Key: "traffic_sources", Label: "Traffic sources", Reason: "Search, browse and external referrals are not exposed publicly."},
	{Key: "impressions", Label: "Impressions and click-through rate", Reason: "Thumbnail impressions are private to the channel."},
	{Key: "demographics", Label: "Viewer demographics", Reason: "Age, gender and geography are not exposed publicly."},
	{Key: "revenue", Label: "Revenue", Reason: "Monetization data is private to the channel."},
	{Key: "subscriber_conversion", Label: "Subscribers gained from this video", Reason: "Per-video subscriber changes are private."},
}

// Assemble builds the fixed-shape report. It never fails; missing sections
// become empty defaults plus a disclosure note.
func Assemble(in AssembleInput) domain.AnalysisResult {
	video := domain.Video{}
	if in.Video != nil {
		video = *in.Video
	}
	if video.Tags == nil {
		video.Tags = []string{}
	}

	result := domain.AnalysisResult{
		VideoID:     in.SubjectID,
		Range:       in.Range,
		Video:       video,
		Metrics:     video.Metrics,
		Insights:    DerivedInsights(&video, in.Related, in.Range, in.Now),
		Narrative:   EnsurePrimaryShape(in.Primary, in.SubjectID, &video),
		Fingerprint: in.Fingerprint,
		GeneratedAt: in.Now,
		FromCache:   in.FromCache,
	}

	if in.Auxiliary != nil && !in.Auxiliary.IsEmpty() {
		result.Audience = domain.AudienceSection{Available: true, Payload: EnsureAuxiliaryShape(*in.Auxiliary)}
	} else {
		result.Audience = domain.AudienceSection{Payload: EnsureAuxiliaryShape(domain.AuxiliaryPayload{})}
	}

	result.Capabilities = disclose(result, in)
	return result
}

func disclose(result domain.AnalysisResult, in AssembleInput) domain.CapabilityDisclosure {
	d := domain.CapabilityDisclosure{
		Knowable: []domain.Capability{
			{Key: "public_metrics", Label: "Views, likes and comment count", Reason: "Public statistics at fetch time."},
			{Key: "metadata", Label: "Title, description and tags", Reason: "Public video metadata."},
		},
		Unknowable: append([]domain.Capability(nil), unknowableCapabilities...),
		Notes:      []string{},
	}

	if result.Audience.Available {
		d.Knowable = append(d.Knowable, domain.Capability{
			Key: "comment_sentiment", Label: "Comment sentiment and themes",
			Reason: "Derived from a sample of public top-level comments.",
		})
	} else {
		d.Notes = append(d.Notes, "Comment analysis is unavailable for this report; comments were missing, disabled or could not be analyzed.")
	}

	if in.Related != nil {
		d.Knowable = append(d.Knowable, domain.Capability{
			Key: "channel_comparison", Label: "Comparison with recent uploads",
			Reason: "Public statistics of the channel's latest uploads.",
		})
	} else {
		d.Notes = append(d.Notes, "Comparison with the channel's recent uploads is unavailable for this report.")
	}

	if result.Narrative.Niche != nil {
		d.Knowable = append(d.Knowable, domain.Capability{
			Key: "niche", Label: "Channel niche",
			Reason: "Classified from public metadata of recent uploads.",
		})
	}

	if in.FromCache {
		d.Notes = append(d.Notes, "Narrative reused from an earlier analysis of unchanged content.")
	}
	d.Notes = append(d.Notes, in.Notes...)
	return d
}
