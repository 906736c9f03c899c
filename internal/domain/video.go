package domain

import "time"

type VideoMetrics struct {
	Views    uint64 `json:"views"`
	Likes    uint64 `json:"likes"`
	Comments uint64 `json:"comments"`
}

// Video is the analyzed subject. Title, Description, Tags, DurationSeconds and
// CategoryID are the mutable content fields covered by the fingerprint.
type Video struct {
	ID              string       `json:"id"`
	ChannelID       string       `json:"channel_id"`
	ChannelTitle    string       `json:"channel_title"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Tags            []string     `json:"tags"`
	DurationSeconds int          `json:"duration_seconds"`
	CategoryID      string       `json:"category_id"`
	PublishedAt     time.Time    `json:"published_at"`
	Thumbnail       string       `json:"thumbnail,omitempty"`
	Metrics         VideoMetrics `json:"metrics"`
}

func (v *Video) GetYouTubeURL() string {
	if v == nil {
		return ""
	}
	return "https://youtube.com/watch?v=" + v.ID
}

// Age returns how long the video has been public at now; zero for unknown publish times.
func (v *Video) Age(now time.Time) time.Duration {
	if v == nil || v.PublishedAt.IsZero() || now.Before(v.PublishedAt) {
		return 0
	}
	return now.Sub(v.PublishedAt)
}

// Comment is a single public reaction.
type Comment struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	LikeCount   int64     `json:"like_count"`
	PublishedAt time.Time `json:"published_at"`
}

// RelatedVideo is another upload from the same owner.
type RelatedVideo struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	PublishedAt     time.Time    `json:"published_at"`
	DurationSeconds int          `json:"duration_seconds"`
	Metrics         VideoMetrics `json:"metrics"`
}

var categoryNames = map[string]string{
	"1":  "Film & Animation",
	"2":  "Autos & Vehicles",
	"10": "Music",
	"15": "Pets & Animals",
	"17": "Sports",
	"19": "Travel & Events",
	"20": "Gaming",
	"22": "People & Blogs",
	"23": "Comedy",
	"24": "Entertainment",
	"25": "News & Politics",
	"26": "Howto & Style",
	"27": "Education",
	"28": "Science & Technology",
	"29": "Nonprofits & Activism",
}

// CategoryName maps a YouTube category id to its display name; empty when unknown.
func CategoryName(categoryID string) string {
	return categoryNames[categoryID]
}
