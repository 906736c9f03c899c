package domain

import "time"

// CacheEntry holds the primary narrative captured for a video. An empty
// Fingerprint marks a row written before fingerprinting existed.
type CacheEntry struct {
	VideoID     string         `json:"video_id"`
	Fingerprint string         `json:"fingerprint"`
	CapturedAt  time.Time      `json:"captured_at"`
	Primary     PrimaryPayload `json:"primary"`
}

// AuxiliaryEntry holds the comment-derived narrative captured for a video.
type AuxiliaryEntry struct {
	VideoID     string           `json:"video_id"`
	Fingerprint string           `json:"fingerprint"`
	CapturedAt  time.Time        `json:"captured_at"`
	Payload     AuxiliaryPayload `json:"payload"`
}

type Niche struct {
	Label      string    `json:"label"`
	SubNiche   string    `json:"sub_niche"`
	Audience   string    `json:"audience"`
	Confidence float64   `json:"confidence"`
	CapturedAt time.Time `json:"captured_at"`
}
