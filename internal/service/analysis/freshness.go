package analysis

import "time"

// IsFresh reports whether a cached sub-analysis can be reused. An empty stored
// fingerprint counts as a match: rows written before fingerprinting existed
// stay reusable until their TTL lapses.
func IsFresh(capturedAt time.Time, storedFingerprint, currentFingerprint string, now time.Time, ttl time.Duration) bool {
	if capturedAt.IsZero() || ttl <= 0 {
		return false
	}
	if now.Sub(capturedAt) >= ttl {
		return false
	}
	return storedFingerprint == "" || storedFingerprint == currentFingerprint
}
