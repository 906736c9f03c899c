package constants

import "time"

var CacheTTL = struct {
	PrimaryNarrative   time.Duration
	AuxiliaryNarrative time.Duration
	Niche              time.Duration
	RedisEntry         time.Duration
}{
	PrimaryNarrative:   21 * 24 * time.Hour, // 3주 - 비싼 본문 분석
	AuxiliaryNarrative: 3 * 24 * time.Hour,  // 3일 - 댓글 분석
	Niche:              30 * 24 * time.Hour, // 30일 - 채널 니치 분류
	RedisEntry:         6 * time.Hour,
}

var Timeouts = struct {
	StoreRead           time.Duration
	StoreWrite          time.Duration
	VideoFetch          time.Duration
	CommentFetch        time.Duration
	RelatedFetch        time.Duration
	PrimaryGeneration   time.Duration
	AuxiliaryGeneration time.Duration
	NicheGeneration     time.Duration
}{
	StoreRead:           3 * time.Second,
	StoreWrite:          5 * time.Second,
	VideoFetch:          8 * time.Second,
	CommentFetch:        6 * time.Second,
	RelatedFetch:        6 * time.Second,
	PrimaryGeneration:   45 * time.Second,
	AuxiliaryGeneration: 30 * time.Second,
	NicheGeneration:     20 * time.Second,
}

var AnalysisLimits = struct {
	MaxComments           int
	MaxRelatedVideos      int
	MaxListItems          int
	MaxChecklistItems     int
	MinChecklistItemRunes int
	MinAlternateAngles    int
	MaxAlternateAngles    int
	MinDescriptionRunes   int
	MaxDescriptionRunes   int
	MaxQuotes             int
	CommentPromptRunes    int
}{
	MaxComments:           100,
	MaxRelatedVideos:      15,
	MaxListItems:          8,
	MaxChecklistItems:     8,
	MinChecklistItemRunes: 12,
	MinAlternateAngles:    4,
	MaxAlternateAngles:    6,
	MinDescriptionRunes:   40,
	MaxDescriptionRunes:   220,
	MaxQuotes:             5,
	CommentPromptRunes:    300,
}

var GenerationConfig = struct {
	PrimaryMaxOutputTokens   int
	PrimaryTemperature       float32
	AuxiliaryMaxOutputTokens int
	AuxiliaryTemperature     float32
	NicheMaxOutputTokens     int
	NicheTemperature         float32
}{
	PrimaryMaxOutputTokens:   4096,
	PrimaryTemperature:       0.7,
	AuxiliaryMaxOutputTokens: 2048,
	AuxiliaryTemperature:     0.3,
	NicheMaxOutputTokens:     512,
	NicheTemperature:         0.2,
}

var InflightConfig = struct {
	SafetyTimeout time.Duration
}{
	SafetyTimeout: 2 * time.Minute, // 응답 없는 중복 제거 항목 강제 제거
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Jitter:      250 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,                // 3회 연속 실패 시 Circuit OPEN
	ResetTimeout:        30 * time.Second, // 기본 재시도 대기 시간 (30초)
	RateLimitTimeout:    1 * time.Hour,    // 429 Rate Limit 전용 타임아웃 (1시간)
	HealthCheckInterval: 10 * time.Minute, // Health Check 주기 (10분)
	HealthCheckTimeout:  10 * time.Second, // Health Check 타임아웃 (10초)
}

var YouTubeQuota = struct {
	DailyLimit        int
	SafetyMargin      int
	VideosListCost    int
	CommentThreadCost int
	ChannelsListCost  int
	PlaylistItemsCost int
	RequestsPerSecond float64
	Burst             int
}{
	DailyLimit:        10000,
	SafetyMargin:      2000, // 2000 유닛 예약
	VideosListCost:    1,
	CommentThreadCost: 1,
	ChannelsListCost:  1,
	PlaylistItemsCost: 1,
	RequestsPerSecond: 5,
	Burst:             5,
}
