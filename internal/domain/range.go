package domain

import (
	"strings"
	"time"
)

// RangeSelector bounds which of the owner's recent uploads feed comparative insights.
type RangeSelector string

const (
	Range7Days    RangeSelector = "7d"
	Range28Days   RangeSelector = "28d"
	Range90Days   RangeSelector = "90d"
	Range365Days  RangeSelector = "365d"
	RangeLifetime RangeSelector = "lifetime"
)

func (r RangeSelector) String() string {
	return string(r)
}

func (r RangeSelector) IsValid() bool {
	switch r {
	case Range7Days, Range28Days, Range90Days, Range365Days, RangeLifetime:
		return true
	default:
		return false
	}
}

// ParseRangeSelector normalizes user input; an empty value means 28 days.
func ParseRangeSelector(value string) (RangeSelector, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return Range28Days, true
	}
	r := RangeSelector(value)
	return r, r.IsValid()
}

// Window returns the look-back duration; zero means unbounded.
func (r RangeSelector) Window() time.Duration {
	switch r {
	case Range7Days:
		return 7 * 24 * time.Hour
	case Range28Days:
		return 28 * 24 * time.Hour
	case Range90Days:
		return 90 * 24 * time.Hour
	case Range365Days:
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}

// Contains reports whether t falls inside the window ending at now.
func (r RangeSelector) Contains(t, now time.Time) bool {
	window := r.Window()
	if window == 0 {
		return true
	}
	return !t.Before(now.Add(-window))
}
