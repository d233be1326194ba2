package mdblist

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Provider quota headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimitHeaders holds the quota counters reported with a response. Each
// field is nil when the header was missing or unparseable.
type RateLimitHeaders struct {
	Limit     *int
	Remaining *int
	ResetAt   *time.Time
}

// Empty reports whether no quota information was present.
func (h RateLimitHeaders) Empty() bool {
	return h.Limit == nil && h.Remaining == nil && h.ResetAt == nil
}

// Exhausted reports whether the remaining counter is known to be zero or below.
func (h RateLimitHeaders) Exhausted() bool {
	return h.Remaining != nil && *h.Remaining <= 0
}

// ParseRateLimitHeaders extracts quota headers; each header is parsed on its own.
func ParseRateLimitHeaders(header http.Header) RateLimitHeaders {
	var out RateLimitHeaders
	if header == nil {
		return out
	}
	if v, ok := parseHeaderInt(header.Get(HeaderRateLimitLimit)); ok {
		out.Limit = &v
	}
	if v, ok := parseHeaderInt(header.Get(HeaderRateLimitRemaining)); ok {
		out.Remaining = &v
	}
	if v, ok := parseResetHeader(header.Get(HeaderRateLimitReset)); ok {
		out.ResetAt = &v
	}
	return out
}

func parseHeaderInt(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// parseResetHeader reads epoch seconds, falling back to HTTP-date and RFC 3339.
func parseResetHeader(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs <= 0 {
			return time.Time{}, false
		}
		return time.Unix(secs, 0).UTC(), true
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return time.Time{}, false
		}
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}
	if when, err := http.ParseTime(value); err == nil {
		return when.UTC(), true
	}
	if when, err := time.Parse(time.RFC3339, value); err == nil {
		return when.UTC(), true
	}
	return time.Time{}, false
}
