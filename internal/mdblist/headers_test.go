package mdblist

import (
	"net/http"
	"testing"
	"time"
)

func TestParseRateLimitHeaders(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderRateLimitLimit, " 500 ")
	h.Set(HeaderRateLimitRemaining, "abc")
	h.Set(HeaderRateLimitReset, "1700000000.5")

	got := ParseRateLimitHeaders(h)
	if got.Limit == nil || *got.Limit != 500 {
		t.Fatalf("unexpected limit %v", got.Limit)
	}
	if got.Remaining != nil {
		t.Fatalf("unparseable remaining should be absent, got %d", *got.Remaining)
	}
	want := time.Unix(1700000000, 500_000_000)
	if got.ResetAt == nil || !got.ResetAt.Equal(want) {
		t.Fatalf("unexpected reset %v", got.ResetAt)
	}
	if got.Exhausted() {
		t.Fatal("unknown remaining reported as exhausted")
	}
}

func TestParseRateLimitHeadersHTTPDate(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderRateLimitReset, "Wed, 21 Oct 2026 07:28:00 GMT")
	got := ParseRateLimitHeaders(h)
	want := time.Date(2026, 10, 21, 7, 28, 0, 0, time.UTC)
	if got.ResetAt == nil || !got.ResetAt.Equal(want) {
		t.Fatalf("unexpected reset %v", got.ResetAt)
	}
}

func TestParseRateLimitHeadersEmpty(t *testing.T) {
	if !ParseRateLimitHeaders(nil).Empty() {
		t.Fatal("nil header should be empty")
	}
	h := http.Header{}
	h.Set(HeaderRateLimitRemaining, "0")
	got := ParseRateLimitHeaders(h)
	if got.Empty() || !got.Exhausted() {
		t.Fatalf("expected exhausted, got %+v", got)
	}
}
