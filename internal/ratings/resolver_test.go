package ratings

import (
	"math"
	"testing"

	"ratingsync/internal/mdblist"
)

func ptr(v float64) *float64 { return &v }

func payloadOf(entries ...mdblist.Rating) *mdblist.Payload {
	return &mdblist.Payload{Type: mdblist.ContentMovie, Ratings: entries}
}

func TestResolveScorePrefersScoreOverValue(t *testing.T) {
	for _, score := range []float64{0.5, 42, 81, 100} {
		p := payloadOf(mdblist.Rating{Source: "metacritic", Score: ptr(score), Value: ptr(3)})
		res, ok := ResolveScore(p, "metacritic", "")
		if !ok {
			t.Fatalf("score %v: expected resolution", score)
		}
		if res.Score != score || res.Source != "metacritic" {
			t.Fatalf("score %v: got %+v", score, res)
		}
	}
}

func TestResolveScoreUnusableScoreIgnoresValue(t *testing.T) {
	p := payloadOf(mdblist.Rating{Source: "imdb", Score: ptr(0), Value: ptr(7.5)})
	if res, ok := ResolveScore(p, "imdb", ""); ok {
		t.Fatalf("expected absent, got %+v", res)
	}
	p = payloadOf(mdblist.Rating{Source: "imdb", Score: ptr(140)})
	if res, ok := ResolveScore(p, "imdb", ""); ok {
		t.Fatalf("expected absent for out of range score, got %+v", res)
	}
}

func TestResolveScoreValueConversion(t *testing.T) {
	tests := []struct {
		value float64
		want  float64
		ok    bool
	}{
		{value: 0.1, want: 0.1 * 10, ok: true},
		{value: 7.6, want: 7.6 * 10, ok: true},
		{value: 10, want: 100, ok: true},
		{value: 10.5, want: 10.5, ok: true},
		{value: 73, want: 73, ok: true},
		{value: 100, want: 100, ok: true},
		{value: 100.01, ok: false},
		{value: 0, ok: false},
		{value: -4, ok: false},
		{value: math.Inf(1), ok: false},
		{value: math.NaN(), ok: false},
	}
	for _, tt := range tests {
		p := payloadOf(mdblist.Rating{Source: "imdb", Value: ptr(tt.value)})
		res, ok := ResolveScore(p, "imdb", "none")
		if ok != tt.ok {
			t.Fatalf("value %v: ok=%v want %v", tt.value, ok, tt.ok)
		}
		if ok && res.Score != tt.want {
			t.Fatalf("value %v: got %v want %v", tt.value, res.Score, tt.want)
		}
	}
}

func TestResolveScoreFallbackRules(t *testing.T) {
	p := payloadOf(
		mdblist.Rating{Source: "IMDb", Value: ptr(0)},
		mdblist.Rating{Source: "tmdb", Value: ptr(6.8)},
	)

	res, ok := ResolveScore(p, " imdb ", "TMDB")
	if !ok || res.Source != "tmdb" || res.Score != 6.8*10 {
		t.Fatalf("expected tmdb fallback, got %+v ok=%v", res, ok)
	}
	for _, fallback := range []string{"", "none", "NONE", "Imdb"} {
		if res, ok := ResolveScore(p, "imdb", fallback); ok {
			t.Fatalf("fallback %q should not be consulted, got %+v", fallback, res)
		}
	}

	healthy := payloadOf(
		mdblist.Rating{Source: "imdb", Value: ptr(7.1)},
		mdblist.Rating{Source: "tmdb", Value: ptr(9.9)},
	)
	res, ok = ResolveScore(healthy, "imdb", "tmdb")
	if !ok || res.Source != "imdb" {
		t.Fatalf("fallback consulted although primary resolved: %+v", res)
	}
}

func TestResolveScoreFirstDuplicateWins(t *testing.T) {
	p := payloadOf(
		mdblist.Rating{Source: "imdb", Value: ptr(0)},
		mdblist.Rating{Source: "imdb", Value: ptr(8)},
	)
	if res, ok := ResolveScore(p, "imdb", ""); ok {
		t.Fatalf("expected first duplicate to be used, got %+v", res)
	}
}

func TestResolveScoreNilPayload(t *testing.T) {
	if _, ok := ResolveScore(nil, "imdb", "tmdb"); ok {
		t.Fatal("nil payload resolved")
	}
}

func TestCommunityScore(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
		ok    bool
	}{
		{score: 73, want: 7.3, ok: true},
		{score: 5, want: 0.5, ok: true},
		{score: 76.5, want: 7.7, ok: true},
		{score: 0.4, ok: false},
	}
	for _, tt := range tests {
		p := payloadOf(mdblist.Rating{Source: "imdb", Score: ptr(tt.score)})
		got, source, ok := CommunityScore(p, SourcePair{Primary: "imdb"})
		if ok != tt.ok {
			t.Fatalf("score %v: ok=%v want %v", tt.score, ok, tt.ok)
		}
		if ok && (got != tt.want || source != "imdb") {
			t.Fatalf("score %v: got %v (%s) want %v", tt.score, got, source, tt.want)
		}
	}

	zero := payloadOf(mdblist.Rating{Source: "imdb", Score: ptr(0)})
	if _, _, ok := CommunityScore(zero, SourcePair{Primary: "imdb"}); ok {
		t.Fatal("zero score should be discarded")
	}
}

func TestCriticScore(t *testing.T) {
	tests := []struct {
		score float64
		want  int
		ok    bool
	}{
		{score: 81, want: 81, ok: true},
		{score: 80.5, want: 81, ok: true},
		{score: 80.49, want: 80, ok: true},
		{score: 0.4, ok: false},
	}
	for _, tt := range tests {
		p := payloadOf(mdblist.Rating{Source: "metacritic", Score: ptr(tt.score)})
		got, source, ok := CriticScore(p, SourcePair{Primary: "metacritic", Fallback: "tomatoes"})
		if ok != tt.ok {
			t.Fatalf("score %v: ok=%v want %v", tt.score, ok, tt.ok)
		}
		if ok && (got != tt.want || source != "metacritic") {
			t.Fatalf("score %v: got %d (%s) want %d", tt.score, got, source, tt.want)
		}
	}
}
