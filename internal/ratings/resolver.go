package ratings

import (
	"math"
	"strings"

	"golang.org/x/text/cases"

	"ratingsync/internal/mdblist"
)

// NoFallback disables the fallback lookup when used as a fallback source.
const NoFallback = "none"

// Resolution is a score on the 100-point scale and the source it came from.
type Resolution struct {
	Score  float64
	Source string
}

// NormalizeSource trims and case-folds a source name.
func NormalizeSource(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return cases.Fold().String(name)
}

// ResolveScore looks up primary and, when it yields nothing, fallback. The
// fallback is skipped when empty, "none", or equal to primary.
func ResolveScore(payload *mdblist.Payload, primary, fallback string) (Resolution, bool) {
	if payload == nil {
		return Resolution{}, false
	}
	primary = NormalizeSource(primary)
	fallback = NormalizeSource(fallback)

	if primary != "" {
		if score, ok := sourceScore(payload, primary); ok {
			return Resolution{Score: score, Source: primary}, true
		}
	}
	if fallback == "" || fallback == NoFallback || fallback == primary {
		return Resolution{}, false
	}
	if score, ok := sourceScore(payload, fallback); ok {
		return Resolution{Score: score, Source: fallback}, true
	}
	return Resolution{}, false
}

// CommunityScore resolves a 0-10 rating rounded to one decimal.
func CommunityScore(payload *mdblist.Payload, pair SourcePair) (float64, string, bool) {
	res, ok := ResolveScore(payload, pair.Primary, pair.Fallback)
	if !ok {
		return 0, "", false
	}
	// One decimal on the 10-point scale is the integer on the 100-point scale.
	rating := math.Round(res.Score) / 10
	if rating <= 0 {
		return 0, "", false
	}
	return rating, res.Source, true
}

// CriticScore resolves a 0-100 rating rounded to the nearest integer.
func CriticScore(payload *mdblist.Payload, pair SourcePair) (int, string, bool) {
	res, ok := ResolveScore(payload, pair.Primary, pair.Fallback)
	if !ok {
		return 0, "", false
	}
	rating := int(math.Round(res.Score))
	if rating <= 0 {
		return 0, "", false
	}
	return rating, res.Source, true
}

// FindRating returns the first rating entry for source.
func FindRating(payload *mdblist.Payload, source string) (mdblist.Rating, bool) {
	if payload == nil {
		return mdblist.Rating{}, false
	}
	source = NormalizeSource(source)
	if source == "" {
		return mdblist.Rating{}, false
	}
	for _, r := range payload.Ratings {
		if NormalizeSource(r.Source) == source {
			return r, true
		}
	}
	return mdblist.Rating{}, false
}

func sourceScore(payload *mdblist.Payload, source string) (float64, bool) {
	entry, ok := FindRating(payload, source)
	if !ok {
		return 0, false
	}
	if entry.Score != nil {
		return usableScore(*entry.Score)
	}
	if entry.Value != nil {
		return ValueToHundred(*entry.Value)
	}
	return 0, false
}

func usableScore(score float64) (float64, bool) {
	if math.IsNaN(score) || math.IsInf(score, 0) || score <= 0 || score > 100 {
		return 0, false
	}
	return score, true
}

// ValueToHundred maps a native value onto the 100-point scale: (0,10] is
// multiplied by ten, (10,100] passes through, anything else is unusable.
func ValueToHundred(value float64) (float64, bool) {
	switch {
	case math.IsNaN(value) || math.IsInf(value, 0):
		return 0, false
	case value <= 0:
		return 0, false
	case value <= 10:
		return value * 10, true
	case value <= 100:
		return value, true
	default:
		return 0, false
	}
}
