package api

import (
	"time"

	"ratingsync/internal/library"
	"ratingsync/internal/mdblist"
	"ratingsync/internal/ratelimit"
)

// FromRatings converts provider rating entries.
func FromRatings(entries []mdblist.Rating) []Rating {
	out := make([]Rating, 0, len(entries))
	for _, r := range entries {
		out = append(out, Rating{
			Source: r.Source,
			Value:  r.Value,
			Score:  r.Score,
			Votes:  r.Votes,
			URL:    r.URL,
		})
	}
	return out
}

// FromState converts the tracker state as seen at now.
func FromState(state ratelimit.State, now time.Time) RateLimitStatus {
	dto := RateLimitStatus{
		InCooldown:    state.InCooldown(now),
		LastLimit:     state.LastLimit,
		LastRemaining: state.LastRemaining,
		CooldownUntil: formatTimePtr(state.CooldownUntil),
		LastResetAt:   formatTimePtr(state.LastResetAt),
	}
	if !state.UpdatedAt.IsZero() {
		dto.UpdatedAt = state.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromItem converts a library item to its API representation.
func FromItem(item library.Item) LibraryItem {
	dto := LibraryItem{
		ID:              item.ID,
		Name:            item.Name,
		Kind:            string(item.Kind),
		TMDBID:          item.TMDBID,
		IMDBID:          item.IMDBID,
		CommunityRating: item.CommunityRating,
		CommunitySource: item.CommunitySource,
		CriticRating:    item.CriticRating,
		CriticSource:    item.CriticSource,
	}
	for _, c := range item.Collections {
		dto.Collections = append(dto.Collections, Collection{ID: c.ID, Name: c.Name})
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromItems converts a slice of library items.
func FromItems(items []library.Item) []LibraryItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LibraryItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

func formatTimePtr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
