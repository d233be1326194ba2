package main

import (
	"strconv"

	"ratingsync/internal/api"
)

func formatCommunity(item api.LibraryItem) string {
	if item.CommunityRating == nil {
		return "-"
	}
	out := strconv.FormatFloat(*item.CommunityRating, 'f', 1, 64)
	if item.CommunitySource != "" {
		out += " (" + item.CommunitySource + ")"
	}
	return out
}

func formatCritic(item api.LibraryItem) string {
	if item.CriticRating == nil {
		return "-"
	}
	out := strconv.Itoa(*item.CriticRating)
	if item.CriticSource != "" {
		out += " (" + item.CriticSource + ")"
	}
	return out
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func formatOptionalInt64(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
