package enrich

import (
	"math"
	"strings"

	"ratingsync/internal/library"
	"ratingsync/internal/mdblist"
	"ratingsync/internal/ratings"
)

// communityTolerance is the smallest community difference treated as a change.
const communityTolerance = 0.01

// Change names reported in Result.Changes.
const (
	ChangeCommunityRating = "community_rating"
	ChangeCommunitySource = "community_source"
	ChangeCriticRating    = "critic_rating"
	ChangeCriticSource    = "critic_source"
	ChangeIMDBID          = "imdb_id"
)

// apply resolves payload onto a copy of item and lists the fields that changed.
// Channels that resolve to nothing leave the stored value alone.
func apply(item library.Item, payload *mdblist.Payload, mapping ratings.Mapping, onlyEmpty bool) (library.Item, []string) {
	var changes []string
	kind := string(item.Kind)

	if !(onlyEmpty && item.HasCommunityRating()) {
		if score, source, ok := ratings.CommunityScore(payload, mapping.Community(kind)); ok {
			if item.CommunityRating == nil || math.Abs(*item.CommunityRating-score) > communityTolerance {
				item.CommunityRating = &score
				changes = append(changes, ChangeCommunityRating)
			}
			if item.CommunitySource != source {
				item.CommunitySource = source
				changes = append(changes, ChangeCommunitySource)
			}
		}
	}

	if item.Kind == library.KindMovie && !(onlyEmpty && item.HasCriticRating()) {
		if score, source, ok := ratings.CriticScore(payload, mapping.MovieCritic); ok {
			if item.CriticRating == nil || *item.CriticRating != score {
				item.CriticRating = &score
				changes = append(changes, ChangeCriticRating)
			}
			if item.CriticSource != source {
				item.CriticSource = source
				changes = append(changes, ChangeCriticSource)
			}
		}
	}

	if imdb := strings.TrimSpace(payload.IDs.IMDB); imdb != "" && strings.TrimSpace(item.IMDBID) == "" {
		item.IMDBID = imdb
		changes = append(changes, ChangeIMDBID)
	}
	return item, changes
}
