package library

import (
	"fmt"
	"strings"
	"time"

	"ratingsync/internal/mdblist"
	"ratingsync/internal/ratings"
	"ratingsync/internal/services"
)

// Kind identifies a supported media type.
type Kind string

const (
	KindMovie Kind = mdblist.ContentMovie
	KindShow  Kind = mdblist.ContentShow
)

// ParseKind accepts the provider content types plus common aliases.
func ParseKind(value string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "film":
		return KindMovie, true
	case "show", "series", "tv":
		return KindShow, true
	default:
		return "", false
	}
}

// Supported reports whether the provider has a route for this kind.
func (k Kind) Supported() bool {
	return k == KindMovie || k == KindShow
}

// Item is a library entry and its current rating fields. Nil ratings have
// never been set.
type Item struct {
	ID              string
	Name            string
	Kind            Kind
	TMDBID          string
	IMDBID          string
	CommunityRating *float64
	CriticRating    *int
	CommunitySource string
	CriticSource    string
	Collections     []ratings.Collection
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasCommunityRating reports whether a positive community rating is stored.
func (i Item) HasCommunityRating() bool {
	return i.CommunityRating != nil && *i.CommunityRating > 0
}

// HasCriticRating reports whether a positive critic rating is stored.
func (i Item) HasCriticRating() bool {
	return i.CriticRating != nil && *i.CriticRating > 0
}

// Label returns a short human-readable description for logs and tables.
func (i Item) Label() string {
	if strings.TrimSpace(i.Name) == "" {
		return i.ID
	}
	return i.Name
}

func (i Item) validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return services.Wrap(services.ErrValidation, "library", "validate item", "name is required", nil)
	}
	if !i.Kind.Supported() {
		return services.Wrap(services.ErrValidation, "library", "validate item",
			fmt.Sprintf("unsupported kind %q", i.Kind), nil)
	}
	return nil
}
