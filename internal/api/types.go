package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Rating is one provider rating entry.
type Rating struct {
	Source string   `json:"source"`
	Value  *float64 `json:"value,omitempty"`
	Score  *float64 `json:"score,omitempty"`
	Votes  *int64   `json:"votes,omitempty"`
	URL    string   `json:"url,omitempty"`
}

// RatingLookup answers whether ratings are cached for a title.
type RatingLookup struct {
	Found       bool     `json:"found"`
	ContentType string   `json:"contentType"`
	TMDBID      string   `json:"tmdbId"`
	IMDBID      string   `json:"imdbId,omitempty"`
	CachedAt    string   `json:"cachedAt,omitempty"`
	Stale       bool     `json:"stale"`
	Ratings     []Rating `json:"ratings"`
}

// RateLimitStatus reports provider quota state.
type RateLimitStatus struct {
	InCooldown    bool   `json:"inCooldown"`
	CooldownUntil string `json:"cooldownUntil,omitempty"`
	LastLimit     *int   `json:"lastLimit,omitempty"`
	LastRemaining *int   `json:"lastRemaining,omitempty"`
	LastResetAt   string `json:"lastResetAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// LibraryItem describes a library entry in a transport-friendly format.
type LibraryItem struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Kind            string       `json:"kind"`
	TMDBID          string       `json:"tmdbId,omitempty"`
	IMDBID          string       `json:"imdbId,omitempty"`
	CommunityRating *float64     `json:"communityRating,omitempty"`
	CommunitySource string       `json:"communitySource,omitempty"`
	CriticRating    *int         `json:"criticRating,omitempty"`
	CriticSource    string       `json:"criticSource,omitempty"`
	Collections     []Collection `json:"collections,omitempty"`
	UpdatedAt       string       `json:"updatedAt,omitempty"`
}

// Collection is a library collection membership.
type Collection struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// ItemListResponse wraps a collection of library items.
type ItemListResponse struct {
	Items []LibraryItem `json:"items"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
