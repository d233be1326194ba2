package mdblist

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Content types understood by the provider's /tmdb/{type}/{id} route.
const (
	ContentMovie = "movie"
	ContentShow  = "show"
)

// Payload is the subset of a provider response the pipeline relies on.
type Payload struct {
	Type    string      `json:"type,omitempty"`
	IDs     ExternalIDs `json:"ids"`
	Ratings []Rating    `json:"ratings"`
}

// ExternalIDs carries the catalog identifiers echoed by the provider.
type ExternalIDs struct {
	TMDB string `json:"tmdb,omitempty"`
	IMDB string `json:"imdb,omitempty"`
}

// Rating is one source's rating. Value may be on a 0-10 or 0-100 scale; Score
// is always 0-100 and is authoritative when present.
type Rating struct {
	Source string   `json:"source"`
	Value  *float64 `json:"value,omitempty"`
	Score  *float64 `json:"score,omitempty"`
	Votes  *int64   `json:"votes,omitempty"`
	URL    string   `json:"url,omitempty"`
}

// ParsePayload decodes a provider body. Individual fields are decoded
// leniently; a body that is not a JSON object, or an object carrying none of
// type, ids or ratings, fails.
func ParsePayload(data []byte) (*Payload, bool) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	if payload.Type == "" && payload.IDs == (ExternalIDs{}) && len(payload.Ratings) == 0 {
		return nil, false
	}
	return &payload, true
}

// UnmarshalJSON decodes each field independently so that one malformed field
// does not discard the rest of the payload.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("payload is not a json object")
	}
	*p = Payload{}
	p.Type, _ = lenientString(raw["type"])
	if ids, ok := raw["ids"]; ok {
		var decoded ExternalIDs
		if err := json.Unmarshal(ids, &decoded); err == nil {
			p.IDs = decoded
		}
	}
	if list, ok := raw["ratings"]; ok {
		var elems []json.RawMessage
		if err := json.Unmarshal(list, &elems); err == nil {
			p.Ratings = make([]Rating, 0, len(elems))
			for _, elem := range elems {
				var r Rating
				if err := json.Unmarshal(elem, &r); err != nil {
					continue
				}
				p.Ratings = append(p.Ratings, r)
			}
		}
	}
	return nil
}

// UnmarshalJSON accepts the TMDB id as a number or a string.
func (ids *ExternalIDs) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ids.TMDB, _ = lenientString(raw["tmdb"])
	ids.IMDB, _ = lenientString(raw["imdb"])
	return nil
}

// UnmarshalJSON accepts numbers, numeric strings, null, and "N/A" for the
// numeric fields. Anything unparseable becomes absent.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Rating{}
	r.Source, _ = lenientString(raw["source"])
	r.URL, _ = lenientString(raw["url"])
	if v, ok := lenientFloat(raw["value"]); ok {
		r.Value = &v
	}
	if v, ok := lenientFloat(raw["score"]); ok {
		r.Score = &v
	}
	if v, ok := lenientFloat(raw["votes"]); ok {
		n := int64(math.Round(v))
		r.Votes = &n
	}
	return nil
}

func lenientString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func lenientFloat(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finite(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "N/A") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
