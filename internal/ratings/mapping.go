package ratings

import (
	"strings"

	"ratingsync/internal/mdblist"
)

// SourcePair is a primary source and the source tried when primary yields
// nothing.
type SourcePair struct {
	Primary  string
	Fallback string
}

// merge fills blank fields of p from base.
func (p SourcePair) merge(base SourcePair) SourcePair {
	out := base
	if strings.TrimSpace(p.Primary) != "" {
		out.Primary = p.Primary
	}
	if strings.TrimSpace(p.Fallback) != "" {
		out.Fallback = p.Fallback
	}
	return out
}

// Mapping selects sources for each output channel.
type Mapping struct {
	MovieCommunity SourcePair
	MovieCritic    SourcePair
	ShowCommunity  SourcePair
}

// Merge overlays the non-blank fields of override on m.
func (m Mapping) Merge(override Mapping) Mapping {
	return Mapping{
		MovieCommunity: override.MovieCommunity.merge(m.MovieCommunity),
		MovieCritic:    override.MovieCritic.merge(m.MovieCritic),
		ShowCommunity:  override.ShowCommunity.merge(m.ShowCommunity),
	}
}

// Community returns the community channel for a content kind.
func (m Mapping) Community(kind string) SourcePair {
	if kind == mdblist.ContentShow {
		return m.ShowCommunity
	}
	return m.MovieCommunity
}

// Override replaces parts of the global mapping for items in one collection.
type Override struct {
	Enabled        bool
	CollectionID   string
	CollectionName string
	Mapping        Mapping
}

// Collection identifies a library collection an item belongs to.
type Collection struct {
	ID   string
	Name string
}

func (o Override) matches(c Collection) bool {
	if id := strings.TrimSpace(o.CollectionID); id != "" && strings.EqualFold(id, strings.TrimSpace(c.ID)) {
		return true
	}
	name := strings.TrimSpace(o.CollectionName)
	return name != "" && NormalizeSource(name) == NormalizeSource(c.Name)
}

// MatchOverride returns the first enabled override that matches one of the
// collections. Overrides are checked in configuration order.
func MatchOverride(overrides []Override, collections []Collection) (Override, bool) {
	for _, o := range overrides {
		if !o.Enabled {
			continue
		}
		for _, c := range collections {
			if o.matches(c) {
				return o, true
			}
		}
	}
	return Override{}, false
}

// Effective returns the mapping to use for an item in collections.
func Effective(global Mapping, overrides []Override, collections []Collection) Mapping {
	o, ok := MatchOverride(overrides, collections)
	if !ok {
		return global
	}
	return global.Merge(o.Mapping)
}
