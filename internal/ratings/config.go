package ratings

import "ratingsync/internal/config"

// MappingFromConfig converts the configured global source fields.
func MappingFromConfig(cfg config.Ratings) Mapping {
	return mappingFromFields(cfg.SourceFields)
}

// OverridesFromConfig converts the configured collection overrides.
func OverridesFromConfig(cfg config.Ratings) []Override {
	out := make([]Override, 0, len(cfg.Overrides))
	for _, o := range cfg.Overrides {
		out = append(out, Override{
			Enabled:        o.Enabled,
			CollectionID:   o.CollectionID,
			CollectionName: o.CollectionName,
			Mapping:        mappingFromFields(o.SourceFields),
		})
	}
	return out
}

func mappingFromFields(f config.SourceFields) Mapping {
	return Mapping{
		MovieCommunity: SourcePair{Primary: f.MovieCommunitySource, Fallback: f.MovieCommunityFallback},
		MovieCritic:    SourcePair{Primary: f.MovieCriticSource, Fallback: f.MovieCriticFallback},
		ShowCommunity:  SourcePair{Primary: f.ShowCommunitySource, Fallback: f.ShowCommunityFallback},
	}
}
