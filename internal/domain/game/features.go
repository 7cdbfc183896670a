package game

// FeatureSpec is the per-sport ordered list of statistic fields that take
// part in similarity. Fields alternate in (home, away) pairs; the symmetric
// transform below depends on that layout.
type FeatureSpec struct {
	Sport  string
	Fields []string
}

var featureSpecs = map[string]FeatureSpec{
	SportNBA: {
		Sport: SportNBA,
		Fields: []string{
			"home_avg_pts", "away_avg_pts",
			"home_fg_pct", "away_fg_pct",
			"home_avg_reb", "away_avg_reb",
			"home_avg_ast", "away_avg_ast",
		},
	},
	SportNFL: {
		Sport: SportNFL,
		Fields: []string{
			"home_yards_per_play", "away_yards_per_play",
			"home_third_down_eff", "away_third_down_eff",
			"home_first_downs", "away_first_downs",
		},
	},
}

// SpecForSport resolves the static feature schema for a sport. Sports without
// a schema cannot be queried for similarity.
func SpecForSport(sport string) (FeatureSpec, bool) {
	spec, ok := featureSpecs[NormalizeSport(sport)]
	return spec, ok
}

// PrimaryField is the field whose presence marks a game as having complete
// enough stats to join the similarity population.
func (s FeatureSpec) PrimaryField() string {
	if len(s.Fields) == 0 {
		return ""
	}
	return s.Fields[0]
}

// Vector reads the spec's fields off the game in order, defaulting absent
// stats to 0. With symmetric=true each (home, away) pair is recoded to
// (max, min), which erases which side was home on purpose: the matchup
// strength profile survives, the venue assignment does not.
func (g Game) Vector(spec FeatureSpec, symmetric bool) []float64 {
	v := make([]float64, len(spec.Fields))
	for i, field := range spec.Fields {
		v[i] = g.Stats[field]
	}
	if symmetric {
		for i := 0; i+1 < len(v); i += 2 {
			if v[i+1] > v[i] {
				v[i], v[i+1] = v[i+1], v[i]
			}
		}
	}
	return v
}
