package weighting

// DriftGenre is a genre that moved in or out of the top of the ranking
// between two time windows.
type DriftGenre struct {
	Genre        string  `yaml:"genre"`
	EarlierScore float64 `yaml:"earlier_score"`
	RecentScore  float64 `yaml:"recent_score"`
}

// GenreDrift compares two genre rankings. A genre has declined when it is in
// the top `top` of earlier but absent from the top `depth` of recent; emerged
// is the reverse.
func GenreDrift(earlier, recent []GenreScore, top, depth int) (declined, emerged []DriftGenre) {
	earlierDepth := toMap(capped(earlier, depth))
	recentDepth := toMap(capped(recent, depth))

	for _, g := range capped(earlier, top) {
		if _, ok := recentDepth[g.Genre]; !ok {
			declined = append(declined, DriftGenre{Genre: g.Genre, EarlierScore: g.Score})
		}
	}

	for _, g := range capped(recent, top) {
		if _, ok := earlierDepth[g.Genre]; !ok {
			emerged = append(emerged, DriftGenre{Genre: g.Genre, RecentScore: g.Score})
		}
	}

	return declined, emerged
}

func capped(scores []GenreScore, n int) []GenreScore {
	if n >= 0 && len(scores) > n {
		return scores[:n]
	}
	return scores
}

func toMap(scores []GenreScore) map[string]float64 {
	m := make(map[string]float64, len(scores))
	for _, g := range scores {
		m[g.Genre] = g.Score
	}
	return m
}
