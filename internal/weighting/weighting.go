// Package weighting turns ranked top-track and top-artist lists into
// rank-weighted album and genre scores.
//
// An item at rank i of n gets weight (n-i)/n, so rank 0 weighs 1.0 and the
// last item weighs 1/n. Results are sorted by score, highest first. The order
// of items with equal scores is not defined.
package weighting

import (
	"sort"

	"github.com/ademuri/vinylvault/internal/catalog"
)

type AlbumScore struct {
	Album catalog.Album
	Score float64
}

type GenreScore struct {
	Genre string  `yaml:"genre"`
	Score float64 `yaml:"score"`
}

// RankWeight returns (n-rank)/n, or 0 for an empty sequence.
func RankWeight(rank, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n-rank) / float64(n)
}

// AlbumScores sums weight * duration-in-seconds per album id. The album record
// kept for each id is the one from its best-ranked track; later payloads for
// the same id still add to the score. Missing or negative durations count as 0.
func AlbumScores(tracks []catalog.Track) []AlbumScore {
	n := len(tracks)
	if n == 0 {
		return []AlbumScore{}
	}

	index := make(map[string]int)
	var scores []AlbumScore
	for rank, track := range tracks {
		durationMs := track.DurationMs
		if durationMs < 0 {
			durationMs = 0
		}
		contribution := RankWeight(rank, n) * (float64(durationMs) / 1000)

		if i, ok := index[track.Album.ID]; ok {
			scores[i].Score += contribution
			continue
		}
		index[track.Album.ID] = len(scores)
		scores = append(scores, AlbumScore{Album: track.Album, Score: contribution})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// GenreScores credits every genre of an artist with that artist's full weight.
// Genres are matched by exact string; artists without genres contribute nothing.
func GenreScores(artists []catalog.Artist) []GenreScore {
	m := len(artists)
	if m == 0 {
		return []GenreScore{}
	}

	index := make(map[string]int)
	scores := []GenreScore{}
	for rank, artist := range artists {
		weight := RankWeight(rank, m)
		for _, genre := range artist.Genres {
			if i, ok := index[genre]; ok {
				scores[i].Score += weight
				continue
			}
			index[genre] = len(scores)
			scores = append(scores, GenreScore{Genre: genre, Score: weight})
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}
