package stats

import (
	"math"
	"sort"

	"github.com/ademuri/vinylvault/internal/lists"
)

type RatingCount struct {
	Rating float64 `yaml:"rating"`
	Count  int     `yaml:"count"`
}

type ListCount struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

// RatingDistribution counts ratings rounded to the nearest half point,
// lowest rating first. Unrated albums (0) are left out.
func RatingDistribution(ratings []float64) []RatingCount {
	counts := make(map[float64]int)
	for _, r := range ratings {
		if r == 0 {
			continue
		}
		counts[math.Round(r*2)/2]++
	}

	out := make([]RatingCount, 0, len(counts))
	for rating, n := range counts {
		out = append(out, RatingCount{Rating: rating, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Rating < out[j].Rating
	})
	return out
}

// AverageRating is the mean over every collected album, counting unrated ones
// as 0.
func AverageRating(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range ratings {
		total += r
	}
	return total / float64(len(ratings))
}

func ListDistribution(albumLists []lists.AlbumList) []ListCount {
	out := make([]ListCount, 0, len(albumLists))
	for _, l := range albumLists {
		out = append(out, ListCount{Name: l.Name, Count: len(l.AlbumIDs)})
	}
	return out
}
