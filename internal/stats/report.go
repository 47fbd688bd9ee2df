package stats

import (
	"time"

	"github.com/ademuri/vinylvault/internal/lists"
	"github.com/ademuri/vinylvault/internal/weighting"
)

// Report is the yaml statistics report.
type Report struct {
	Metadata   Metadata               `yaml:"profile_metadata"`
	TopTracks  []TrackStat            `yaml:"top_tracks"`
	TopArtists []ArtistStat           `yaml:"top_artists"`
	TopAlbums  []AlbumStat            `yaml:"top_albums"`
	TopGenres  []weighting.GenreScore `yaml:"top_genres"`
	GenreDrift *GenreDrift            `yaml:"genre_drift,omitempty"`
	Collection *CollectionSummary     `yaml:"collection,omitempty"`
}

type Metadata struct {
	GeneratedDate string   `yaml:"generated_date"`
	Window        string   `yaml:"window"`
	TotalTracks   int      `yaml:"total_tracks"`
	TotalArtists  int      `yaml:"total_artists"`
	Warnings      []string `yaml:"warnings,omitempty"`
}

type TrackStat struct {
	Rank    int    `yaml:"rank"`
	Name    string `yaml:"name"`
	Artists string `yaml:"artists"`
	Album   string `yaml:"album"`
}

type ArtistStat struct {
	Rank   int      `yaml:"rank"`
	Name   string   `yaml:"name"`
	Genres []string `yaml:"genres,omitempty"`
}

type AlbumStat struct {
	Title string  `yaml:"title"`
	Score float64 `yaml:"score"`
	URL   string  `yaml:"url"`
}

type GenreDrift struct {
	BaselineWindow string                 `yaml:"baseline_window"`
	Declined       []weighting.DriftGenre `yaml:"declined_genres"`
	Emerged        []weighting.DriftGenre `yaml:"emerged_genres"`
}

type CollectionSummary struct {
	Albums             int           `yaml:"albums"`
	AverageRating      float64       `yaml:"average_rating"`
	RatingDistribution []RatingCount `yaml:"rating_distribution"`
	Lists              []ListCount   `yaml:"lists"`
}

// BuildReport summarises snap, keeping at most limit entries per section. A
// negative limit is treated as 0.
func BuildReport(snap Snapshot, limit int, now time.Time) *Report {
	if limit < 0 {
		limit = 0
	}
	r := &Report{
		Metadata: Metadata{
			GeneratedDate: now.Format("2006-01-02"),
			Window:        snap.Window.DisplayName(),
			TotalTracks:   len(snap.Tracks),
			TotalArtists:  len(snap.Artists),
		},
		TopTracks:  []TrackStat{},
		TopArtists: []ArtistStat{},
		TopAlbums:  []AlbumStat{},
	}
	if snap.Message != "" {
		r.Metadata.Warnings = append(r.Metadata.Warnings, snap.Message)
	}

	for i, t := range snap.Tracks {
		if i >= limit {
			break
		}
		r.TopTracks = append(r.TopTracks, TrackStat{
			Rank:    i + 1,
			Name:    t.Name,
			Artists: t.ArtistNames(),
			Album:   t.Album.Name,
		})
	}

	for i, a := range snap.Artists {
		if i >= limit {
			break
		}
		r.TopArtists = append(r.TopArtists, ArtistStat{Rank: i + 1, Name: a.Name, Genres: a.Genres})
	}

	for i, a := range snap.AlbumScores() {
		if i >= limit {
			break
		}
		r.TopAlbums = append(r.TopAlbums, AlbumStat{Title: a.Album.Name, Score: a.Score, URL: a.Album.ExternalURL()})
	}

	genres := snap.GenreScores()
	if len(genres) > limit {
		genres = genres[:limit]
	}
	r.TopGenres = genres

	return r
}

// AddDrift compares the report's genres with those of baseline, usually the
// all-time window.
func (r *Report) AddDrift(snap, baseline Snapshot, top, depth int) {
	declined, emerged := weighting.GenreDrift(baseline.GenreScores(), snap.GenreScores(), top, depth)
	if declined == nil {
		declined = []weighting.DriftGenre{}
	}
	if emerged == nil {
		emerged = []weighting.DriftGenre{}
	}
	r.GenreDrift = &GenreDrift{
		BaselineWindow: baseline.Window.DisplayName(),
		Declined:       declined,
		Emerged:        emerged,
	}
}

// AddCollection adds the dashboard figures for the local collection.
func (r *Report) AddCollection(ratings []float64, albumLists []lists.AlbumList) {
	r.Collection = &CollectionSummary{
		Albums:             len(ratings),
		AverageRating:      AverageRating(ratings),
		RatingDistribution: RatingDistribution(ratings),
		Lists:              ListDistribution(albumLists),
	}
}
