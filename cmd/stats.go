/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ademuri/vinylvault/internal/catalog"
	"github.com/ademuri/vinylvault/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats [window]",
	Short: "Shows your top tracks, artists, albums and genres",
	Long: `The window is one of short (last 4 weeks), medium (last 6 months, the
default) or long (all time). Albums are scored by rank-weighted listening
time and genres by rank-weighted artist counts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := windowFromArgs(args)
		if err != nil {
			return err
		}
		if err := checkNumber(statsNumber); err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			return printStats(cmd.Context(), a, cmd.OutOrStdout(), window, statsNumber)
		})
	},
}

var statsNumber int

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVarP(&statsNumber, "number", "n", 10, "number of albums, artists and genres to show")
}

func checkNumber(n int) error {
	if n < 1 {
		return fmt.Errorf("--number must be at least 1, got %d", n)
	}
	return nil
}

func windowFromArgs(args []string) (catalog.TimeRange, error) {
	if len(args) == 0 {
		return catalog.MediumTerm, nil
	}
	return catalog.ParseTimeRange(args[0])
}

func printStats(ctx context.Context, a *app, out io.Writer, window catalog.TimeRange, numToReturn int) error {
	agg := stats.New(a.catalog, a.creds, a.log)
	snap := agg.Fetch(ctx, window)
	if snap.State == stats.Errored {
		return fmt.Errorf("%s", snap.Message)
	}
	if snap.Message != "" {
		fmt.Fprintf(out, "Warning: %s\n\n", snap.Message)
	}

	tracks := resultTable{
		title:  "Top tracks, " + window.DisplayName(),
		header: []string{"#", "Track", "Artists", "Album"},
	}
	for i, t := range snap.DisplayTracks() {
		tracks.rows = append(tracks.rows, []string{strconv.Itoa(i + 1), t.Name, t.ArtistNames(), t.Album.Name})
	}
	if len(snap.Tracks) > len(snap.DisplayTracks()) {
		tracks.summary = fmt.Sprintf("Showing %d of %d tracks", len(snap.DisplayTracks()), len(snap.Tracks))
	}

	artists := resultTable{
		title:  "Top artists",
		header: []string{"#", "Artist", "Genres"},
	}
	for i, artist := range snap.Artists {
		if i >= numToReturn {
			break
		}
		artists.rows = append(artists.rows, []string{strconv.Itoa(i + 1), artist.Name, strings.Join(artist.Genres, ", ")})
	}

	albums := resultTable{
		title:  "Top albums",
		header: []string{"Album", "Score", "Collected"},
	}
	for i, s := range agg.AlbumScores() {
		if i >= numToReturn {
			break
		}
		collected := ""
		if a.collection.Contains(s.Album.ID) {
			collected = "yes"
		}
		albums.rows = append(albums.rows, []string{s.Album.Name, formatScore(s.Score), collected})
	}

	genres := resultTable{
		title:  "Top genres",
		header: []string{"Genre", "Score"},
	}
	for i, s := range agg.GenreScores() {
		if i >= numToReturn {
			break
		}
		genres.rows = append(genres.rows, []string{s.Genre, formatScore(s.Score)})
	}

	for _, t := range []resultTable{tracks, artists, albums, genres} {
		if err := t.render(out); err != nil {
			return err
		}
	}
	return nil
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', 2, 64)
}
