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
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ademuri/vinylvault/internal/collection"
)

const notesPreviewLength = 40

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Searches Spotify for albums",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runSearch(cmd.Context(), a, cmd.OutOrStdout(), strings.Join(args, " "))
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add <album-id>",
	Short: "Adds an album to your collection",
	Long:  `Album ids are shown by the search command.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runAdd(cmd.Context(), a, cmd.OutOrStdout(), args[0])
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <album-id>",
	Short: "Removes an album from your collection, its lists, rating and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runRemove(cmd.Context(), a, cmd.OutOrStdout(), args[0])
		})
	},
}

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Shows your album collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return printCollection(cmd.Context(), a, cmd.OutOrStdout())
		})
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate <album-id> <rating>",
	Short: "Rates an album from 0 to 5 in half points; 0 clears the rating",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runRate(cmd.Context(), a, cmd.OutOrStdout(), args[0], args[1])
		})
	},
}

var noteCmd = &cobra.Command{
	Use:   "note <album-id> [text]",
	Short: "Sets the notes for an album",
	Long: `With text, replaces the album's notes. Without text, reads notes from
stdin until EOF, saving as you type.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if len(args) > 1 {
				return runNote(cmd.Context(), a, cmd.OutOrStdout(), args[0], strings.Join(args[1:], " "))
			}
			return runNoteFromReader(cmd.Context(), a, cmd.OutOrStdout(), args[0], cmd.InOrStdin())
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(collectionCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(noteCmd)
}

func runSearch(ctx context.Context, a *app, out io.Writer, query string) error {
	albums, err := a.catalog.SearchAlbums(ctx, query)
	if err != nil {
		return err
	}

	t := resultTable{
		header:  []string{"#", "Album", "ID", "Collected"},
		summary: fmt.Sprintf("Found %d albums for %q", len(albums), query),
	}
	for i, album := range albums {
		collected := ""
		if a.collection.Contains(album.ID) {
			collected = "yes"
		}
		t.rows = append(t.rows, []string{strconv.Itoa(i + 1), album.Name, album.ID, collected})
	}
	return t.render(out)
}

func runAdd(ctx context.Context, a *app, out io.Writer, albumID string) error {
	if existing, ok := a.collection.Get(albumID); ok {
		return fmt.Errorf("%s: %w", existing.Name, collection.ErrAlreadyAdded)
	}

	album, err := a.catalog.Album(ctx, albumID)
	if err != nil {
		return err
	}

	added, err := a.collection.Add(ctx, album)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("%s: %w", album.Name, collection.ErrAlreadyAdded)
	}
	fmt.Fprintf(out, "Added %s to your collection.\n", album.Name)
	return nil
}

func runRemove(ctx context.Context, a *app, out io.Writer, albumID string) error {
	album, ok := a.collection.Get(albumID)
	if !ok {
		fmt.Fprintf(out, "%s is not in your collection.\n", albumID)
		return nil
	}
	if err := a.collection.Delete(ctx, albumID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %s.\n", album.Name)
	return nil
}

func printCollection(ctx context.Context, a *app, out io.Writer) error {
	collected, err := a.collection.Collected(ctx)
	if err != nil {
		return err
	}

	memberships := make(map[string]int)
	for _, l := range a.lists.Lists() {
		for _, id := range l.AlbumIDs {
			memberships[id]++
		}
	}

	t := resultTable{
		header:  []string{"Album", "ID", "Rating", "Lists", "Notes"},
		summary: fmt.Sprintf("%d albums in your collection", len(collected)),
	}
	for _, c := range collected {
		t.rows = append(t.rows, []string{
			c.Name,
			c.ID,
			formatRating(c.Rating),
			strconv.Itoa(memberships[c.ID]),
			preview(c.Notes, notesPreviewLength),
		})
	}
	return t.render(out)
}

func runRate(ctx context.Context, a *app, out io.Writer, albumID, value string) error {
	rating, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", collection.ErrInvalidRating, value)
	}
	if err := a.collection.SetRating(ctx, albumID, rating); err != nil {
		return err
	}
	stored, err := a.collection.Rating(ctx, albumID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rated %s %s.\n", albumID, formatRating(stored))
	return nil
}

func runNote(ctx context.Context, a *app, out io.Writer, albumID, text string) error {
	if err := a.collection.SetNotes(ctx, albumID, text); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved notes for %s.\n", albumID)
	return nil
}

// runNoteFromReader treats each line read as an edit to the notes so far.
// Edits are debounced; whatever is still pending is written on flush.
func runNoteFromReader(ctx context.Context, a *app, out io.Writer, albumID string, in io.Reader) error {
	var lines []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if err := a.collection.SetNotesDebounced(albumID, strings.Join(lines, "\n")); err != nil {
			return fmt.Errorf("%s: %w", albumID, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading notes: %w", err)
	}

	if err := a.collection.Flush(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved notes for %s.\n", albumID)
	return nil
}

func formatRating(r float64) string {
	if r == 0 {
		return "-"
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

func preview(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
