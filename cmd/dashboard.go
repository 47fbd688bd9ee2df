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

	"github.com/spf13/cobra"

	"github.com/ademuri/vinylvault/internal/stats"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Summarises your collection: ratings and list sizes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return printDashboard(cmd.Context(), a, cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func printDashboard(ctx context.Context, a *app, out io.Writer) error {
	ratings, err := a.collection.Ratings(ctx)
	if err != nil {
		return err
	}

	signedIn := "no"
	if a.creds.SignedIn() {
		signedIn = "yes"
	}
	fmt.Fprintf(out, "Signed in to Spotify: %s\n", signedIn)
	fmt.Fprintf(out, "Albums collected: %d\n", len(ratings))
	fmt.Fprintf(out, "Average rating: %.2f\n\n", stats.AverageRating(ratings))

	distribution := resultTable{
		title:  "Ratings",
		header: []string{"Rating", "Albums"},
	}
	for _, r := range stats.RatingDistribution(ratings) {
		distribution.rows = append(distribution.rows, []string{formatRating(r.Rating), strconv.Itoa(r.Count)})
	}

	listSizes := resultTable{
		title:  "Lists",
		header: []string{"List", "Albums"},
	}
	for _, l := range stats.ListDistribution(a.lists.Lists()) {
		listSizes.rows = append(listSizes.rows, []string{l.Name, strconv.Itoa(l.Count)})
	}

	for _, t := range []resultTable{distribution, listSizes} {
		if err := t.render(out); err != nil {
			return err
		}
	}
	return nil
}
