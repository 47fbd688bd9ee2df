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
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ademuri/vinylvault/internal/catalog"
	"github.com/ademuri/vinylvault/internal/stats"
)

const (
	driftTop   = 10
	driftDepth = 30
)

var reportCmd = &cobra.Command{
	Use:   "report [window]",
	Short: "Generates a YAML report of your listening statistics",
	Long: `Reports top tracks, artists, albums and genres for the window, how your
genres differ from the baseline window, and a summary of your collection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := windowFromArgs(args)
		if err != nil {
			return err
		}
		if err := checkNumber(reportNumber); err != nil {
			return err
		}
		baseline, err := catalog.ParseTimeRange(reportBaseline)
		if err != nil {
			return fmt.Errorf("--baseline: %w", err)
		}
		return withApp(cmd.Context(), func(a *app) error {
			return runReport(cmd.Context(), a, cmd.OutOrStdout(), window, baseline, reportNumber)
		})
	},
}

var (
	reportNumber   int
	reportBaseline string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().IntVarP(&reportNumber, "number", "n", 20, "entries per section")
	reportCmd.Flags().StringVar(&reportBaseline, "baseline", "long", "window to compare genres against")
}

func runReport(ctx context.Context, a *app, out io.Writer, window, baseline catalog.TimeRange, limit int) error {
	agg := stats.New(a.catalog, a.creds, a.log)

	snap := agg.Fetch(ctx, window)
	if snap.State == stats.Errored {
		return fmt.Errorf("%s", snap.Message)
	}
	report := stats.BuildReport(snap, limit, time.Now())

	if baseline != window {
		base := agg.Fetch(ctx, baseline)
		if base.State == stats.Errored {
			a.log.Warn().Str("baseline", string(baseline)).Msg(base.Message)
		} else {
			report.AddDrift(snap, base, driftTop, driftDepth)
		}
	}

	ratings, err := a.collection.Ratings(ctx)
	if err != nil {
		return err
	}
	report.AddCollection(ratings, a.lists.Lists())

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return encoder.Close()
}
