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
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// resultTable is a titled table with an optional summary line.
type resultTable struct {
	title   string
	header  []string
	rows    [][]string
	summary string
}

func (t resultTable) render(out io.Writer) error {
	if t.title != "" {
		fmt.Fprintf(out, "%s\n", t.title)
	}

	if len(t.rows) == 0 {
		fmt.Fprintln(out, "(none)")
	} else {
		table := tablewriter.NewWriter(out)
		table.Header(t.header)
		for _, row := range t.rows {
			if err := table.Append(row); err != nil {
				return fmt.Errorf("rendering table: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
	}

	if t.summary != "" {
		fmt.Fprintf(out, "%s\n", t.summary)
	}
	fmt.Fprintln(out)
	return nil
}
