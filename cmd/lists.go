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

	"github.com/sendgrid/sendgrid-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/vinylvault/internal/collection"
	"github.com/ademuri/vinylvault/internal/export"
	"github.com/ademuri/vinylvault/internal/lists"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Shows your album lists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return printLists(a, cmd.OutOrStdout())
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Creates, edits and exports album lists",
	Long:  `Lists can be named by id or by name.`,
}

var listCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Creates an empty list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runListCreate(cmd.Context(), a, cmd.OutOrStdout(), strings.Join(args, " "))
		})
	},
}

var listDeleteCmd = &cobra.Command{
	Use:   "delete <list>",
	Short: "Deletes a list; its albums stay in your collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runListDelete(cmd.Context(), a, cmd.OutOrStdout(), args[0])
		})
	},
}

var listRenameCmd = &cobra.Command{
	Use:   "rename <list> <new name>",
	Short: "Renames a list",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runListRename(cmd.Context(), a, cmd.OutOrStdout(), args[0], strings.Join(args[1:], " "))
		})
	},
}

var listAddCmd = &cobra.Command{
	Use:   "add <list> <album-id>",
	Short: "Adds a collected album to a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runListAdd(cmd.Context(), a, cmd.OutOrStdout(), args[0], args[1])
		})
	},
}

var listRemoveCmd = &cobra.Command{
	Use:   "remove <list> <album-id>",
	Short: "Removes an album from a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runListRemove(cmd.Context(), a, cmd.OutOrStdout(), args[0], args[1])
		})
	},
}

var listShowCmd = &cobra.Command{
	Use:   "show <list>",
	Short: "Shows the albums in a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return printList(cmd.Context(), a, cmd.OutOrStdout(), args[0])
		})
	},
}

var listExportCmd = &cobra.Command{
	Use:   "export <list>",
	Short: "Prints a list with ratings and notes as plain text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			text, _, err := exportList(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		})
	},
}

var listShareCmd = &cobra.Command{
	Use:   "share <list> <email>",
	Short: "Emails the exported list",
	Args:  cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("sendgrid_api_key") == "" {
			return fmt.Errorf("sendgrid_api_key must be set to share lists")
		}
		if viper.GetString("from") == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			sender := sendgrid.NewSendClient(viper.GetString("sendgrid_api_key"))
			return runListShare(cmd.Context(), a, cmd.OutOrStdout(), sender, viper.GetString("from"), args[0], args[1])
		})
	},
}

func init() {
	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listCreateCmd)
	listCmd.AddCommand(listDeleteCmd)
	listCmd.AddCommand(listRenameCmd)
	listCmd.AddCommand(listAddCmd)
	listCmd.AddCommand(listRemoveCmd)
	listCmd.AddCommand(listShowCmd)
	listCmd.AddCommand(listExportCmd)
	listCmd.AddCommand(listShareCmd)
}

// resolveList finds a list by id, then by name ignoring case.
func resolveList(a *app, ref string) (lists.AlbumList, error) {
	if l, ok := a.lists.Get(ref); ok {
		return l, nil
	}
	if l, ok := a.lists.FindByName(ref); ok {
		return l, nil
	}
	return lists.AlbumList{}, fmt.Errorf("%q: %w", ref, lists.ErrListNotFound)
}

func printLists(a *app, out io.Writer) error {
	all := a.lists.Lists()
	t := resultTable{
		header:  []string{"Name", "ID", "Albums"},
		summary: fmt.Sprintf("%d lists", len(all)),
	}
	for _, l := range all {
		t.rows = append(t.rows, []string{l.Name, l.ID, strconv.Itoa(len(l.AlbumIDs))})
	}
	return t.render(out)
}

func runListCreate(ctx context.Context, a *app, out io.Writer, name string) error {
	l, err := a.lists.CreateList(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created list %s (%s).\n", l.Name, l.ID)
	return nil
}

func runListDelete(ctx context.Context, a *app, out io.Writer, ref string) error {
	l, err := resolveList(a, ref)
	if err != nil {
		return err
	}
	if err := a.lists.DeleteList(ctx, l.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted list %s.\n", l.Name)
	return nil
}

func runListRename(ctx context.Context, a *app, out io.Writer, ref, name string) error {
	l, err := resolveList(a, ref)
	if err != nil {
		return err
	}
	if err := a.lists.RenameList(ctx, l.ID, name); err != nil {
		return err
	}
	fmt.Fprintf(out, "Renamed list %s to %s.\n", l.Name, strings.TrimSpace(name))
	return nil
}

func runListAdd(ctx context.Context, a *app, out io.Writer, ref, albumID string) error {
	l, err := resolveList(a, ref)
	if err != nil {
		return err
	}
	album, ok := a.collection.Get(albumID)
	if !ok {
		return fmt.Errorf("%s: %w", albumID, collection.ErrAlbumNotFound)
	}
	if err := a.lists.AddAlbum(ctx, albumID, l.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %s to %s.\n", album.Name, l.Name)
	return nil
}

func runListRemove(ctx context.Context, a *app, out io.Writer, ref, albumID string) error {
	l, err := resolveList(a, ref)
	if err != nil {
		return err
	}
	if err := a.lists.RemoveAlbum(ctx, albumID, l.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %s from %s.\n", albumID, l.Name)
	return nil
}

func printList(ctx context.Context, a *app, out io.Writer, ref string) error {
	l, err := resolveList(a, ref)
	if err != nil {
		return err
	}
	collected, err := a.collection.Collected(ctx)
	if err != nil {
		return err
	}

	t := resultTable{
		title:  l.Name,
		header: []string{"Album", "ID", "Rating", "Notes"},
	}
	for _, c := range collected {
		if !l.Contains(c.ID) {
			continue
		}
		t.rows = append(t.rows, []string{c.Name, c.ID, formatRating(c.Rating), preview(c.Notes, notesPreviewLength)})
	}
	t.summary = fmt.Sprintf("%d albums", len(t.rows))
	return t.render(out)
}

func exportList(ctx context.Context, a *app, ref string) (string, lists.AlbumList, error) {
	l, err := resolveList(a, ref)
	if err != nil {
		return "", lists.AlbumList{}, err
	}
	collected, err := a.collection.Collected(ctx)
	if err != nil {
		return "", lists.AlbumList{}, err
	}
	return export.ListText(l, collected), l, nil
}

func runListShare(ctx context.Context, a *app, out io.Writer, sender export.Sender, from, ref, to string) error {
	text, l, err := exportList(ctx, a, ref)
	if err != nil {
		return err
	}
	if err := export.Share(sender, from, to, export.Subject(l), text); err != nil {
		return err
	}
	fmt.Fprintf(out, "Sent %s to %s.\n", l.Name, to)
	return nil
}
