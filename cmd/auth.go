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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ademuri/vinylvault/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login <token or redirect URL>",
	Short: "Stores a Spotify access token",
	Long: `Run login-url, sign in with the printed link, then pass the URL you were
redirected to (or just its access_token value) to this command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			return runLogin(cmd.Context(), a, cmd.OutOrStdout(), args[0])
		})
	},
}

var loginURLCmd = &cobra.Command{
	Use:   "login-url",
	Short: "Prints the Spotify sign-in link",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLoginURL(cmd.OutOrStdout(), viper.GetString("client_id"), viper.GetString("redirect_uri"))
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forgets the stored Spotify access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.creds.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out of Spotify.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(loginURLCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(ctx context.Context, a *app, out io.Writer, token string) error {
	if err := a.creds.SignIn(ctx, token); err != nil {
		return err
	}
	fmt.Fprintln(out, "Signed in to Spotify.")
	return nil
}

func printLoginURL(out io.Writer, clientID, redirectURI string) error {
	if clientID == "" {
		return fmt.Errorf("client_id must be set to sign in")
	}
	fmt.Fprintln(out, auth.AuthorizeURL(clientID, redirectURI, auth.DefaultScope))
	return nil
}
