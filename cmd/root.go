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
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/ademuri/vinylvault/internal/logging"
)

const envPrefix = "VINYLVAULT"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vinylvault",
	Short: "Keeps an album collection and shows Spotify listening statistics",
	Long: `vinylvault tracks the albums you own, sorts them into lists with ratings
and notes, and ranks your top albums and genres from Spotify listening data.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return checkLogFlags()
	},
}

func checkLogFlags() error {
	if level := viper.GetString("log_level"); level != "" && !logging.ValidLevel(level) {
		return fmt.Errorf("invalid --log_level %q: want debug, info, warn or error", level)
	}
	if format := viper.GetString("log_format"); format != "" && !logging.ValidFormat(format) {
		return fmt.Errorf("invalid --log_format %q: want text or json", format)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default is $HOME/.vinylvault.yaml)")

	rootCmd.PersistentFlags().StringP("database", "d", defaultDatabasePath(), "Path to the SQLite database")
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))

	rootCmd.PersistentFlags().String("mongo_uri", "", "MongoDB URI; when set, data is kept in MongoDB instead of SQLite")
	viper.BindPFlag("mongo_uri", rootCmd.PersistentFlags().Lookup("mongo_uri"))

	rootCmd.PersistentFlags().String("log_level", "warn", "Log level: debug, info, warn or error")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log_level"))

	rootCmd.PersistentFlags().String("log_format", "text", "Log format: text or json")
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log_format"))

	rootCmd.PersistentFlags().String("client_id", "", "Spotify application client id")
	viper.BindPFlag("client_id", rootCmd.PersistentFlags().Lookup("client_id"))

	rootCmd.PersistentFlags().String("redirect_uri", "vinylvault://callback", "Redirect URI registered for the Spotify application")
	viper.BindPFlag("redirect_uri", rootCmd.PersistentFlags().Lookup("redirect_uri"))

	rootCmd.PersistentFlags().String("sendgrid_api_key", "", "SendGrid API key, used to share lists by email")
	viper.BindPFlag("sendgrid_api_key", rootCmd.PersistentFlags().Lookup("sendgrid_api_key"))

	rootCmd.PersistentFlags().String("from", "", "From email address for shared lists")
	viper.BindPFlag("from", rootCmd.PersistentFlags().Lookup("from"))
}

// initConfig reads in the .env file, the config file and ENV variables if set.
func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".vinylvault" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".vinylvault")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// See https://github.com/spf13/viper/pull/852
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && viper.IsSet(f.Name) && viper.GetString(f.Name) != "" {
			rootCmd.PersistentFlags().Set(f.Name, viper.GetString(f.Name))
		}
	})
}

func defaultDatabasePath() string {
	home, err := homedir.Dir()
	if err != nil {
		return "./vinylvault.db"
	}
	return filepath.Join(home, ".vinylvault.db")
}
