// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elastic/sensorchart/internal/config"
)

// Flags for set-profile command
var (
	setProfileURL          string
	setProfileKind         string
	setProfileAPIKey       string
	setProfileUsername     string
	setProfilePassword     string
	setProfileIndex        string
	setProfileTimeField    string
	setProfileValueField   string
	setProfileTitle        string
	setProfileMissingValue float64
	setProfileOTLP         string
	setProfileOTLPInsec    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sensorchart configuration and profiles",
	Long: `Manage sensorchart configuration profiles.

Profiles name a readings source together with its credentials and chart
settings, so switching between sensors is one flag (--profile) or one
command (use-profile).

Configuration is stored in ~/.config/sensorchart/config.yaml`,
	// Profile management works even when the active configuration is invalid.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var useProfileCmd = &cobra.Command{
	Use:   "use-profile <name>",
	Short: "Set the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if _, err := cfg.Lookup(name); err != nil {
			return err
		}

		cfg.CurrentProfile = name
		if err := config.SaveProfiles(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %q\n", name)
		return nil
	},
}

var setProfileCmd = &cobra.Command{
	Use:   "set-profile <name>",
	Short: "Create or update a profile",
	Long: `Create or update a named profile with source and chart settings.

Examples:
  # A JSON endpoint of one device parameter
  sensorchart config set-profile greenhouse \
    --url http://greenhouse.local:8000/api/device_parameter/3/measurements \
    --title "Greenhouse humidity"

  # An Elasticsearch index with an API key (using env var reference)
  sensorchart config set-profile cellar \
    --url es+https://es.example.com:9243 \
    --index 'sensors-cellar-*' \
    --api-key '${CELLAR_ES_API_KEY}'

  # Sensors that report 0 when offline
  sensorchart config set-profile legacy --url readings.ndjson --missing-value 0

Credentials can be stored as:
  - Environment variable references: ${MY_SECRET} (recommended)
  - Plain text values (warning will be shown)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		// Get existing profile or create new one
		profile, _ := cfg.Lookup(name)

		// Update with provided flags
		if setProfileURL != "" {
			profile.Source.URL = setProfileURL
		}
		if setProfileKind != "" {
			profile.Source.Kind = setProfileKind
		}
		if setProfileAPIKey != "" {
			profile.Source.APIKey = setProfileAPIKey
		}
		if setProfileUsername != "" {
			profile.Source.Username = setProfileUsername
		}
		if setProfilePassword != "" {
			profile.Source.Password = setProfilePassword
		}
		if setProfileIndex != "" {
			profile.Elasticsearch.Index = setProfileIndex
		}
		if setProfileTimeField != "" {
			profile.Elasticsearch.TimeField = setProfileTimeField
		}
		if setProfileValueField != "" {
			profile.Elasticsearch.ValueField = setProfileValueField
		}
		if setProfileTitle != "" {
			profile.Chart.Title = setProfileTitle
		}
		if cmd.Flags().Changed("missing-value") {
			mv := setProfileMissingValue
			profile.Chart.MissingValue = &mv
		}
		if setProfileOTLP != "" {
			profile.OTLP.Endpoint = setProfileOTLP
		}
		if cmd.Flags().Changed("otlp-insecure") {
			insecure := setProfileOTLPInsec
			profile.OTLP.Insecure = &insecure
		}

		cfg.Put(name, profile)

		if err := config.SaveProfiles(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		// Warn if plain text credentials were stored
		if profile.HasPlainTextCredentials() {
			fmt.Fprintln(cmd.ErrOrStderr(), config.PlainTextWarning)
			fmt.Fprintln(cmd.ErrOrStderr())
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile %q saved\n", name)
		return nil
	},
}

var getProfilesCmd = &cobra.Command{
	Use:     "get-profiles",
	Aliases: []string{"list-profiles", "profiles"},
	Short:   "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		names := cfg.Names()
		if len(names) == 0 {
			fmt.Fprintln(out, "No profiles configured.")
			fmt.Fprintln(out, "Create one with: sensorchart config set-profile <name> --url <source>")
			return nil
		}

		fmt.Fprintln(out, "PROFILES:")
		for _, name := range names {
			marker := "  "
			if name == cfg.CurrentProfile {
				marker = "* "
			}
			profile := cfg.Profiles[name]
			fmt.Fprintf(out, "%s%-20s  %s\n", marker, name, profile.Summary())
		}

		if cfg.CurrentProfile != "" {
			fmt.Fprintf(out, "\n* = current profile\n")
		}

		return nil
	},
}

var currentProfileCmd = &cobra.Command{
	Use:   "current-profile",
	Short: "Show the current profile name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if cfg.CurrentProfile == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No profile selected (using defaults)")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), cfg.CurrentProfile)
		return nil
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete-profile <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if err := cfg.Delete(name); err != nil {
			return err
		}

		if err := config.SaveProfiles(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile %q deleted\n", name)
		return nil
	},
}

var viewConfigCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the full configuration (credentials masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg, err := config.LoadProfiles()
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		if len(cfg.Profiles) == 0 && cfg.CurrentProfile == "" {
			fmt.Fprintln(out, "No configuration found.")
			fmt.Fprintln(out, "Create a profile with: sensorchart config set-profile <name> --url <source>")
			return nil
		}

		// Print the masked config
		fmt.Fprintln(out, cfg.String())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ProfilesPath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	// set-profile flags
	f := setProfileCmd.Flags()
	f.StringVar(&setProfileURL, "url", "", "Readings source: http(s) URL, es+http(s) URL or file path")
	f.StringVar(&setProfileKind, "kind", "", "Source kind: auto, http, file or elasticsearch")
	f.StringVar(&setProfileAPIKey, "api-key", "", "API key (supports ${ENV_VAR} syntax)")
	f.StringVar(&setProfileUsername, "username", "", "Username for basic auth")
	f.StringVar(&setProfilePassword, "password", "", "Password for basic auth (supports ${ENV_VAR} syntax)")
	f.StringVar(&setProfileIndex, "index", "", "Elasticsearch index pattern")
	f.StringVar(&setProfileTimeField, "time-field", "", "Elasticsearch timestamp field")
	f.StringVar(&setProfileValueField, "value-field", "", "Elasticsearch reading field")
	f.StringVar(&setProfileTitle, "title", "", "Chart title")
	f.Float64Var(&setProfileMissingValue, "missing-value", config.DefaultMissingValue, "Reading that marks a missing value")
	f.StringVar(&setProfileOTLP, "otlp", "", "OTLP endpoint")
	f.BoolVar(&setProfileOTLPInsec, "otlp-insecure", true, "Use insecure OTLP connection")

	// Add subcommands
	configCmd.AddCommand(useProfileCmd)
	configCmd.AddCommand(setProfileCmd)
	configCmd.AddCommand(getProfilesCmd)
	configCmd.AddCommand(currentProfileCmd)
	configCmd.AddCommand(deleteProfileCmd)
	configCmd.AddCommand(viewConfigCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}
