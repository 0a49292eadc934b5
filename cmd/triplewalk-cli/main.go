// Command triplewalk-cli queries a triplewalk server and bulk-loads dumps
// into a local store.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/persistorai/triplewalk/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3040"

var (
	apiClient *client.Client
	flagURL   string
	flagKey   string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("triplewalk-cli version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("triplewalk-cli version %s-dev", version)
}

type configFile struct {
	// Flat format
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	// Profile format
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// skipClient marks a command that never talks to the server.
func skipClient(cmd *cobra.Command) *cobra.Command {
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {}
	return cmd
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "triplewalk",
		Short:   "Query paths and closures over a triple store",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			var opts []client.Option
			if flagKey != "" {
				opts = append(opts, client.WithAPIKey(flagKey))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Server URL (env: TRIPLEWALK_URL)")
	rootCmd.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: TRIPLEWALK_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	rootCmd.AddCommand(skipClient(newInitCmd()))
	rootCmd.AddCommand(skipClient(newLoadCmd()))
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newWalkCmd())
	rootCmd.AddCommand(newClosureCmd())
	rootCmd.AddCommand(newLabelsCmd())
	rootCmd.AddCommand(newFindCmd())
	rootCmd.AddCommand(newRelatedCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".triplewalk", "config.yaml"), nil
}

// resolveConfig fills flagURL and flagKey. An explicit flag wins, then the
// TRIPLEWALK_URL and TRIPLEWALK_API_KEY environment variables, then the
// active profile of the config file. A missing or unreadable file is ignored.
func resolveConfig() {
	if flagURL == defaultURL {
		if v := os.Getenv("TRIPLEWALK_URL"); v != "" {
			flagURL = v
		}
	}
	if flagKey == "" {
		flagKey = os.Getenv("TRIPLEWALK_API_KEY")
	}

	p, ok := readProfile()
	if !ok {
		return
	}
	if flagURL == defaultURL && p.URL != "" {
		flagURL = p.URL
	}
	if flagKey == "" && p.APIKey != "" {
		flagKey = p.APIKey
	}
}

// readProfile loads the config file and returns its active profile. Fields
// the profile leaves empty fall back to the flat top-level url and api_key.
func readProfile() (configProfile, bool) {
	cfgPath, err := configPath()
	if err != nil {
		return configProfile{}, false
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return configProfile{}, false
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return configProfile{}, false
	}

	out := configProfile{URL: cfg.URL, APIKey: cfg.APIKey}
	name := cfg.ActiveProfile
	if name == "" {
		name = "default"
	}
	if p, ok := cfg.Profiles[name]; ok {
		if p.URL != "" {
			out.URL = p.URL
		}
		if p.APIKey != "" {
			out.APIKey = p.APIKey
		}
	}
	return out, true
}
