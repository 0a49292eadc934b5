package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/persistorai/triplewalk/client"
)

func newInitCmd() *cobra.Command {
	var (
		initURL    string
		initAPIKey string
		profile    string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up CLI configuration",
		Long:  "Interactive setup wizard that writes a profile to ~/.triplewalk/config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			nonInteractive := initURL != "" || initAPIKey != ""
			return runInit(initURL, initAPIKey, profile, nonInteractive)
		},
	}

	cmd.Flags().StringVar(&initURL, "url", "", "Server URL (non-interactive mode)")
	cmd.Flags().StringVar(&initAPIKey, "api-key", "", "API key (non-interactive mode)")
	cmd.Flags().StringVar(&profile, "profile", "default", "Profile to write and activate")
	return cmd
}

func runInit(url, apiKey, profile string, nonInteractive bool) error {
	if !nonInteractive {
		fmt.Println("\n  triplewalk setup")
		fmt.Println("  ────────────────")
		fmt.Println()

		reader := bufio.NewReader(os.Stdin)

		fmt.Printf("  Server URL [%s]: ", defaultURL)
		line, _ := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			url = line
		}

		fmt.Print("  API key (empty for a loopback server): ")
		keyLine, _ := reader.ReadString('\n')
		apiKey = strings.TrimSpace(keyLine)
	}

	if url == "" {
		url = defaultURL
	}

	if !nonInteractive {
		fmt.Print("\n  Testing connection... ")
	}

	ver, err := testConnection(url, apiKey)
	if err != nil {
		if !nonInteractive {
			fmt.Println("✗")
		}
		return fmt.Errorf("connection failed: %w", err)
	}

	if !nonInteractive {
		fmt.Printf("✓ Connected (%s)\n", ver)
	}

	cfgPath, err := writeConfig(profile, url, apiKey)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if nonInteractive {
		fmt.Printf("Config saved to %s\n", cfgPath)
	} else {
		fmt.Printf("\n  ✓ Config saved to %s\n", cfgPath)
		fmt.Println()
		fmt.Println("  Next steps:")
		fmt.Println("    triplewalk health            # Check the server")
		fmt.Println("    triplewalk find <label>      # Look up nodes by label")
		fmt.Println("    triplewalk --help            # See all commands")
		fmt.Println()
	}

	return nil
}

// testConnection reads the server version and checks the key against an
// authenticated route.
func testConnection(url, apiKey string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var opts []client.Option
	if apiKey != "" {
		opts = append(opts, client.WithAPIKey(apiKey))
	}
	c := client.New(url, opts...)

	health, err := c.Health(ctx)
	if err != nil {
		return "", err
	}
	// Labels is authenticated; an unknown node answers with no labels.
	if _, err := c.Labels(ctx, "urn:triplewalk:init"); err != nil {
		return "", err
	}

	if health.Version == "" {
		health.Version = "unknown"
	}
	return health.Version, nil
}

// writeConfig stores the profile and makes it active, keeping any other
// profiles already in the file.
func writeConfig(profile, url, apiKey string) (string, error) {
	cfgPath, err := configPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o700); err != nil {
		return "", err
	}

	var cfg configFile
	if data, err := os.ReadFile(cfgPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return "", fmt.Errorf("parse existing config: %w", err)
		}
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]configProfile{}
	}
	cfg.Profiles[profile] = configProfile{URL: url, APIKey: apiKey}
	cfg.ActiveProfile = profile

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return "", err
	}

	return cfgPath, nil
}
