// Package initcmder provides the init command for initializing a local
// .pensieve directory in the current working directory.
package initcmder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/config"
)

const (
	dirName = ".pensieve"
)

const initLongDesc string = `Initialize a new .pensieve/ directory in the current working directory.

Creates a local .pensieve/ directory that takes precedence over the default
~/.pensieve/ directory for configuration, state databases, and the verbatim
archive, and writes a config.toml. This is useful for maintaining separate
memory state per project.

Use --preset to pick the starter config:
  local    sqlite state + sqlite-vec index with local ollama embeddings
  chroma   sqlite state + a Chroma server for memories and the markdown corpus
  qdrant   sqlite state + a Qdrant server with local ollama embeddings

A preset can also be an http(s) URL pointing at a config.toml to fetch.

Examples:
  pensieve init
  pensieve init --preset local
  pensieve init --preset https://example.com/team-pensieve.toml`

const initShortDesc string = "Initialize a local .pensieve/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVarP(&preset, "preset", "p", "", fmt.Sprintf("Starter config preset (%s) or a config.toml URL", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	alreadyInitialized := err == nil && info.IsDir()
	if alreadyInitialized {
		fmt.Printf("Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .pensieve directory: %w", err)
		}
		fmt.Printf("Initialized .pensieve directory: %s\n", dir)
	}

	// Re-running init without a preset leaves an existing config alone.
	if preset == "" && alreadyInitialized {
		if _, err := os.Stat(filepath.Join(dir, "config.toml")); err == nil {
			return nil
		}
	}

	cfg, err := resolvePreset(preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Wrote %s\n", filepath.Join(dir, "config.toml"))
	return nil
}

// resolvePreset maps a preset name or URL to a Config. An empty preset
// returns the defaults.
func resolvePreset(preset string) (*config.Config, error) {
	switch {
	case preset == "":
		return config.NewDefaultConfig(), nil

	case strings.HasPrefix(preset, "http://"), strings.HasPrefix(preset, "https://"):
		return fetchRemoteConfig(preset)

	default:
		return config.PresetConfig(preset)
	}
}

// fetchRemoteConfig downloads and parses a config.toml from a URL.
func fetchRemoteConfig(rawURL string) (*config.Config, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
