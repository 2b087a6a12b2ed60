// Package linkcmder provides the link command group for managing the memory
// link graph via the pensieve API.
package linkcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/config"
)

var (
	arrowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	typeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const linkLongDesc string = `Manage typed links between memories.

Links are bidirectional: creating one writes the stated edge on the source
and a derived inverse edge on the target. Valid types are elaborates,
supersedes, contradicts, caused_by, leads_to, and relates_to.

Use subcommands to create, remove, and explore links:
  pensieve link add <from> <to> <type>     Create a link
  pensieve link remove <from> <to> [type]  Remove links between a pair
  pensieve link list <memory-id>           List a memory's links
  pensieve link path <from> <to>           Find a link chain between memories
  pensieve link suggest <memory-id>        Suggest links via shared neighbors
  pensieve link graph                      Dump the full adjacency list`

const linkShortDesc string = "Manage links between memories"

func NewLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: linkShortDesc,
		Long:  linkLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				return cmd.Flags().Set("api-target", cfg.Client.APITarget)
			}
			return nil
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.PersistentFlags().String("api-target", defaults.Client.APITarget, "Pensieve API server URL")

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPathCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newGraphCmd())

	return cmd
}

// apiTarget reads the resolved api-target persistent flag.
func apiTarget(cmd *cobra.Command) string {
	target, _ := cmd.Flags().GetString("api-target")
	return target
}

// getJSON performs a GET against the API and decodes the response into out.
func getJSON(target, path string, query url.Values, out any) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	u.Path = path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to pensieve API at %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}

// sendLink performs a POST or DELETE /v1/links with the given payload,
// checks the expected status code, and decodes the response into out when
// out is non-nil.
func sendLink(target, method string, payload any, wantStatus int, out any) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	u.Path = "/v1/links"

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, u.String(), bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to pensieve API at %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
