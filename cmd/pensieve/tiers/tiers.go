// Package tierscmder provides the tiers command group for inspecting and
// updating memory storage tiers via the pensieve API.
package tierscmder

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
	"github.com/pensieveco/pensieve/pkg/tier"
)

var (
	hotStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	coldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	idStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const tiersLongDesc string = `Inspect and update memory storage tiers.

Memories move between HOT, WARM, and COLD tiers based on salience, access
recency, and access count. Locked memories never fall below WARM. COLD
memories can have their verbatim payload archived and later restored byte
for byte.

Use subcommands to inspect and manage tiers:
  pensieve tiers                       Show the tier report
  pensieve tiers update [memory-id]    Recalculate tiers (all, or one memory)
  pensieve tiers show <memory-id>      Show one memory's tier state
  pensieve tiers lock <memory-id>      Pin a memory against COLD demotion
  pensieve tiers archive <memory-id>   Archive a COLD memory's verbatim payload
  pensieve tiers restore <memory-id>   Restore an archived verbatim payload`

const tiersShortDesc string = "Inspect and update storage tiers"

func NewTiersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tiers",
		Short: tiersShortDesc,
		Long:  tiersLongDesc,
		Args:  cobra.NoArgs,
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
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(apiTarget(cmd))
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.PersistentFlags().String("api-target", defaults.Client.APITarget, "Pensieve API server URL")

	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newLockCmd())
	cmd.AddCommand(newArchiveCmd())
	cmd.AddCommand(newRestoreCmd())

	return cmd
}

func runReport(target string) error {
	var report tier.Report
	if err := getJSON(target, "/v1/tiers", url.Values{}, &report); err != nil {
		return err
	}

	fmt.Println()
	printTier(hotStyle.Render("HOT"), report.Hot)
	printTier(warmStyle.Render("WARM"), report.Warm)
	printTier(coldStyle.Render("COLD"), report.Cold)

	return nil
}

func printTier(label string, entries []tier.ReportEntry) {
	fmt.Printf("  %s %s\n", label, dimStyle.Render(fmt.Sprintf("(%d)", len(entries))))
	for _, e := range entries {
		lock := ""
		if e.Locked {
			lock = dimStyle.Render("  locked")
		}
		fmt.Printf("    %s  %s%s\n",
			idStyle.Render(e.ID),
			dimStyle.Render(fmt.Sprintf("salience %.2f, %d accesses", e.Salience, e.Accesses)),
			lock,
		)
	}
	fmt.Println()
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

// postJSON performs a POST against the API, optionally with a JSON payload,
// and returns the response body when the status matches.
func postJSON(target, path string, payload any, wantStatuses ...int) ([]byte, int, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid API target URL: %w", err)
	}
	u.Path = path

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, u.String(), reader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to connect to pensieve API at %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	for _, want := range wantStatuses {
		if resp.StatusCode == want {
			return body, resp.StatusCode, nil
		}
	}

	return nil, resp.StatusCode, fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, string(body))
}
