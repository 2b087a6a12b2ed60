// Package decaycmder provides the decay command for reporting memories whose
// salience has fallen below a threshold.
package decaycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/config"
	"github.com/pensieveco/pensieve/pkg/reinforce"
)

var (
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	fadedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type decayCommander struct {
	threshold float64

	apiTarget string
}

const decayLongDesc string = `Report memories fading below a salience threshold.

Lists tracked memories whose dynamic salience has decayed under the
threshold, sorted weakest first. These are candidates for boosting, linking,
or letting go.

Examples:
  pensieve decay
  pensieve decay --threshold 0.2`

const decayShortDesc string = "Report fading memories"

func NewDecayCmd() *cobra.Command {
	cmder := &decayCommander{}

	cmd := &cobra.Command{
		Use:   "decay",
		Short: decayShortDesc,
		Long:  decayLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
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
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().Float64VarP(&cmder.threshold, "threshold", "t", 0.3, "Salience threshold")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Pensieve API server URL")

	return cmd
}

func (c *decayCommander) run() error {
	decayURL, err := url.Parse(c.apiTarget)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	decayURL.Path = "/v1/decay"
	q := decayURL.Query()
	q.Set("threshold", strconv.FormatFloat(c.threshold, 'g', -1, 64))
	decayURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, decayURL.String(), nil)
	if err != nil {
		return fmt.Errorf("creating decay request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to pensieve API at %s: %w", c.apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("decay request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		Threshold float64                  `json:"threshold"`
		Count     int                      `json:"count"`
		Fading    []reinforce.FadingMemory `json:"fading"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("failed to parse decay response: %w", err)
	}

	if out.Count == 0 {
		fmt.Printf("No memories below salience %.2f.\n", out.Threshold)
		return nil
	}

	fmt.Printf("\n  %s\n\n", warnStyle.Render(fmt.Sprintf("%d memories below salience %.2f", out.Count, out.Threshold)))
	for _, fading := range out.Fading {
		last := "never accessed"
		if fading.LastAccessed != nil {
			last = "last accessed " + fading.LastAccessed.Format("2006-01-02")
		}
		fmt.Printf("  %s  %s\n",
			idStyle.Render(fading.ID),
			fadedStyle.Render(fmt.Sprintf("salience %.3f (was %.2f), %d accesses, %s",
				fading.CurrentSalience, fading.InitialSalience, fading.AccessCount, last)),
		)
	}
	fmt.Println()

	return nil
}
