// Package statscmder provides the stats command for reinforcement and tier
// statistics.
package statscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/cliui"
	"github.com/pensieveco/pensieve/pkg/config"
	"github.com/pensieveco/pensieve/pkg/reinforce"
)

type statsCommander struct {
	apiTarget string
}

const statsLongDesc string = `Show reinforcement and tier statistics.

Summarizes the tracked memory population: totals, average salience, boost
and decay-immunity counts, and how many memories sit in each storage tier.

Examples:
  pensieve stats`

const statsShortDesc string = "Show reinforcement and tier statistics"

func NewStatsCmd() *cobra.Command {
	cmder := &statsCommander{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
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
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Pensieve API server URL")

	return cmd
}

func (c *statsCommander) run() error {
	statsURL, err := url.Parse(c.apiTarget)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	statsURL.Path = "/v1/stats"

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, statsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("creating stats request: %w", err)
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
		return fmt.Errorf("stats request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		Reinforcement reinforce.Stats `json:"reinforcement"`
		Tiers         map[string]int  `json:"tiers"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("failed to parse stats response: %w", err)
	}

	fmt.Println()
	printStat("memories", fmt.Sprintf("%d", out.Reinforcement.Total))
	printStat("accesses", fmt.Sprintf("%d", out.Reinforcement.TotalAccesses))
	printStat("avg accesses", fmt.Sprintf("%.1f", out.Reinforcement.AvgAccessCount))
	printStat("avg salience", fmt.Sprintf("%.3f", out.Reinforcement.AvgSalience))
	printStat("boosted", fmt.Sprintf("%d", out.Reinforcement.BoostedCount))
	printStat("decay immune", fmt.Sprintf("%d", out.Reinforcement.DecayImmuneCount))
	fmt.Println()
	printStat("hot", fmt.Sprintf("%d", out.Tiers["hot"]))
	printStat("warm", fmt.Sprintf("%d", out.Tiers["warm"]))
	printStat("cold", fmt.Sprintf("%d", out.Tiers["cold"]))
	fmt.Println()

	return nil
}

func printStat(key, value string) {
	fmt.Printf("  %s  %s\n",
		cliui.KeyStyle.Render(fmt.Sprintf("%-13s", key)),
		cliui.ValueStyle.Render(value),
	)
}
