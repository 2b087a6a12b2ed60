// Package boostcmder provides the boost command for explicit memory
// reinforcement via the pensieve API.
package boostcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/api"
	"github.com/pensieveco/pensieve/pkg/cliui"
	"github.com/pensieveco/pensieve/pkg/config"
	"github.com/pensieveco/pensieve/pkg/reinforce"
)

type boostCommander struct {
	memoryID string
	amount   float64
	lock     bool

	apiTarget string
}

const boostLongDesc string = `Explicitly reinforce a memory.

Raises the memory's salience so it surfaces more readily in recall. Boosts
accumulate up to a cap. Use --lock to make the memory immune to recency
decay, for facts that should never fade ("user is allergic to shellfish").

Example:
  pensieve boost mem_abc123
  pensieve boost mem_abc123 --amount 0.4 --lock`

const boostShortDesc string = "Reinforce a memory"

func NewBoostCmd() *cobra.Command {
	cmder := &boostCommander{}

	cmd := &cobra.Command{
		Use:   "boost <memory-id>",
		Short: boostShortDesc,
		Long:  boostLongDesc,
		Args:  cobra.ExactArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.memoryID = args[0]
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().Float64Var(&cmder.amount, "amount", reinforce.DefaultBoostAmount, "Boost amount to add")
	cmd.Flags().BoolVar(&cmder.lock, "lock", false, "Make the memory immune to recency decay")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Pensieve API server URL")

	return cmd
}

func (c *boostCommander) run() error {
	boostURL, err := url.Parse(c.apiTarget)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	boostURL.Path = fmt.Sprintf("/v1/memories/%s/boost", c.memoryID)

	payload, err := json.Marshal(api.BoostRequest{Amount: c.amount, Lock: c.lock})
	if err != nil {
		return fmt.Errorf("encoding boost request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, boostURL.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating boost request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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
		return fmt.Errorf("boost request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var detail reinforce.Detail
	if err := json.Unmarshal(body, &detail); err != nil {
		return fmt.Errorf("failed to parse boost response: %w", err)
	}

	fmt.Printf("\n  %s Boosted %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(c.memoryID),
	)
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("salience"), cliui.ValueStyle.Render(fmt.Sprintf("%.3f", detail.CurrentSalience)))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("boost"), cliui.ValueStyle.Render(fmt.Sprintf("%.2f", detail.ExplicitBoost)))
	if detail.DecayImmune {
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("locked"), cliui.ValueStyle.Render("decay immune"))
	}
	fmt.Println()

	return nil
}
