// Package feedbackcmder provides the feedback command for recording whether
// a recalled memory was actually useful.
package feedbackcmder

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
)

type feedbackCommander struct {
	memoryID  string
	unhelpful bool

	apiTarget string
}

const feedbackLongDesc string = `Record retrieval feedback for a memory.

Helpful feedback nudges the memory's usefulness score up; --unhelpful nudges
it down (floored at zero). Usefulness feeds into the memory's dynamic
salience, so consistently unhelpful memories fade from recall.

Example:
  pensieve feedback mem_abc123
  pensieve feedback mem_abc123 --unhelpful`

const feedbackShortDesc string = "Record retrieval feedback for a memory"

func NewFeedbackCmd() *cobra.Command {
	cmder := &feedbackCommander{}

	cmd := &cobra.Command{
		Use:   "feedback <memory-id>",
		Short: feedbackShortDesc,
		Long:  feedbackLongDesc,
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
	cmd.Flags().BoolVar(&cmder.unhelpful, "unhelpful", false, "Record the memory as unhelpful")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Pensieve API server URL")

	return cmd
}

func (c *feedbackCommander) run() error {
	feedbackURL, err := url.Parse(c.apiTarget)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	feedbackURL.Path = fmt.Sprintf("/v1/memories/%s/feedback", c.memoryID)

	payload, err := json.Marshal(api.FeedbackRequest{Helpful: !c.unhelpful})
	if err != nil {
		return fmt.Errorf("encoding feedback request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, feedbackURL.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating feedback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to pensieve API at %s: %w", c.apiTarget, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("feedback request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	verdict := "helpful"
	if c.unhelpful {
		verdict = "unhelpful"
	}
	fmt.Printf("\n  %s Recorded %s feedback for %s\n\n",
		cliui.SuccessMark,
		verdict,
		cliui.KeyStyle.Render(c.memoryID),
	)

	return nil
}
