package tierscmder

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/cliui"
	"github.com/pensieveco/pensieve/pkg/tier"
)

const updateLongDesc string = `Recalculate storage tiers.

With no argument, every tracked memory is re-placed and the moves are
printed. With a memory ID, only that memory is updated.

Examples:
  pensieve tiers update
  pensieve tiers update mem_abc123`

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [memory-id]",
		Short: "Recalculate tiers",
		Long:  updateLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runUpdateOne(apiTarget(cmd), args[0])
			}
			return runUpdateAll(apiTarget(cmd))
		},
	}
}

func runUpdateAll(target string) error {
	var body []byte
	err := cliui.Step(os.Stdout, "Recalculating tiers", func() error {
		var err error
		body, _, err = postJSON(target, "/v1/tiers/update", nil, http.StatusOK)
		return err
	})
	if err != nil {
		return err
	}

	var out struct {
		Moved   int           `json:"moved"`
		Changes []tier.Change `json:"changes"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("failed to parse update response: %w", err)
	}

	if out.Moved == 0 {
		fmt.Println("No tier changes.")
		return nil
	}

	fmt.Println()
	for _, change := range out.Changes {
		printChange(change)
	}
	fmt.Println()

	return nil
}

func runUpdateOne(target, memoryID string) error {
	body, status, err := postJSON(target,
		fmt.Sprintf("/v1/memories/%s/tier/update", memoryID),
		nil, http.StatusOK, http.StatusNoContent)
	if err != nil {
		return err
	}

	if status == http.StatusNoContent {
		fmt.Printf("%s is already in the right tier.\n", memoryID)
		return nil
	}

	var change tier.Change
	if err := json.Unmarshal(body, &change); err != nil {
		return fmt.Errorf("failed to parse update response: %w", err)
	}

	fmt.Println()
	printChange(change)
	fmt.Println()

	return nil
}

func printChange(change tier.Change) {
	fmt.Printf("  %s %s %s %s %s\n",
		cliui.SuccessMark,
		idStyle.Render(change.MemoryID),
		tierLabel(change.OldTier),
		dimStyle.Render("→"),
		tierLabel(change.NewTier),
	)
	if change.Reason != "" {
		fmt.Printf("    %s\n", dimStyle.Render(change.Reason))
	}
}

func tierLabel(t tier.Tier) string {
	switch t {
	case tier.TierHot:
		return hotStyle.Render("HOT")
	case tier.TierWarm:
		return warmStyle.Render("WARM")
	case tier.TierCold:
		return coldStyle.Render("COLD")
	default:
		return string(t)
	}
}
