package tierscmder

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/cliui"
	"github.com/pensieveco/pensieve/pkg/tier"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <memory-id>",
		Short: "Show one memory's tier state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(apiTarget(cmd), args[0])
		},
	}
}

func runShow(target, memoryID string) error {
	var state tier.State
	if err := getJSON(target, fmt.Sprintf("/v1/memories/%s/tier", memoryID), url.Values{}, &state); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("memory"), idStyle.Render(state.MemoryID))
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("tier"), tierLabel(state.Tier))
	if state.TierChanged != nil {
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("moved"), dimStyle.Render(state.TierChanged.Format("2006-01-02 15:04")))
	}
	fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("locked"), cliui.ValueStyle.Render(fmt.Sprintf("%t", state.Locked)))
	if state.VerbatimArchived {
		fmt.Printf("  %s  %s\n", cliui.KeyStyle.Render("archive"), dimStyle.Render(state.ArchiveHandle))
	}
	fmt.Println()

	return nil
}
