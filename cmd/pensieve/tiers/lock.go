package tierscmder

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/api"
	"github.com/pensieveco/pensieve/pkg/cliui"
)

const lockLongDesc string = `Pin a memory against COLD demotion.

Locked memories never fall below WARM regardless of salience or access
history. Use --unlock to release the pin.

Examples:
  pensieve tiers lock mem_abc123
  pensieve tiers lock mem_abc123 --unlock`

func newLockCmd() *cobra.Command {
	var unlock bool

	cmd := &cobra.Command{
		Use:   "lock <memory-id>",
		Short: "Pin a memory against COLD demotion",
		Long:  lockLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLock(apiTarget(cmd), args[0], !unlock)
		},
	}

	cmd.Flags().BoolVar(&unlock, "unlock", false, "Release the pin instead")

	return cmd
}

func runLock(target, memoryID string, locked bool) error {
	_, _, err := postJSON(target,
		fmt.Sprintf("/v1/memories/%s/lock", memoryID),
		api.LockRequest{Locked: locked},
		http.StatusNoContent)
	if err != nil {
		return err
	}

	verb := "Locked"
	if !locked {
		verb = "Unlocked"
	}
	fmt.Printf("\n  %s %s %s\n\n", cliui.SuccessMark, verb, idStyle.Render(memoryID))

	return nil
}
