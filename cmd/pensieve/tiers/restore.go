package tierscmder

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/cliui"
)

const restoreLongDesc string = `Restore an archived verbatim payload.

Brings the archived verbatim record back into the live store byte for byte
and clears the placeholder. Refuses memories that are not archived.

Examples:
  pensieve tiers restore mem_abc123`

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <memory-id>",
		Short: "Restore an archived verbatim payload",
		Long:  restoreLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(apiTarget(cmd), args[0])
		},
	}
}

func runRestore(target, memoryID string) error {
	_, _, err := postJSON(target,
		fmt.Sprintf("/v1/memories/%s/restore", memoryID),
		nil, http.StatusNoContent)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Restored verbatim payload of %s\n\n", cliui.SuccessMark, idStyle.Render(memoryID))

	return nil
}
