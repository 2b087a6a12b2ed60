package tierscmder

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/cliui"
)

const archiveLongDesc string = `Archive a COLD memory's verbatim payload.

Moves the full verbatim record into the archive store and replaces it with
a placeholder. The memory's summary stays live and recallable; only the
verbatim detail moves. Refuses memories that are not COLD.

Examples:
  pensieve tiers archive mem_abc123`

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <memory-id>",
		Short: "Archive a COLD memory's verbatim payload",
		Long:  archiveLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(apiTarget(cmd), args[0])
		},
	}
}

func runArchive(target, memoryID string) error {
	_, _, err := postJSON(target,
		fmt.Sprintf("/v1/memories/%s/archive", memoryID),
		nil, http.StatusNoContent)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Archived verbatim payload of %s\n\n", cliui.SuccessMark, idStyle.Render(memoryID))

	return nil
}
