package linkcmder

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/linkgraph"
)

const suggestLongDesc string = `Suggest link candidates for a memory.

Candidates are unlinked memories that share neighbors with the given one,
ranked by how many neighbors they share.

Examples:
  pensieve link suggest mem_a
  pensieve link suggest mem_a --limit 10`

func newSuggestCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <memory-id>",
		Short: "Suggest links via shared neighbors",
		Long:  suggestLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(apiTarget(cmd), args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of suggestions")

	return cmd
}

func runSuggest(target, memoryID string, limit int) error {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var out struct {
		MemoryID    string                 `json:"memory_id"`
		Suggestions []linkgraph.Suggestion `json:"suggestions"`
		Count       int                    `json:"count"`
	}
	if err := getJSON(target, fmt.Sprintf("/v1/memories/%s/links/suggest", memoryID), query, &out); err != nil {
		return err
	}

	if out.Count == 0 {
		fmt.Println("No suggestions.")
		return nil
	}

	fmt.Println()
	for _, s := range out.Suggestions {
		fmt.Printf("  %s  %s\n",
			idStyle.Render(s.MemoryID),
			dimStyle.Render(fmt.Sprintf("%d shared via %s", s.SharedNeighbors, strings.Join(s.Via, ", "))),
		)
	}
	fmt.Println()

	return nil
}
