package linkcmder

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/linkgraph"
)

func newListCmd() *cobra.Command {
	var typeFilter string

	cmd := &cobra.Command{
		Use:   "list <memory-id>",
		Short: "List a memory's links in both directions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(apiTarget(cmd), args[0], typeFilter)
		},
	}

	cmd.Flags().StringVarP(&typeFilter, "type", "t", "", "Only show links of this type")

	return cmd
}

func runList(target, memoryID, typeFilter string) error {
	query := url.Values{}
	if typeFilter != "" {
		query.Set("type", typeFilter)
	}

	var out struct {
		MemoryID string               `json:"memory_id"`
		Links    []linkgraph.Neighbor `json:"links"`
		Count    int                  `json:"count"`
	}
	if err := getJSON(target, fmt.Sprintf("/v1/memories/%s/links", memoryID), query, &out); err != nil {
		return err
	}

	if out.Count == 0 {
		fmt.Println("No links found.")
		return nil
	}

	fmt.Printf("\n  %s\n\n", idStyle.Render(memoryID))
	for _, n := range out.Links {
		arrow := "→"
		if n.Direction == linkgraph.DirectionInbound {
			arrow = "←"
		}

		marker := ""
		if n.Derived {
			marker = dimStyle.Render("  (derived)")
		}
		if n.Note != "" {
			marker += dimStyle.Render("  " + n.Note)
		}

		fmt.Printf("  %s %s %s%s\n",
			typeStyle.Render(fmt.Sprintf("%-11s", n.Type)),
			arrowStyle.Render(arrow),
			idStyle.Render(n.MemoryID),
			marker,
		)
	}
	fmt.Println()

	return nil
}
