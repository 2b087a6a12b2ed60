package linkcmder

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const pathLongDesc string = `Find a link chain between two memories.

Runs a breadth-first search over the link graph, bounded by --max-depth
hops. Prints the shortest chain found, or reports that none exists.

Examples:
  pensieve link path mem_a mem_c
  pensieve link path mem_a mem_c --max-depth 5`

func newPathCmd() *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Find a link chain between two memories",
		Long:  pathLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPath(apiTarget(cmd), args[0], args[1], maxDepth)
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum number of hops (default: 3)")

	return cmd
}

func runPath(target, from, to string, maxDepth int) error {
	query := url.Values{}
	query.Set("from", from)
	query.Set("to", to)
	if maxDepth > 0 {
		query.Set("max_depth", strconv.Itoa(maxDepth))
	}

	var out struct {
		From  string   `json:"from"`
		To    string   `json:"to"`
		Path  []string `json:"path"`
		Found bool     `json:"found"`
	}
	if err := getJSON(target, "/v1/links/path", query, &out); err != nil {
		return err
	}

	if !out.Found {
		fmt.Printf("No path found between %s and %s.\n", from, to)
		return nil
	}

	rendered := make([]string, len(out.Path))
	for i, id := range out.Path {
		rendered[i] = idStyle.Render(id)
	}
	fmt.Printf("\n  %s\n\n", strings.Join(rendered, arrowStyle.Render(" → ")))

	return nil
}
