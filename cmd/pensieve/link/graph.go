package linkcmder

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/linkgraph"
)

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Dump the full link adjacency list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(apiTarget(cmd))
		},
	}
}

func runGraph(target string) error {
	var out struct {
		Memories int                         `json:"memories"`
		Graph    map[string][]linkgraph.Link `json:"graph"`
	}
	if err := getJSON(target, "/v1/links/graph", url.Values{}, &out); err != nil {
		return err
	}

	if out.Memories == 0 {
		fmt.Println("Link graph is empty.")
		return nil
	}

	ids := make([]string, 0, len(out.Graph))
	for id := range out.Graph {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println()
	for _, id := range ids {
		fmt.Printf("  %s\n", idStyle.Render(id))
		for _, link := range out.Graph[id] {
			fmt.Printf("    %s %s %s\n",
				typeStyle.Render(fmt.Sprintf("%-11s", link.Type)),
				arrowStyle.Render("→"),
				idStyle.Render(link.TargetID),
			)
		}
	}
	fmt.Println()

	return nil
}
