package linkcmder

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/api"
	"github.com/pensieveco/pensieve/pkg/cliui"
	"github.com/pensieveco/pensieve/pkg/linkgraph"
)

const removeLongDesc string = `Remove links between two memories.

With a type, removes that edge and its derived inverse. Without one, every
link between the pair comes off. If nothing connects the pair afterwards,
the inbound-link reinforcement is reverted on both sides.

Examples:
  pensieve link remove mem_a mem_b elaborates
  pensieve link remove mem_a mem_b`

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <from> <to> [type]",
		Short: "Remove links between two memories",
		Long:  removeLongDesc,
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawType := ""
			if len(args) == 3 {
				rawType = args[2]
			}
			return runRemove(apiTarget(cmd), args[0], args[1], rawType)
		},
	}
}

func runRemove(target, from, to, rawType string) error {
	label := "all links"
	if rawType != "" {
		linkType, err := linkgraph.ParseLinkType(rawType)
		if err != nil {
			return err
		}
		label = string(linkType)
	}

	var out struct {
		Removed bool `json:"removed"`
	}
	err := sendLink(target, http.MethodDelete, api.LinkRequest{
		From: from,
		To:   to,
		Type: rawType,
	}, http.StatusOK, &out)
	if err != nil {
		return err
	}

	if !out.Removed {
		fmt.Printf("No matching link between %s and %s.\n", from, to)
		return nil
	}

	fmt.Printf("\n  %s Removed %s %s %s %s\n\n",
		cliui.SuccessMark,
		idStyle.Render(from),
		typeStyle.Render(label),
		arrowStyle.Render("→"),
		idStyle.Render(to),
	)

	return nil
}
