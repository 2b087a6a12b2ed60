package linkcmder

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/api"
	"github.com/pensieveco/pensieve/pkg/cliui"
	"github.com/pensieveco/pensieve/pkg/linkgraph"
)

const addLongDesc string = `Create a typed link between two memories.

The inverse edge is written on the target automatically: caused_by and
leads_to invert into each other, contradicts and relates_to are their own
inverses, and directional types without a natural reverse (elaborates,
supersedes) invert into relates_to. Pass --one-way to skip the inverse.

Examples:
  pensieve link add mem_a mem_b elaborates
  pensieve link add mem_a mem_b elaborates --note "expands on the outage"
  pensieve link add mem_outage mem_deploy caused_by --one-way`

func newAddCmd() *cobra.Command {
	var (
		note   string
		oneWay bool
	)

	cmd := &cobra.Command{
		Use:   "add <from> <to> <type>",
		Short: "Create a link between two memories",
		Long:  addLongDesc,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(apiTarget(cmd), args[0], args[1], args[2], note, oneWay)
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Annotate the link")
	cmd.Flags().BoolVar(&oneWay, "one-way", false, "Skip the derived inverse edge")

	return cmd
}

func runAdd(target, from, to, rawType, note string, oneWay bool) error {
	linkType, err := linkgraph.ParseLinkType(rawType)
	if err != nil {
		return err
	}

	bidirectional := !oneWay
	err = sendLink(target, http.MethodPost, api.LinkRequest{
		From:          from,
		To:            to,
		Type:          string(linkType),
		Note:          note,
		Bidirectional: &bidirectional,
	}, http.StatusCreated, nil)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s %s %s %s\n",
		cliui.SuccessMark,
		idStyle.Render(from),
		typeStyle.Render(string(linkType)),
		arrowStyle.Render("→"),
		idStyle.Render(to),
	)
	if oneWay {
		fmt.Printf("  %s\n\n", dimStyle.Render("one-way, no inverse written"))
	} else {
		fmt.Printf("  %s\n\n", dimStyle.Render(fmt.Sprintf("inverse %s written on %s", linkType.Inverse(), to)))
	}

	return nil
}
