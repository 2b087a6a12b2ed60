// Package pensievecmder provides the root pensieve command.
package pensievecmder

import (
	"github.com/spf13/cobra"

	boostcmder "github.com/pensieveco/pensieve/cmd/pensieve/boost"
	configcmder "github.com/pensieveco/pensieve/cmd/pensieve/config"
	decaycmder "github.com/pensieveco/pensieve/cmd/pensieve/decay"
	feedbackcmder "github.com/pensieveco/pensieve/cmd/pensieve/feedback"
	initcmder "github.com/pensieveco/pensieve/cmd/pensieve/init"
	linkcmder "github.com/pensieveco/pensieve/cmd/pensieve/link"
	recallcmder "github.com/pensieveco/pensieve/cmd/pensieve/recall"
	servecmder "github.com/pensieveco/pensieve/cmd/pensieve/serve"
	statscmder "github.com/pensieveco/pensieve/cmd/pensieve/stats"
	tierscmder "github.com/pensieveco/pensieve/cmd/pensieve/tiers"
	versioncmder "github.com/pensieveco/pensieve/cmd/version"
)

const pensieveLongDesc string = `Pensieve is a personal memory layer for agents.

Run the server using:
  pensieve serve       Run the API and MCP servers

Query and manage memories using:
  pensieve recall      Recall memories relevant to a query
  pensieve boost       Reinforce a memory
  pensieve link        Manage links between memories
  pensieve tiers       Inspect and update storage tiers
  pensieve decay       Report memories fading below a salience threshold
  pensieve stats       Show reinforcement and tier statistics`

const pensieveShortDesc string = "Pensieve - Agent Memory"

func NewPensieveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pensieve",
		Short: pensieveShortDesc,
		Long:  pensieveLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing config.toml (default: .pensieve/ resolution)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(recallcmder.NewRecallCmd())
	cmd.AddCommand(boostcmder.NewBoostCmd())
	cmd.AddCommand(feedbackcmder.NewFeedbackCmd())
	cmd.AddCommand(linkcmder.NewLinkCmd())
	cmd.AddCommand(tierscmder.NewTiersCmd())
	cmd.AddCommand(decaycmder.NewDecayCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
