// Package versioncmder prints build information embedded at link time.
package versioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/utils"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the version, commit, and build time of this pensieve binary.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Printf("Version: %s\nSha: %s\nBuilt at: %s\n", utils.Version, utils.Sha, utils.Buildtime)
			return nil
		},
	}
}
