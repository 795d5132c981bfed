package cmd

import (
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/autobrr/qmaint/pkg/runtime"
)

const repoSlug = "autobrr/qmaint"

var updateCmd = &cobra.Command{
	Use:           "update",
	Short:         "Update qmaint",
	Long:          `Update qmaint to latest version.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		release, err := selfupdate.UpdateSelf(cmd.Context(), runtime.Version, selfupdate.ParseSlug(repoSlug))
		if err != nil {
			return fmt.Errorf("could not update binary: %w", err)
		}

		fmt.Printf("Successfully updated to version: %s\n", release.Version())
		return nil
	},
}

func init() {
	updateCmd.SetUsageTemplate(`Usage:
  {{.CommandPath}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
`)

	rootCmd.AddCommand(updateCmd)
}
