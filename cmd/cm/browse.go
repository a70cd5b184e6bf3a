package main

import (
	"github.com/spf13/cobra"

	"connman/pkg/tui"
)

// browseCmd opens the interactive browser. When the user selects a
// connection the TUI tears down first, then the launch runs on the
// restored terminal.
var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"b"},
	Short:   "Browses connections interactively",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return reportErr(err)
		}
		defer svc.Close()

		selected, err := tui.Run(svc)
		if err != nil {
			return reportErr(err)
		}
		if selected == "" {
			return nil
		}
		debugf("browser selected %q", selected)
		return reportErr(svc.Connect(cmd.Context(), selected))
	},
}
