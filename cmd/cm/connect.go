package main

import (
	"github.com/spf13/cobra"
)

// connectCmd launches the external client for a stored connection.
var connectCmd = &cobra.Command{
	Use:     "connect <alias|id>",
	Aliases: []string{"c"},
	Short:   "Connects to a stored target",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return reportErr(err)
		}
		defer svc.Close()

		return reportErr(svc.Connect(cmd.Context(), args[0]))
	},
}
