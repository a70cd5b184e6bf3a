package main

import (
	"github.com/spf13/cobra"
)

// editCmd re-prompts every field of an existing connection.
var editCmd = &cobra.Command{
	Use:     "edit <alias|id>",
	Aliases: []string{"e"},
	Short:   "Edits a stored connection",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return reportErr(err)
		}
		defer svc.Close()

		return reportErr(svc.Edit(args[0]))
	},
}
