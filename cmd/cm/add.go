package main

import (
	"github.com/spf13/cobra"
)

// addCmd prompts interactively for every field of a new connection.
var addCmd = &cobra.Command{
	Use:     "add",
	Aliases: []string{"a"},
	Short:   "Adds a new connection",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return reportErr(err)
		}
		defer svc.Close()

		return reportErr(svc.Add())
	},
}
