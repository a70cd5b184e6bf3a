package main

import (
	"github.com/spf13/cobra"
)

// searchCmd prints connections matching a case-insensitive substring.
var searchCmd = &cobra.Command{
	Use:     "search <text>",
	Aliases: []string{"s"},
	Short:   "Searches stored connections",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return reportErr(err)
		}
		defer svc.Close()

		sums, err := svc.Search(args[0])
		if err != nil {
			return reportErr(err)
		}
		renderSummaries(sums)
		return nil
	},
}
