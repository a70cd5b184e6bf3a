package main

import (
	"github.com/spf13/cobra"
)

// listCmd prints the connection summary table. An optional argument that
// names a registered protocol filters by protocol; anything else by tag.
var listCmd = &cobra.Command{
	Use:     "list [protocol|tag]",
	Aliases: []string{"l"},
	Short:   "Lists stored connections",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return reportErr(err)
		}
		defer svc.Close()

		filter := ""
		if len(args) == 1 {
			filter = args[0]
		}
		sums, err := svc.List(filter)
		if err != nil {
			return reportErr(err)
		}
		renderSummaries(sums)
		return nil
	},
}
