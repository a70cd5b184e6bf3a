package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"connman/pkg/service"
)

var deleteForce bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

// deleteCmd removes a connection after a confirmation prompt.
var deleteCmd = &cobra.Command{
	Use:     "delete <alias|id>",
	Aliases: []string{"d"},
	Short:   "Deletes a stored connection",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return reportErr(err)
		}
		defer svc.Close()

		if !deleteForce {
			prompter := service.NewLinePrompter(svc.Store().AliasExists, nil)
			ok, err := prompter.Confirm(fmt.Sprintf("Delete connection %q?", args[0]))
			if err != nil {
				return reportErr(err)
			}
			if !ok {
				fmt.Println("Aborted")
				return nil
			}
		}

		return reportErr(svc.Delete(args[0]))
	},
}
