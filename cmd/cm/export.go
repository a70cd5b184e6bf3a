package main

import (
	"github.com/spf13/cobra"
)

// exportCmd writes all connections to a JSON file with passwords decrypted.
var exportCmd = &cobra.Command{
	Use:     "export <file>",
	Aliases: []string{"x"},
	Short:   "Exports connections to a JSON file",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return reportErr(err)
		}
		defer svc.Close()

		return reportErr(svc.Export(args[0]))
	},
}
