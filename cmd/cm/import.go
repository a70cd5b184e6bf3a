package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"connman/pkg/importer"
)

var importFormat string

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "json",
		"Input format: json, ssh-config, csv")
}

// importCmd loads connections from an export file. The native JSON form goes
// through the service directly; foreign formats are parsed first and stored
// under the same overwrite-confirmation rules.
var importCmd = &cobra.Command{
	Use:     "import <file>",
	Aliases: []string{"i"},
	Short:   "Imports connections from a file",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return reportErr(err)
		}
		defer svc.Close()

		if importFormat == "json" {
			return reportErr(svc.Import(args[0]))
		}

		parser, err := importer.Get(importer.Format(importFormat))
		if err != nil {
			return reportErr(err)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return reportErr(err)
		}
		result, err := parser.Parse(data)
		if err != nil {
			return reportErr(err)
		}

		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		for _, s := range result.Skipped {
			fmt.Printf("Skipped %q: %s\n", s.Name, s.Reason)
		}
		if err := svc.ImportRecords(result.Records); err != nil {
			return reportErr(err)
		}
		fmt.Printf("Connections imported from %s.\n", args[0])
		return nil
	},
}
