package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"connman/pkg/config"
	"connman/pkg/handler"
	"connman/pkg/secret"
	"connman/pkg/service"
	"connman/pkg/store"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:           "cm",
	Short:         "cm is a personal connection manager",
	Long:          `Stores named remote-access targets (ssh, rdp, vnc, vmrc, http) with encrypted credentials and launches the matching client.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFlags(0)
		log.SetOutput(os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(browseCmd)
}

func debugf(format string, args ...any) {
	if debug {
		log.Printf("debug: "+format, args...)
	}
}

// openService loads the configuration and wires store, cipher, registry and
// prompter together. Every command opens its own service and defers Close.
func openService() (*service.Service, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	debugf("config dir %s, database %s", dir, cfg.DBPath)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	cipher, err := secret.Open(cfg.KeyPath)
	if err != nil {
		st.Close()
		return nil, err
	}

	prompter := service.NewLinePrompter(st.AliasExists, handler.DefaultRegistry.Protocols())
	return service.New(st, cipher, handler.DefaultRegistry, prompter), nil
}

// reportErr prints an in-session error and swallows it so the process exits
// zero; only argument-parse failures at the cobra boundary are fatal.
func reportErr(err error) error {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return nil
}
