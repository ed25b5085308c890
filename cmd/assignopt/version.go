package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quboassign/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// version needs no config or logger
	PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
	PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if flags.Output == "json" {
			return printJSON(buildinfo.Info())
		}
		fmt.Println(buildinfo.String())
		return nil
	},
}
