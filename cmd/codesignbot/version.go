package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cdserver "github.com/HowardHan99/codesignbot-sub000/internal/server"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// No config needed to print a version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codesignbot v%s\n", cdserver.Version)
		},
	}
}
