package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "intake",
		Short:         "Inspect intake wizard layouts and user progress against a portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newSectionsCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newWalkCmd())
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
