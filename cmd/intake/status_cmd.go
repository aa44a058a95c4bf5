package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/intake/modules/intake/services"
)

func newStatusCmd() *cobra.Command {
	var page pageOptions
	var portal portalOptions
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status --base-url <url> [--user <id>] [--layout <file> | --page <file|url>]",
		Short: "Show which sections a user has completed and which one the wizard opens next",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			p, err := page.load(ctx)
			if err != nil {
				return err
			}
			client, err := portal.client()
			if err != nil {
				return err
			}
			st, err := services.Evaluate(ctx, client, p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSONLine(out, st)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "user\t%s\n", st.UserID)
			for _, s := range st.Sections {
				state := "incomplete"
				if s.Complete {
					state = "complete"
				}
				marker := ""
				if s.ID == st.Next {
					marker = "<- next"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, state, marker)
			}
			if st.Fallback {
				fmt.Fprintln(tw, "note\tstill_needed unavailable, used REQUIRED_CORE_DATA")
			}
			return tw.Flush()
		},
	}
	page.bind(cmd)
	portal.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
