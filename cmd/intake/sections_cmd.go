package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSectionsCmd() *cobra.Command {
	var opts pageOptions
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sections [--layout <file> | --page <file|url>]",
		Short: "List the sections a wizard page declares",
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSONLine(out, page.Sections)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDISPLAY\tFIELDS")
			for _, s := range page.Sections {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Display, strings.Join(s.Section().Fields(), ","))
			}
			return tw.Flush()
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
