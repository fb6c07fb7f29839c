package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(ctx, limit)
			if err != nil {
				return withCode(exitDB, err)
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tOPERATOR\tROSTER\tDIRECTORY\tOUTCOMES\tNEEDS ACTION")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Operator,
					r.RosterFile, r.DirectoryFile, r.Summary.Outcomes, r.Summary.NeedsAction)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}
