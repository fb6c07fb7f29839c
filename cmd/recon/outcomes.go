package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"recon/pkg/engine"
	"recon/pkg/store"
)

func newOutcomesCmd(a *app) *cobra.Command {
	var (
		unresolved bool
		category   string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "outcomes RUN_ID",
		Short: "List the outcomes of a recorded run, most urgent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.OutcomeFilter{UnresolvedOnly: unresolved}
			if category != "" {
				c, err := parseCategory(category)
				if err != nil {
					return withCode(exitUsage, err)
				}
				filter.Category = c
			}

			ctx := cmd.Context()
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := s.GetRun(ctx, args[0]); err != nil {
				return err
			}
			outcomes, err := s.ListOutcomes(ctx, args[0], filter)
			if err != nil {
				return withCode(exitDB, err)
			}

			if asJSON {
				if outcomes == nil {
					outcomes = []*store.StoredOutcome{}
				}
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(outcomes)
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tIDENTIFIER\tCATEGORY\tPRIORITY\tACTION\tACCOUNT\tRESOLVED")
			for _, o := range outcomes {
				resolved := "-"
				if o.Resolved {
					resolved = o.ResolvedBy
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					o.ID, o.Identifier, o.Category, o.Priority, o.Action, o.AccountName, resolved)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&unresolved, "unresolved", false, "Only outcomes not yet resolved")
	cmd.Flags().StringVar(&category, "category", "", "Only this category (e.g. GHOST_ACCOUNT)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func parseCategory(s string) (engine.Category, error) {
	c := engine.Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range engine.Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}
