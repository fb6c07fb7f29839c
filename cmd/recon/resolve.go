package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	var notes, user string

	cmd := &cobra.Command{
		Use:   "resolve OUTCOME_ID",
		Short: "Mark an outcome as handled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				user = a.cfg.Script.Operator
			}

			ctx := cmd.Context()
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ResolveOutcome(ctx, args[0], user, notes); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "Outcome %s resolved by %s\n", args[0], user)
			return err
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Resolution notes")
	cmd.Flags().StringVar(&user, "user", "", "Who resolved it (default: configured operator)")
	return cmd
}
