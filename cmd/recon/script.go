package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recon/pkg/engine"
	"recon/pkg/report"
	"recon/pkg/store"
)

func newScriptCmd(a *app) *cobra.Command {
	var (
		kind   string
		unsafe bool
		out    string
	)

	cmd := &cobra.Command{
		Use:   "script RUN_ID",
		Short: "Render a PowerShell remediation script for a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			stored, err := s.ListOutcomes(ctx, run.ID, store.OutcomeFilter{UnresolvedOnly: true})
			if err != nil {
				return withCode(exitDB, err)
			}
			outcomes := make([]engine.Outcome, len(stored))
			for i, o := range stored {
				outcomes[i] = o.Outcome
			}

			renderer, err := report.NewScriptRenderer(a.logger)
			if err != nil {
				return err
			}
			script, err := renderer.Render(report.ParseScriptKind(kind), outcomes, report.ScriptOptions{
				SafeMode:   a.cfg.Script.SafeMode && !unsafe,
				Operator:   a.cfg.Script.Operator,
				DisabledOU: a.cfg.Script.DisabledOU,
			})
			if err != nil {
				return err
			}

			id, err := s.SaveScript(ctx, run.ID, script)
			if err != nil {
				return withCode(exitDB, err)
			}

			if out == "" {
				_, err = fmt.Fprint(a.out, script.Content)
				return err
			}
			if err := os.WriteFile(out, []byte(script.Content), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			a.logger.Info("script written",
				zap.String("script_id", id),
				zap.String("path", out),
				zap.String("suggested_name", script.FileName()),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(report.ScriptMassDisable), "Script kind: MASS_DISABLE, REPORT")
	cmd.Flags().BoolVar(&unsafe, "unsafe", false, "Emit real commands instead of -WhatIf")
	cmd.Flags().StringVar(&out, "out", "", "Write the script to this file instead of stdout")
	return cmd
}
