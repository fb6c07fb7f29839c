package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recon/pkg/engine"
	"recon/pkg/report"
	"recon/pkg/store"
)

var (
	rosterExtensions    = []string{".xlsx", ".xls"}
	directoryExtensions = []string{".txt", ".csv"}
)

type runOptions struct {
	roster    string
	directory string
	policy    string
	out       string
	json      bool
	persist   bool
	operator  string
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile a payroll workbook against a directory export",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.roster, "roster", "", "Payroll workbook (.xlsx) (required)")
	cmd.Flags().StringVar(&opts.directory, "directory", "", "Directory account export (.txt or .csv) (required)")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "Conflict policy: fold or review (default from config)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Write the outcomes to this .xlsx workbook")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the full result as JSON instead of a summary")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Record the run and its outcomes in the database")
	cmd.Flags().StringVar(&opts.operator, "operator", "", "Operator recorded with the run (default from config)")

	_ = cmd.MarkFlagRequired("roster")
	_ = cmd.MarkFlagRequired("directory")

	return cmd
}

func runReconcile(ctx context.Context, a *app, opts runOptions) error {
	if err := checkExtension(opts.roster, rosterExtensions); err != nil {
		return withCode(exitUsage, fmt.Errorf("--roster: %w", err))
	}
	if err := checkExtension(opts.directory, directoryExtensions); err != nil {
		return withCode(exitUsage, fmt.Errorf("--directory: %w", err))
	}

	policyName := opts.policy
	if policyName == "" {
		policyName = a.cfg.Reconcile.ConflictPolicy
	}
	policy, err := engine.ParseConflictPolicy(policyName)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("--policy: %w", err))
	}

	operator := opts.operator
	if operator == "" {
		operator = a.cfg.Script.Operator
	}

	var (
		s   *store.Store
		run *store.Run
	)
	if opts.persist {
		s, err = a.openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		run, err = s.CreateRun(ctx, store.RunInput{
			Operator:      operator,
			RosterFile:    filepath.Base(opts.roster),
			DirectoryFile: filepath.Base(opts.directory),
		})
		if err != nil {
			return withCode(exitDB, err)
		}
	}

	res, err := reconcileFiles(opts.roster, opts.directory, policy, a.logger)
	if err != nil {
		if run != nil {
			if failErr := s.FailRun(ctx, run.ID, err); failErr != nil {
				a.logger.Error("failed to record run failure", zap.String("run_id", run.ID), zap.Error(failErr))
			}
		}
		return withCode(exitValidation, err)
	}
	summary := report.Summarize(res)

	if run != nil {
		if err := s.SaveOutcomes(ctx, run.ID, res.Outcomes); err != nil {
			_ = s.FailRun(ctx, run.ID, err)
			return withCode(exitDB, err)
		}
		if err := s.CompleteRun(ctx, run.ID, summary); err != nil {
			return withCode(exitDB, err)
		}
	}

	if opts.out != "" {
		data, err := report.ExportWorkbook(report.SortByPriority(res.Outcomes))
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.out, err)
		}
		a.logger.Info("workbook written", zap.String("path", opts.out), zap.Int("outcomes", len(res.Outcomes)))
	}

	if opts.json {
		data, err := engine.SerializeResult(res)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, string(data))
		return err
	}

	runID := ""
	if run != nil {
		runID = run.ID
	}
	printSummary(a.out, runID, summary)
	return nil
}

func reconcileFiles(rosterPath, directoryPath string, policy engine.ConflictPolicy, log *zap.Logger) (*engine.Result, error) {
	rosterData, err := os.ReadFile(rosterPath)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	directoryData, err := os.ReadFile(directoryPath)
	if err != nil {
		return nil, fmt.Errorf("read directory export: %w", err)
	}
	return engine.NewPipeline(policy, log).Run(rosterData, directoryData)
}

func checkExtension(path string, allowed []string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return fmt.Errorf("%q must have one of the extensions %s", path, strings.Join(allowed, ", "))
}

func printSummary(w io.Writer, runID string, s report.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if runID != "" {
		fmt.Fprintf(tw, "Run\t%s\n", runID)
	}
	fmt.Fprintf(tw, "Roster employees\t%d\n", s.TotalEmployees)
	fmt.Fprintf(tw, "Directory accounts\t%d\n", s.TotalAccounts)
	fmt.Fprintf(tw, "Outcomes\t%d\n", s.Outcomes)
	fmt.Fprintf(tw, "  %s\t%d\n", engine.CategoryGhostAccount, s.GhostAccounts)
	fmt.Fprintf(tw, "  %s\t%d\n", engine.CategoryInactiveWithAccount, s.InactiveWithAccount)
	fmt.Fprintf(tw, "  %s\t%d\n", engine.CategoryConflictReview, s.ConflictReview)
	fmt.Fprintf(tw, "  %s\t%d\n", engine.CategoryOKActive, s.OKActive)
	fmt.Fprintf(tw, "  %s\t%d\n", engine.CategoryOKInactive, s.OKInactive)
	fmt.Fprintf(tw, "Needs action\t%d\n", s.NeedsAction)
	if s.DuplicateAccounts > 0 {
		fmt.Fprintf(tw, "Duplicate identifiers\t%d\n", s.DuplicateAccounts)
	}
	tw.Flush()
}
