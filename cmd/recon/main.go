package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recon/internal/config"
	"recon/internal/logger"
	"recon/pkg/store"
)

const serviceName = "recon"

// app carries what every subcommand needs once the root command has run.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCodeOf(err))
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "recon",
		Short:         "Reconcile a payroll roster against a directory-service account export",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "recon.yaml", "Path to the YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(
		newRunCmd(a),
		newHistoryCmd(a),
		newOutcomesCmd(a),
		newResolveCmd(a),
		newScriptCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadFromEnv(a.configPath)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("load config: %w", err))
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return withCode(exitUsage, fmt.Errorf("invalid config: %w", err))
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	a.cfg = cfg
	a.logger = log
	a.out = cmd.OutOrStdout()
	return nil
}

// openStore connects to the configured database and makes sure the schema
// exists.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	s, err := store.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN, a.logger)
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, withCode(exitDB, err)
	}
	return s, nil
}
