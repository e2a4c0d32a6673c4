package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-ledger-api/internal/app"
	"github.com/noah-isme/campus-ledger-api/pkg/config"
	"github.com/noah-isme/campus-ledger-api/pkg/logger"
)

var seedFile string

var rootCmd = &cobra.Command{
	Use:           "campusd",
	Short:         "campusd serves the campus directory, enrollment ledger and reports",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&seedFile, "seed", "", "YAML fixture loaded at startup (overrides SEED_FILE)")
	rootCmd.AddCommand(serveCmd, reportCmd)
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the logger and a seeded application.
func bootstrap(cmd *cobra.Command) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if seedFile != "" {
		cfg.SeedFile = seedFile
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	cleanup := func() { _ = logr.Sync() }

	a, err := app.New(cfg, logr)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := a.Seed(cmd.Context(), cfg.SeedFile); err != nil {
		logr.Error("seed failed", zap.String("file", cfg.SeedFile), zap.Error(err))
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}
