package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/holmosapien/slattice/internal/app"
	"github.com/holmosapien/slattice/internal/config"
	"github.com/holmosapien/slattice/internal/log"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "slattice",
	Short: "Multi-workspace chat state daemon",
	Long:  "Connects to every configured workspace, tracks unread and typing\nstate, and serves the aggregate view over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func run(ctx context.Context) error {
	bootLog := log.New("info")

	cfg, path, err := config.Load(bootLog, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Int("workspaces", len(cfg.Tokens)).Msg("configuration loaded")

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting slattice")
	if err := application.Run(ctx); err != nil {
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file")

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
