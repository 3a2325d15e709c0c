package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/luisquicidev/easydiet-backend/internal/app"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "easydiet",
		Short:         "Nutrition plan generation backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), workerCmd(), migrateCmd())
	return root
}

func serveCmd() *cobra.Command {
	var noWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.LoadConfig()
			if noWorker {
				cfg.EmbeddedWorker = false
			}
			return run(cmd.Context(), cfg, app.ModeServe)
		},
	}
	cmd.Flags().BoolVar(&noWorker, "no-worker", false, "do not run the phase worker in this process")
	return cmd
}

func workerCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the phase worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.LoadConfig()
			if concurrency > 0 {
				cfg.Worker.Concurrency = concurrency
			}
			return run(cmd.Context(), cfg, app.ModeWorker)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "override WORKER_CONCURRENCY")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and seed MET activities",
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.Migrate(app.LoadConfig())
		},
	}
}

func run(parent context.Context, cfg app.Config, mode app.Mode) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, mode)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
