package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-pkgz/lgr"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"tick-task/internal/api"
	"tick-task/internal/config"
	"tick-task/internal/repository"
	"tick-task/internal/service"
	"tick-task/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ticktask",
		Short:         "Local-first task tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (yaml, json or toml)")
	flags.String("host", "", "listen host")
	flags.IntP("port", "p", 0, "listen port")
	flags.String("db", "", "database path or sqlite:/// URL")
	flags.Bool("debug", false, "enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			},
		},
	)
	return root
}

// setup loads config and opens the database shared by serve and migrate.
func setup(cmd *cobra.Command) (config.Config, lgr.L, *gorm.DB, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "config: %v\n", err)
		return cfg, nil, nil, err
	}
	logger := newLogger(cfg.Debug)

	dsn := cfg.DatabasePath()
	logger.Logf("INFO opening database %s", dsn)
	db, err := repository.NewDB(dsn, logger, cfg.Debug)
	if err != nil {
		logger.Logf("ERROR %v", err)
		return cfg, logger, nil, err
	}
	return cfg, logger, db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := repository.Close(db); err != nil {
			logger.Logf("WARN close db: %v", err)
		}
	}()

	tasks := service.NewTaskService(repository.NewTaskRepository(db), logger)
	server := api.New(cfg, tasks, logger)

	logger.Logf("INFO tick-task %s starting", version.String())
	if err := server.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Logf("ERROR server stopped with error: %v", err)
		return err
	}
	logger.Logf("INFO shutdown complete")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	// NewDB migrates on open.
	_, logger, db, err := setup(cmd)
	if err != nil {
		return err
	}
	logger.Logf("INFO schema is up to date")
	return repository.Close(db)
}

func newLogger(debug bool) lgr.L {
	opts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if debug {
		opts = append(opts, lgr.Debug, lgr.CallerFunc)
	}
	return lgr.New(opts...)
}
