package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"oversight/internal/adapters/memory"
	pg "oversight/internal/adapters/postgres"
	"oversight/internal/config"
	"oversight/internal/ports"
)

type rootOptions struct {
	ConfigPath string
	Verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "oversight",
		Short:         "Enterprise compliance monitoring backend",
		Long:          "Tracks enterprises, their conventions, KPIs, site visits and documents behind a REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, serveOptions{Out: cmd.OutOrStdout()})
		},
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file (default ./config.yaml when present)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newUsersCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))
	cmd.AddCommand(newExpireCommand(opts))
	return cmd
}

// env is what every command needs: settings, a logger and an open store.
type env struct {
	cfg   config.Config
	log   *logrus.Logger
	db    *pg.DB
	store ports.Store
}

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

func loadEnv(opts *rootOptions) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, newLogger(cfg, opts.Verbose), nil
}

// openEnv loads the configuration and opens the configured store.
func openEnv(ctx context.Context, opts *rootOptions) (*env, error) {
	cfg, log, err := loadEnv(opts)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: log}
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using the in-memory store; data is lost on exit")
		e.store = memory.New().Repositories()
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		e.db = db
		e.store = db.Repositories()
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
	return e, nil
}

func newLogger(cfg config.Config, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if cfg.Development() {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}
