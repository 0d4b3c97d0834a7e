package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gookit/color"
	jasebbot "github.com/set-night/jasebbot"
	"github.com/set-night/jasebbot/internal/config"
	"github.com/set-night/jasebbot/internal/repository"
	"github.com/set-night/jasebbot/internal/service"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jasebbot",
		Short:         "Telegram group share and broadcast bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	root.AddCommand(runCmd(), backupCmd())
	return root
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a timestamped copy of the data file without starting the bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := setup()
			if err != nil {
				return err
			}

			store, err := repository.NewStore(cfg.DataFile)
			if err != nil {
				return err
			}
			archive, closeArchive, err := openArchive(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeArchive()

			b, err := service.NewBackupService(repository.NewFileBackup(store, cfg.BackupDir), archive).Create(ctx)
			if err != nil {
				return err
			}
			fmt.Println(color.New(color.FgGreen).Render("backup written: ") + b.Path)
			return nil
		},
	}
}

// setup loads the configuration and installs the default JSON logger.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	return cfg, nil
}

// openArchive connects the Postgres backup archive when DATABASE_URL is set.
// The returned archive is nil otherwise.
func openArchive(ctx context.Context, cfg *config.Config) (service.BackupArchive, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, nil
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect archive database: %w", err)
	}

	migrationsFS, err := fs.Sub(jasebbot.MigrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewPostgresArchive(pool), pool.Close, nil
}

func banner(username, version, owners string) string {
	title := color.New(color.BgBlack, color.FgGreen).Render(" JASEB BOT ")
	return fmt.Sprintf("%s @%s v%s\n%s %s\n",
		title, username, version,
		color.New(color.FgCyan).Render("owners:"), owners)
}
