package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Irfan430/wp-bot/internal/bot"
	"github.com/Irfan430/wp-bot/internal/bus"
	"github.com/Irfan430/wp-bot/internal/command"
	"github.com/Irfan430/wp-bot/internal/command/builtin"
	"github.com/Irfan430/wp-bot/internal/config"
	"github.com/Irfan430/wp-bot/internal/lang"
	"github.com/Irfan430/wp-bot/internal/store"
	"github.com/Irfan430/wp-bot/internal/transport"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot (same as invoking wp-bot with no subcommand)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot()
		},
	}
}

// openStorage selects the persistence backend from config.
func openStorage(cfg config.DatabaseConfig) (store.Storage, error) {
	root := config.ExpandHome(cfg.Path)
	switch cfg.Driver {
	case "", "file":
		return store.NewFileStorage(root)
	case "sqlite":
		return store.NewSQLiteStorage(root)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func runBot() error {
	setupLogging()

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	if cfg.Transport.BridgeURL == "" {
		return errors.New("transport.bridge_url is not configured (or set WPBOT_BRIDGE_URL)")
	}

	storage, err := openStorage(cfg.Database)
	if err != nil {
		return err
	}
	db, err := store.Open(storage)
	if err != nil {
		storage.Close()
		return err
	}

	state := bot.NewRuntimeState(cfg, db)
	registry := command.NewRegistry(builtin.Set{})
	resolver := lang.NewResolver(cfg.Language.Default, config.ExpandHome(cfg.Language.CatalogDir))
	router := bus.New()

	bridge, err := transport.NewBridge(cfg.Transport, cfg.Bot.ID, router)
	if err != nil {
		db.Close()
		return err
	}
	dispatcher := bot.NewDispatcher(cfg, db, state, registry, resolver, router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watcher, werr := lang.NewWatcher(resolver); werr == nil {
		watcher.Start(ctx)
		defer watcher.Stop()
	} else {
		slog.Debug("catalog watcher not started", "error", werr)
	}

	stats := db.Stats()
	slog.Info("wp-bot starting",
		"version", Version,
		"commands", registry.Len(),
		"users", stats.TotalUsers,
		"threads", stats.TotalThreads,
		"driver", cfg.Database.Driver,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bridge.Run(ctx) })
	g.Go(func() error { return dispatcher.Run(ctx) })
	g.Go(func() error {
		db.RunAutoSave(ctx, cfg.Database.AutoSave())
		return nil
	})
	g.Go(func() error {
		return db.RunBackupSchedule(ctx, cfg.Database.BackupSchedule, cfg.Database.BackupRetain)
	})

	err = g.Wait()
	bridge.Close()
	if cerr := db.Close(); cerr != nil {
		slog.Error("database close failed", "error", cerr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("wp-bot stopped")
	return nil
}
