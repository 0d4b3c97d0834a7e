package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/set-night/jasebbot/internal/config"
	"github.com/set-night/jasebbot/internal/handler"
	"github.com/set-night/jasebbot/internal/metrics"
	"github.com/set-night/jasebbot/internal/middleware"
	"github.com/set-night/jasebbot/internal/repository"
	"github.com/set-night/jasebbot/internal/service"
	"github.com/set-night/jasebbot/internal/telegram"
)

func run(parent context.Context) error {
	startedAt := time.Now()

	cfg, err := setup()
	if err != nil {
		return err
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, metrics.NewRouter(reg), config.MetricsShutdownTimeout); err != nil {
				slog.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	// Storage
	store, err := repository.NewStore(cfg.DataFile)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	archive, closeArchive, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeArchive()
	backups := service.NewBackupService(repository.NewFileBackup(store, cfg.BackupDir), archive)

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	policy := service.NewAccessPolicy(cfg.OwnerIDs)
	var notifier *telegram.Notifier

	b, err := bot.New(cfg.BotToken,
		bot.WithMiddlewares(
			middleware.Recover(lazyReporter(func() middleware.PanicReporter {
				if notifier == nil {
					return nil
				}
				return notifier
			})),
			middleware.Logging(m),
			middleware.ActorLoader(policy, store),
			middleware.Blacklist(),
			middleware.RateLimit(middleware.NewRateLimiter(config.MessagesPerMinute, time.Minute)),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.HandleDefault(ctx, b, update)
		}),
	)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	// Services
	courier := telegram.NewCourier(b)
	notifier = telegram.NewNotifier(b, cfg)
	entitlements := service.NewEntitlementService(store, courier, m)
	m.SetTrackedGroups(len(store.View(ctx).Groups))

	h = handler.New(handler.Deps{
		API:          b,
		Cfg:          cfg,
		Store:        store,
		Policy:       policy,
		Entitlements: entitlements,
		Dispatch: service.NewMassDispatchService(
			store, policy, service.NewCooldownGate(), service.NewDispatcher(m), courier, cfg.ShareFooter, m,
		),
		Relay:     service.NewRelayService(policy.MainOwner(), m),
		Admin:     service.NewAdminService(store, policy),
		Backups:   backups,
		Courier:   courier,
		Menus:     telegram.NewMenuTracker(b, cfg.MenuImages),
		Notifier:  notifier,
		StartedAt: startedAt,
	})
	h.Register(b)

	// Premium expiry sweep
	scheduler := service.NewScheduler()
	if err := scheduler.Register(service.NewExpiryJob(entitlements, notifier, config.ExpirySweepInterval)); err != nil {
		return err
	}
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	fmt.Print(banner(me.Username, cfg.Version, cfg.OwnerIDsString()))
	slog.Info("starting bot", "username", me.Username, "id", me.ID)
	b.Start(ctx)

	slog.Info("bot stopped gracefully")
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// lazyReporter forwards panics to the notifier, which only exists once the bot does.
type lazyReporter func() middleware.PanicReporter

func (l lazyReporter) LogError(err error, where string) {
	if r := l(); r != nil {
		r.LogError(err, where)
	}
}
