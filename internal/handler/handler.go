package handler

import (
	"context"
	"time"

	"github.com/set-night/jasebbot/internal/config"
	"github.com/set-night/jasebbot/internal/service"
	"github.com/set-night/jasebbot/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	api          telegram.API
	cfg          *config.Config
	store        service.DocumentStore
	policy       *service.AccessPolicy
	entitlements *service.EntitlementService
	dispatch     *service.MassDispatchService
	relay        *service.RelayService
	admin        *service.AdminService
	backups      *service.BackupService
	courier      *telegram.Courier
	menus        *telegram.MenuTracker
	notifier     *telegram.Notifier
	startedAt    time.Time

	now      func() time.Time
	host     func(ctx context.Context) (HostStats, error)
	runAsync func(func())
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	API          telegram.API
	Cfg          *config.Config
	Store        service.DocumentStore
	Policy       *service.AccessPolicy
	Entitlements *service.EntitlementService
	Dispatch     *service.MassDispatchService
	Relay        *service.RelayService
	Admin        *service.AdminService
	Backups      *service.BackupService
	Courier      *telegram.Courier
	Menus        *telegram.MenuTracker
	Notifier     *telegram.Notifier
	StartedAt    time.Time
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		api:          deps.API,
		cfg:          deps.Cfg,
		store:        deps.Store,
		policy:       deps.Policy,
		entitlements: deps.Entitlements,
		dispatch:     deps.Dispatch,
		relay:        deps.Relay,
		admin:        deps.Admin,
		backups:      deps.Backups,
		courier:      deps.Courier,
		menus:        deps.Menus,
		notifier:     deps.Notifier,
		startedAt:    deps.StartedAt,
		now:          time.Now,
		host:         probeHost,
		runAsync:     func(f func()) { go f() },
	}
}
