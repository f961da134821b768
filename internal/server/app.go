// Package server wires the accounts service together: store, event
// publishing, business services and the HTTP and gRPC listeners.
package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/config"
	"github.com/dmitrijs2005/gophaccounts/internal/server/events"
	"github.com/dmitrijs2005/gophaccounts/internal/server/httpapi"
	"github.com/dmitrijs2005/gophaccounts/internal/server/metrics"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"

	gs "github.com/dmitrijs2005/gophaccounts/internal/server/grpc"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	repos          repomanager.RepositoryManager
	closePublisher func() error
	notifier       *events.Notifier
	httpServer     *httpapi.Server
	healthServer   *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, "json")

	repos, err := OpenStore(ctx, c)
	if err != nil {
		return nil, err
	}

	pub, closePublisher, err := OpenPublisher(c, logger)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	m := metrics.New()
	notifier := events.NewNotifier(pub, logger.With("module", "notifier"), m, c.PublishTimeout)
	svc := NewServices(c, repos, notifier, logger, m)

	h := httpapi.NewHandler(svc.Accounts, svc.Addresses, svc.Sessions, repos.Ping, logger)

	return &App{
		config:         c,
		logger:         logger,
		repos:          repos,
		closePublisher: closePublisher,
		notifier:       notifier,
		httpServer:     httpapi.NewServer(c.HTTPAddr, httpapi.NewRouter(h, m.Handler()), logger),
		healthServer:   gs.NewHealthServer(c.GRPCAddr, logger, repos.Ping, 0),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) serve(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run serves until a signal arrives or a listener fails, then drains
// pending event deliveries and releases the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreKind)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "http", app.httpServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "grpc", app.healthServer.Run)
	}()

	wg.Wait()

	app.notifier.Wait()
	if err := app.closePublisher(); err != nil {
		app.logger.Warn(ctx, "publisher close failed", "error", err)
	}
	if err := app.repos.Close(); err != nil {
		app.logger.Warn(ctx, "store close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
