// Package app wires configuration, storage and the HTTP API into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saxenaaman628/badenya/config"
	"github.com/saxenaaman628/badenya/internal/api"
	"github.com/saxenaaman628/badenya/internal/controller"
	"github.com/saxenaaman628/badenya/internal/groups"
	"github.com/saxenaaman628/badenya/internal/ledger"
	"github.com/saxenaaman628/badenya/internal/middleware"
	"github.com/saxenaaman628/badenya/internal/notify"
	"github.com/saxenaaman628/badenya/internal/proposals"
	"github.com/saxenaaman628/badenya/internal/storage"
	"github.com/saxenaaman628/badenya/internal/sweeper"
	"github.com/saxenaaman628/badenya/internal/users"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg      config.Config
	log      *zap.Logger
	store    *storage.Storage
	engine   *proposals.Engine
	router   *gin.Engine
	notifier *notify.Async
	sweeper  *sweeper.Sweeper
}

// New builds the service. ctx bounds background helpers such as the rate
// limiter cleanup.
func New(ctx context.Context, cfg config.Config, store *storage.Storage, log *zap.Logger) *App {
	delivery := notify.Multi{notify.NewLog(log)}
	if store.Redis != nil && cfg.NotificationStream != "" {
		delivery = append(delivery, notify.NewRedisStream(store.Redis, cfg.NotificationStream))
	}
	async := notify.NewAsync(delivery, log, 5*time.Second)

	engine := proposals.New(proposals.Deps{
		Store:          store,
		Members:        store,
		Groups:         store,
		Quorum:         proposals.GroupQuorum{Groups: store, Default: cfg.QuorumPercent},
		Notifier:       async,
		Logger:         log.Named("proposals"),
		ReminderWindow: cfg.ReminderWindow,
	})

	groupSvc := groups.NewService(store)
	secret := []byte(cfg.JWTSecret)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	var limiter *middleware.RateLimiter
	if cfg.VoteRateLimit > 0 {
		limiter = middleware.NewRateLimiter(ctx, cfg.VoteRateLimit, cfg.VoteRateWindow)
	}
	api.RegisterRoutes(router, api.RouteConfig{
		JWTSecret:   secret,
		CORSOrigins: cfg.CORSOrigins,
		VoteLimiter: limiter,
		Logger:      log.Named("http"),
	}, api.Handlers{
		Auth:      api.NewAuthHandler(users.NewService(store), secret, cfg.TokenTTL, log),
		Groups:    controller.NewGroupHandler(groupSvc, log),
		Proposals: controller.NewProposalHandler(engine, groupSvc, log),
		Ledger:    controller.NewLedgerHandler(ledger.NewService(store), groupSvc, log),
		Store:     store,
	})

	return &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		engine:   engine,
		router:   router,
		notifier: async,
		sweeper:  sweeper.New(engine, cfg.SweepInterval, log),
	}
}

func (a *App) Handler() http.Handler { return a.router }

// Run serves HTTP and sweeps until ctx is cancelled, then drains in-flight
// requests and notifications and closes the store.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sweeper.Run(sweepCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", zap.String("addr", srv.Addr), zap.String("store", a.cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", zap.Error(err))
	}
	stopSweep()
	wg.Wait()
	a.notifier.Wait()
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	return runErr
}
