// cmd/server/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/time/rate"

	"gymgate/internal/admin"
	"gymgate/internal/attendance"
	"gymgate/internal/config"
	"gymgate/internal/kiosk"
	"gymgate/internal/member"
	"gymgate/internal/quarantine"
	"gymgate/internal/rental"
	"gymgate/internal/telemetry"
	"gymgate/pkg/httpx"
	"gymgate/pkg/schedule"
	"gymgate/pkg/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "gymgate", cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		return err
	}

	location, err := time.LoadLocation(cfg.DisplayTimeZone)
	if err != nil {
		logger.Warn("unknown display timezone, using UTC", "tz", cfg.DisplayTimeZone)
		location = time.UTC
	}

	timers := schedule.NewTimers()
	defer timers.Shutdown()

	members := member.NewService(db, cfg.ExpiryWarningDays)
	ledger := attendance.NewService(db, cfg.SessionCap, timers, logger, location)
	lifecycle := quarantine.NewService(db, cfg.Retention, logger)
	rentals := rental.NewService(db)
	adminSvc := admin.NewService(db, cfg.JWTSecret, cfg.TokenTTL, logger)
	facade := kiosk.NewFacade(members, ledger, lifecycle, cfg.ExpiryWarningDays, location)

	if err := adminSvc.EnsureAdmin(ctx, cfg.DefaultAdminPassword); err != nil {
		return err
	}

	// Catch up on anything that went stale while the process was down,
	// then re-arm per-session timers for the sessions still open.
	if n, err := ledger.CloseStale(ctx); err != nil {
		logger.Error("startup sweep failed", "err", err)
	} else if n > 0 {
		logger.Info("startup sweep closed stale sessions", "count", n)
	}
	if err := ledger.RearmTimers(ctx); err != nil {
		logger.Error("re-arming timers failed, sweep will cover open sessions", "err", err)
	}

	schedule.Every(ctx, cfg.SweepInterval, "attendance", logger, func(ctx context.Context) {
		if n, err := ledger.CloseStale(ctx); err != nil {
			logger.Error("attendance sweep failed", "err", err)
		} else if n > 0 {
			logger.Info("attendance sweep closed sessions", "count", n)
		}
	})
	schedule.Every(ctx, cfg.PurgeInterval, "quarantine", logger, func(ctx context.Context) {
		if n, err := lifecycle.PurgeExpired(ctx); err != nil {
			logger.Error("quarantine purge failed", "err", err)
		} else if n > 0 {
			logger.Info("quarantine purge deleted members", "count", n)
		}
	})

	adminHandler := admin.NewHandler(adminSvc)
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.KioskRatePerMinute)), cfg.KioskRateBurst)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			httpx.RespondError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(r chi.Router) {
		r.Mount("/kiosk", kiosk.NewHandler(facade, limiter).Routes())
		r.Mount("/admin", adminHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(adminHandler.RequireAuth)
			r.Mount("/members", member.NewHandler(members, lifecycle).Routes())
			r.Mount("/checkins", attendance.NewHandler(ledger).Routes())
			r.Mount("/deleted-members", quarantine.NewHandler(lifecycle).Routes())
			r.Mount("/rentals", rental.NewHandler(rentals).Routes())
		})
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
