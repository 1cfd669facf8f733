package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Interne packages
	"board-automator-api/internal/api"
	"board-automator-api/internal/automation"
	"board-automator-api/internal/config"
	"board-automator-api/internal/database"
	"board-automator-api/internal/logger"
	"board-automator-api/internal/observability"
	"board-automator-api/internal/store"
	"board-automator-api/internal/worker"

	// Externe packages
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// dbPool is what run needs from the connection pool. *pgxpool.Pool and pgxmock satisfy it.
type dbPool interface {
	database.TxQuerier
	Ping(ctx context.Context) error
}

// application bundelt de onderdelen die main start en stopt
type application struct {
	server  *http.Server
	scanner *worker.Scanner
	log     *zap.Logger
}

func main() {
	// 1. Laad configuratie (.env)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// 2. Initialiseer logger
	log, err := logger.NewLogger(logger.Options{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		panic("Could not initialize logger: " + err.Error()) // Can't log if logger fails
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Tracing
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		log.Error("could not set up tracing", zap.Error(err), zap.String("component", "main"))
		return
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err), zap.String("component", "main"))
		}
	}()

	// 4. Maak verbinding met de Database
	pool, err := database.ConnectDB(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("could not connect to the database", zap.Error(err), zap.String("component", "main"))
		return
	}
	defer pool.Close()

	app, err := run(ctx, cfg, log, pool)
	if err != nil {
		log.Error("could not start application", zap.Error(err), zap.String("component", "main"))
		return
	}

	if err := app.serve(ctx); err != nil {
		log.Error("server stopped with error", zap.Error(err), zap.String("component", "main"))
	}
}

// run wires the application without starting any goroutine.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger, pool dbPool) (*application, error) {
	if err := database.RunMigrations(ctx, pool, cfg.RunMigrations, log); err != nil {
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	dbStore := store.NewStore(pool)
	engine := automation.NewEngine(dbStore, log, automation.WithEventTimeout(cfg.AutomationEventTimeout))

	app := &application{log: log.With(zap.String("component", "main"))}

	if cfg.DueScan.Enabled {
		scanner, err := worker.NewScanner(dbStore, engine, worker.Config{
			Schedule:    cfg.DueScan.Schedule,
			Window:      cfg.DueScan.Window,
			BatchSize:   cfg.DueScan.BatchSize,
			Concurrency: cfg.DueScan.Concurrency,
			Timeout:     cfg.DueScan.Timeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("could not initialize scanner: %w", err)
		}
		app.scanner = scanner
	} else {
		log.Info("due-date scanner disabled", zap.String("component", "main"))
	}

	apiServer := api.NewServer(dbStore, engine, pool, api.Config{
		JWTSecretKey:   cfg.JWTSecretKey,
		AllowedOrigins: cfg.AllowedOrigins,
	}, log)

	app.server = &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      apiServer.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return app, nil
}

// serve start de scanner en de HTTP server en blokkeert tot ctx klaar is
func (a *application) serve(ctx context.Context) error {
	if a.scanner != nil {
		a.scanner.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting API server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if a.scanner != nil {
			<-a.scanner.Stop().Done()
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if a.scanner != nil {
		select {
		case <-a.scanner.Stop().Done():
		case <-shutdownCtx.Done():
			a.log.Warn("scanner did not finish before shutdown deadline")
		}
	}
	return err
}
