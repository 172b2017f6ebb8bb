// Package app wires configuration, storage, use cases and the HTTP router
// together and runs the server until the context is canceled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vadimbarashkov/link-shortener/internal/config"
	"github.com/vadimbarashkov/link-shortener/internal/usecase"
	"github.com/vadimbarashkov/link-shortener/migrations"
	"github.com/vadimbarashkov/link-shortener/pkg/postgres"
	"github.com/vadimbarashkov/link-shortener/pkg/sqlite"
	"github.com/vadimbarashkov/link-shortener/pkg/tracing"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/link-shortener/internal/adapter/delivery/http"
	pgrepo "github.com/vadimbarashkov/link-shortener/internal/adapter/repository/postgres"
	sqliterepo "github.com/vadimbarashkov/link-shortener/internal/adapter/repository/sqlite"
)

const (
	serviceName    = "link-shortener"
	serviceVersion = "1.0.0"
)

func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	tp, shutdownTracing, err := tracing.New(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shutdown tracing", slog.Any("err", err))
		}
	}()

	db, linkRepo, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	logger.Info("store ready", slog.String("driver", cfg.Storage.Driver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, cfg.Storage.Driver),
	)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        NewHandler(cfg, logger, linkRepo, reg, tp.Tracer(serviceName)),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server started", slog.String("addr", server.Addr), slog.Bool("tls", cfg.HTTPServer.TLS()))

		var err error

		if cfg.HTTPServer.TLS() {
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// NewHandler builds the full HTTP handler on top of linkRepo. HTTP metrics are
// registered on reg.
func NewHandler(
	cfg *config.Config,
	logger *httplog.Logger,
	linkRepo usecase.LinkRepository,
	reg *prometheus.Registry,
	tracer trace.Tracer,
) http.Handler {
	linkUseCase := usecase.New(
		linkRepo,
		usecase.WithMaxRetries(cfg.Links.MaxRetries),
		usecase.WithQueryTimeout(cfg.Links.QueryTimeout),
		usecase.WithClickTimeout(cfg.Links.ClickTimeout),
		usecase.WithTracer(tracer),
		usecase.WithReservedCodes(delivery.ReservedCodes()...),
	)

	return delivery.NewRouter(logger, linkUseCase, cfg.AllowedOrigins, delivery.NewMetrics(reg))
}

// openStore connects to the configured store, brings its schema up to date and
// returns the pool together with the repository built on it.
func openStore(ctx context.Context, cfg *config.Config) (*sqlx.DB, usecase.LinkRepository, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		if err := sqlite.RunMigrations(migrations.SQLite, "sqlite", cfg.SQLite.Path); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		db, err := sqlite.New(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		return db, sqliterepo.NewLinkRepository(db), nil
	default:
		dsn := cfg.Postgres.DSN()

		db, err := postgres.New(
			ctx,
			dsn,
			postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := postgres.RunMigrations(migrations.Postgres, "postgres", dsn); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return db, pgrepo.NewLinkRepository(db), nil
	}
}
