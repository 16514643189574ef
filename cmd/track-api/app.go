package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/BearBump/LogiTrack/internal/broker/changefeed"
)

type trackAPIOpts struct {
	httpAddr    string
	swaggerPath string

	onListen func(httpAddr string)
}

type routesProvider interface {
	Routes() chi.Router
}

type snapshotRefresher interface {
	Run(ctx context.Context) error
}

type trackAPIDeps struct {
	api       routesProvider
	refresher snapshotRefresher
	feed      *changefeed.Feed
	consumer  changefeed.Consumer // nil: only local changes
}

func runTrackAPI(ctx context.Context, opts trackAPIOpts, deps trackAPIDeps) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	if deps.refresher != nil {
		go func() {
			if err := deps.refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("snapshot refresher stopped", "error", err.Error())
			}
		}()
	}
	if deps.feed != nil && deps.consumer != nil {
		go func() {
			if err := deps.feed.Listen(ctx, deps.consumer); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("change feed stopped", "error", err.Error())
			}
		}()
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, newRouter(deps.api, opts.swaggerPath))
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
}

func newRouter(api routesProvider, swaggerPath string) http.Handler {
	r := chi.NewRouter()
	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, swaggerPath)
	})

	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))

	r.Mount("/", api.Routes())
	return r
}

func runHTTPServer(ctx context.Context, lis net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	err := srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
