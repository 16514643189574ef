package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BearBump/LogiTrack/config"
	trackapi "github.com/BearBump/LogiTrack/internal/api/track_api"
	"github.com/BearBump/LogiTrack/internal/broker/changefeed"
	"github.com/BearBump/LogiTrack/internal/broker/kafka"
	"github.com/BearBump/LogiTrack/internal/cache"
	"github.com/BearBump/LogiTrack/internal/cache/filecache"
	"github.com/BearBump/LogiTrack/internal/cache/rediscache"
	"github.com/BearBump/LogiTrack/internal/cache/snapshot"
	"github.com/BearBump/LogiTrack/internal/events"
	"github.com/BearBump/LogiTrack/internal/integrations/store"
	"github.com/BearBump/LogiTrack/internal/integrations/store/restv1"
	"github.com/BearBump/LogiTrack/internal/mapview"
	"github.com/BearBump/LogiTrack/internal/services/lookup"
	"github.com/BearBump/LogiTrack/internal/services/orders"
	"github.com/BearBump/LogiTrack/internal/services/refresher"
	"github.com/BearBump/LogiTrack/internal/trackview"
)

type trackAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    trackAPIOpts
	deps    trackAPIDeps
	closers []func() error
	views   *trackview.Registry
}

func mustBootstrapTrackAPI() *trackAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	slog.SetDefault(newLogger(cfg.LogiTrack.LogLevel))

	httpAddr := cfg.LogiTrack.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.OrdersChangedTopicName
	if topic == "" {
		topic = "orders.changed"
	}
	maxViews := cfg.LogiTrack.MaxViews
	if maxViews <= 0 {
		maxViews = 1000
	}

	app := &trackAPIApp{}

	settings := store.FromConfig(cfg.Store)
	settings.Audit(slog.Default())
	client := restv1.New(settings)

	bc, closeCache, err := newBytesCache(cfg)
	if err != nil {
		panic(err)
	}
	app.closers = append(app.closers, closeCache)

	hub := events.NewHub()
	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	feed := changefeed.New(hub, nil, topic)
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(brokers)
		app.closers = append(app.closers, producer.Close)
		feed = changefeed.New(hub, producer, topic)
	}

	svc := orders.New(client, snapshot.New(bc), feed)
	finder := lookup.NewFinder(svc)
	mapOpts := mapview.OptionsFromConfig(cfg.Map)
	app.views = trackview.NewRegistry(finder, hub, mapOpts, maxViews)

	var limiter trackapi.RateLimiter
	if cfg.Redis.Host != "" {
		rl := rediscache.NewRateLimiter(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.DB)
		app.closers = append(app.closers, rl.Close)
		limiter = rl
	}

	ref := refresher.New(svc, time.Duration(cfg.LogiTrack.SnapshotRefreshIntervalSeconds)*time.Second)

	api := trackapi.New(svc, finder, app.views, limiter, ref, trackapi.Options{
		AdminToken:           cfg.LogiTrack.AdminToken,
		SearchLimitPerMinute: int64(cfg.LogiTrack.SearchRateLimitPerMinute),
		MapOptions:           mapOpts,
	})

	app.deps = trackAPIDeps{api: api, refresher: ref, feed: feed}
	if cfg.Kafka.Enabled {
		// своя группа на инстанс: каждый инстанс должен увидеть все изменения
		consumer := kafka.NewConsumer(brokers, topic, "track-api-"+feed.Origin())
		app.closers = append(app.closers, consumer.Close)
		app.deps.consumer = consumer
	}

	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app.opts = trackAPIOpts{
		httpAddr:    httpAddr,
		swaggerPath: swaggerPath,
	}
	return app
}

func newBytesCache(cfg *config.Config) (cache.BytesCache, func() error, error) {
	switch cfg.Cache.Backend {
	case "", "redis":
		rc := rediscache.New(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.DB)
		return rc, rc.Close, nil
	case "file":
		dir := cfg.Cache.FileDir
		if dir == "" {
			dir = ".logitrack-cache"
		}
		fc, err := filecache.New(dir)
		if err != nil {
			return nil, nil, err
		}
		return fc, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func (a *trackAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.views != nil {
		a.views.CloseAll()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func (a *trackAPIApp) Run() error {
	return runTrackAPI(a.ctx, a.opts, a.deps)
}
