package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BearBump/LogiTrack/config"
	"github.com/BearBump/LogiTrack/internal/cache"
	"github.com/BearBump/LogiTrack/internal/cache/filecache"
	"github.com/BearBump/LogiTrack/internal/cache/rediscache"
	"github.com/BearBump/LogiTrack/internal/cache/snapshot"
	"github.com/BearBump/LogiTrack/internal/integrations/store"
	"github.com/BearBump/LogiTrack/internal/integrations/store/restv1"
	"github.com/BearBump/LogiTrack/internal/mapview"
	"github.com/BearBump/LogiTrack/internal/models"
	"github.com/BearBump/LogiTrack/internal/services/lookup"
	"github.com/BearBump/LogiTrack/internal/services/orders"
	"github.com/BearBump/LogiTrack/internal/trackview"
)

const help = `Enter a shipment code to track it.
  :refresh        repeat the last search
  :notifications  list notifications
  :quit           exit`

type notificationsFunc func(ctx context.Context) []*models.Notification

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	// логи в stderr, чтобы не мешать выводу карточки
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	settings := cliSettings(cfg.Store)
	settings.Audit(slog.Default())
	client := restv1.New(settings)

	bc, err := cliCache(cfg)
	if err != nil {
		panic(err)
	}
	svc := orders.New(client, snapshot.New(bc), nil)
	view := trackview.New("cli", lookup.NewFinder(svc), mapview.OptionsFromConfig(cfg.Map))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	notifications := func(ctx context.Context) []*models.Notification {
		return svc.FetchNotifications(ctx, store.RoleCustomer)
	}
	if err := runShell(ctx, os.Stdin, os.Stdout, view, notifications); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}

// cliSettings drops the secret key: the cli only reads with the customer role.
func cliSettings(c config.StoreConfig) store.Settings {
	s := store.FromConfig(c)
	s.SecretKey = ""
	return s
}

// cliCache prefers the file backend: the cli usually runs without Redis.
func cliCache(cfg *config.Config) (cache.BytesCache, error) {
	if cfg.Cache.Backend == "redis" {
		return rediscache.New(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.DB), nil
	}
	dir := cfg.Cache.FileDir
	if dir == "" {
		dir = ".logitrack-cache"
	}
	return filecache.New(dir)
}

func runShell(ctx context.Context, in io.Reader, out io.Writer, view *trackview.View, notifications notificationsFunc) error {
	fmt.Fprintln(out, help)
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case ":quit", ":q":
			return nil
		case ":help":
			fmt.Fprintln(out, help)
			continue
		case ":notifications":
			list := notifications(ctx)
			if len(list) == 0 {
				fmt.Fprintln(out, "No notifications.")
			}
			for _, n := range list {
				fmt.Fprintf(out, "[%s] %s: %s\n", n.OrderCode, n.Title, n.Body)
			}
			continue
		case ":refresh":
			_ = view.Refresh(ctx)
		default:
			_ = view.Search(ctx, line)
		}
		if err := trackview.RenderText(out, view.State()); err != nil {
			return err
		}
	}
}
