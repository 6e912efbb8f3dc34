package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"dev.acmcsuf.com/ledfx"
	"dev.acmcsuf.com/ledfx/internal/config"
	"dev.acmcsuf.com/ledfx/internal/mqtt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"
)

var (
	configPath    = "ledfx.yml"
	httpAddr      = "0.0.0.0:9000"
	httpAdminAddr = "127.0.0.1:9002"
	verbose       = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "YAML config file")
	pflag.StringVarP(&httpAddr, "http-addr", "a", httpAddr, "HTTP server address")
	pflag.StringVarP(&httpAdminAddr, "http-admin-addr", "A", httpAdminAddr, "HTTP admin server address")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05 PM", // extended time.Kitchen
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger, level); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger, level slog.Level) error {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, exit := context.WithCancelCause(ctx)
	defer exit(nil)

	hw, err := openHardware(cfg, func() { exit(ledfx.ErrExit) }, logger)
	if err != nil {
		return err
	}
	defer hw.Close()

	mirror := ledfx.NewMirror(hw.strip)

	effects, err := newEffects(cfg, mirror)
	if err != nil {
		return err
	}

	var publisher *mqtt.Publisher
	if cfg.MQTT.Broker != "" {
		publisher, err = mqtt.New(mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, logger.With("component", "mqtt"))
		if err != nil {
			return err
		}
		defer publisher.Close()
	}

	var (
		server *ledfx.Server
		events *eventsHandler
	)

	dispatcher, err := ledfx.NewDispatcher(ledfx.DispatcherOpts{
		Effects:   effects,
		Host:      hw.host,
		Logger:    logger.With("component", "dispatcher"),
		QueueSize: cfg.QueueSize,
		OnChange: func(state ledfx.State) {
			server.BroadcastState(state)
			events.broadcast(state)
			if publisher != nil {
				publisher.Publish(state)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	server = ledfx.NewServer(ledfx.ServerOpts{
		Controller: dispatcher,
		Frames:     mirror,
		Logger:     logger.With("component", "server"),
	})

	events = newEventsHandler(dispatcher, mirror, logger.With("component", "events"))

	buttons, err := hw.buttons(dispatcher)
	if err != nil {
		return err
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return dispatcher.Run(ctx)
	})

	if buttons != nil {
		errg.Go(func() error {
			return buttons.Run(ctx)
		})
	}

	errg.Go(func() error {
		httpLogger := httplog.NewLogger("ledfxd", httplog.Options{
			LogLevel: level,
			Concise:  true,
		})

		r := chi.NewRouter()
		r.Use(httplog.RequestLogger(httpLogger))
		r.Get("/ws", server.ServeHTTP)
		r.Get("/events", events.ServeHTTP)
		r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, dispatcher.State())
		})

		logger.Info(
			"starting public HTTP server",
			"addr", httpAddr)

		return hserve.ListenAndServe(ctx, httpAddr, r)
	})

	errg.Go(func() error {
		admin := newAdminHandler(dispatcher, server)

		logger.Info(
			"starting admin HTTP server",
			"addr", httpAdminAddr)

		return hserve.ListenAndServe(ctx, httpAdminAddr, admin)
	})

	err = errg.Wait()
	switch {
	case errors.Is(err, ledfx.ErrExit):
		logger.Info("exiting to host")
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}
