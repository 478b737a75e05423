package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"gamenight-backend/internal/config"
	"gamenight-backend/internal/events"
	"gamenight-backend/internal/friends"
	"gamenight-backend/internal/games"
	"gamenight-backend/internal/notify"
	"gamenight-backend/internal/telemetry"
	"gamenight-backend/internal/users"
)

const (
	serviceName = "gamenight-backend"
	version     = "0.1.0"
)

func main() {
	addr := pflag.String("addr", "", "listen address (overrides HTTP_ADDR)")
	migrateOnly := pflag.Bool("migrate-only", false, "migrate the database and exit")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	log := cfg.NewLogger(os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log, *migrateOnly); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, migrateOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("tracer shutdown", "error", err)
		}
	}()

	db, err := InitDB(cfg, log)
	if err != nil {
		return err
	}
	if migrateOnly {
		return nil
	}

	var pub notify.Publisher = notify.Nop{}
	if cfg.RabbitURL != "" {
		amqpPub, err := notify.NewAMQPPublisher(cfg.RabbitURL, cfg.EventsExchange)
		if err != nil {
			return err
		}
		defer amqpPub.Close()
		pub = amqpPub
		log.Info("publishing notifications", "exchange", cfg.EventsExchange)
	}

	api := &API{
		Events:          events.New(db, events.WithLogger(log), events.WithPublisher(pub)),
		Friends:         friends.New(db, log, pub),
		Users:           users.New(db, log),
		Games:           games.New(db),
		Tokens:          NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Log:             log,
		IntegrationKeys: cfg.IntegrationAPIKeys,
		Version:         version,
	}

	r := gin.Default()
	r.Use(CORSMiddleware(cfg.CORSOrigins))
	SetupRoutes(r, api)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
