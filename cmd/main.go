package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/supdesk/relay-service/internal/auth"
	"github.com/supdesk/relay-service/internal/cache"
	"github.com/supdesk/relay-service/internal/config"
	"github.com/supdesk/relay-service/internal/directory"
	"github.com/supdesk/relay-service/internal/handler"
	"github.com/supdesk/relay-service/internal/kafka"
	"github.com/supdesk/relay-service/internal/registry"
	"github.com/supdesk/relay-service/internal/service"
	"github.com/supdesk/relay-service/internal/store"
	"github.com/supdesk/relay-service/pkg/database"
	"github.com/supdesk/relay-service/pkg/jwt"
	"github.com/supdesk/relay-service/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()
	l.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting relay service")

	tokens, err := jwt.NewManager(cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize token manager")
	}

	dir, err := buildDirectory(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize user directory")
	}

	msgStore, err := buildStore(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize message store")
	}
	l.Info().Str("driver", cfg.Store.Driver).Msg("message store ready")

	var msgCache cache.MessageCache
	if cfg.Cache.Enabled {
		msgCache, err = cache.NewRedisMessageCache(cfg.Cache)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize history cache")
		}
		l.Info().Str("address", cfg.Cache.Address).Msg("history cache ready")
	}

	var feed kafka.FeedProducer
	if cfg.Feed.Enabled {
		feed, err = kafka.NewConfluentProducer(cfg.Feed.Brokers, cfg.Feed.Topic, cfg.Feed.Partitions)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize feed producer")
		}
		l.Info().Str("brokers", cfg.Feed.Brokers).Str("topic", cfg.Feed.Topic).Msg("feed producer ready")
	}

	reg := registry.New()
	defer reg.Drain()

	authp := auth.NewDirectoryProvider(dir, tokens, cfg.Auth.DefaultCredential)

	relaySvc := service.NewRelayService(authp, reg, msgStore, dir, msgCache, feed)
	defer relaySvc.Close()

	wsHandler := handler.NewWSHandler(relaySvc, cfg.WebSocket)

	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("relay service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down relay service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("relay service stopped")
}

func buildDirectory(cfg *config.Config) (directory.UserDirectory, error) {
	switch cfg.Directory.Driver {
	case "memory":
		return directory.NewMemoryDirectory(), nil
	case "gorm":
		db, err := database.New(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return directory.NewGormDirectory(db)
	default:
		return nil, fmt.Errorf("unsupported directory driver: %s", cfg.Directory.Driver)
	}
}

func buildStore(cfg *config.Config) (store.MessageStore, error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemoryStore(cfg.Store.MachineID)
	case "cassandra":
		return store.NewCassandraStore(cfg.Store.Cassandra, cfg.Store.MachineID)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
