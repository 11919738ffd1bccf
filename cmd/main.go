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

	"github.com/bishop254/vts-backend/internal/analytics"
	"github.com/bishop254/vts-backend/internal/auth"
	"github.com/bishop254/vts-backend/internal/config"
	"github.com/bishop254/vts-backend/internal/db"
	"github.com/bishop254/vts-backend/internal/directions"
	"github.com/bishop254/vts-backend/internal/handlers"
	"github.com/bishop254/vts-backend/internal/ingest"
	"github.com/bishop254/vts-backend/internal/middleware"
	log "github.com/sirupsen/logrus"
)

const (
	connectTimeout  = 15 * time.Second
	shutdownTimeout = 15 * time.Second
	routesTimeout   = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

func run() error {
	configFile := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.ApplyLogging(); err != nil {
		return err
	}
	if err := config.Watch(configFile); err != nil {
		log.WithError(err).Warn("Config file watch disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	store, err := db.Open(connectCtx, cfg.Store)
	cancel()
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()

	ingestor := ingest.NewIngestor(store.Locations, store.Vehicles)
	if cfg.MQTT.BrokerURL != "" {
		subscriber := ingest.NewSubscriber(cfg.MQTT, ingestor)
		if err := subscriber.Start(); err != nil {
			return err
		}
		defer subscriber.Stop()
		log.WithFields(log.Fields{"broker": cfg.MQTT.BrokerURL, "topic": cfg.MQTT.Topic}).Info("MQTT ingestion enabled")
	}

	router, err := newRouter(cfg, store, ingestor)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newRouter(cfg *config.Config, store *db.Store, ingestor handlers.LocationIngester) (http.Handler, error) {
	authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		return nil, err
	}

	policy, err := analytics.ParseErrorPolicy(cfg.Fleet.ErrorPolicy)
	if err != nil {
		return nil, err
	}
	fleet := analytics.NewFleet(store.Locations, cfg.Fleet.Concurrency, policy)
	reports := analytics.NewService(store.Vehicles, fleet)

	routes := directions.NewClient(cfg.Routes.URL, cfg.Routes.APIKey, routesTimeout)
	if cfg.Routes.APIKey == "" {
		log.Warn("ROUTES_API_KEY not set, /vehicle/locations will fail")
	}

	return handlers.NewRouter(handlers.Routes{
		Users:      handlers.NewUserHandler(authService, store.Users),
		Vehicles:   handlers.NewVehicleHandler(store.Vehicles, store.Locations, ingestor, routes),
		Dashboard:  handlers.NewDashboardHandler(reports, cfg.Fleet.ReportTimeout),
		Auth:       middleware.NewAuthMiddleware(authService),
		RateLimits: middleware.NewRateLimitMiddleware(cfg.HTTP.TrustProxy),
		CORS:       middleware.NewCORSMiddleware(cfg.HTTP.CORSAllowedOrigins),
	}), nil
}
