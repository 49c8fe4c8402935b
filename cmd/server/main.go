package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Briareos12/amiws-queue/internal/amiws"
	"github.com/Briareos12/amiws-queue/internal/api"
	"github.com/Briareos12/amiws-queue/internal/auth"
	"github.com/Briareos12/amiws-queue/internal/broadcast"
	"github.com/Briareos12/amiws-queue/internal/config"
	"github.com/Briareos12/amiws-queue/internal/ingest"
	"github.com/Briareos12/amiws-queue/internal/metrics"
	"github.com/Briareos12/amiws-queue/internal/publisher"
	"github.com/Briareos12/amiws-queue/internal/store"
	"github.com/Briareos12/amiws-queue/internal/websocket"
	"github.com/Briareos12/amiws-queue/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional, env vars apply either way)")
	flag.Parse()

	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.Server.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Server.Port).
		Int("upstreams", len(cfg.Upstreams)).
		Str("log_level", cfg.Server.LogLevel).
		Msg("starting amiws queue monitor")

	// Create the state store, the single source of truth
	st := store.New()

	// Create WebSocket hub for consumer fan-out
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional MQTT publisher
	var pub publisher.Publisher
	if cfg.MQTTEnabled() {
		mqttPub, err := publisher.NewMQTTPublisher(publisher.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			QoS:      1,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MQTT broker")
		}
		defer mqttPub.Close()
		pub = mqttPub
		log.Info().Str("broker", cfg.MQTT.Broker).Msg("MQTT publishing enabled")
	}

	// Start the snapshot broadcaster
	broadcaster := broadcast.New(st, hub, pub, cfg.MQTT.TopicPrefix, cfg.Server.BroadcastInterval, log.Logger)
	go broadcaster.Start(ctx)

	// Create the event classifier and one client per amiws upstream.
	// With a single upstream the whole graph is rebuilt from its replay
	// after a reconnect; with several, a reset would wipe state owned by
	// the healthy connections, so it is skipped.
	processor := ingest.NewProcessor(st, log.Logger)
	var onConnect func()
	if len(cfg.Upstreams) == 1 {
		onConnect = func() {
			st.ResetServers()
			st.ResetQueues()
		}
	}
	for _, up := range cfg.Upstreams {
		client := amiws.NewClient(up.Name, up.URL, processor, onConnect, log.Logger)
		go client.Run(ctx)
	}

	// Optional JWT validation on the consumer surface
	authn, err := auth.New(cfg.Auth.IssuerURL, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth")
	}

	// Create handlers
	apiHandler := api.NewHandler(st, log.Logger)
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authn.Middleware)
		r.Get("/ws", wsHandler.ServeHTTP)
		r.Route("/api", func(r chi.Router) {
			r.Get("/servers", apiHandler.Servers)
			r.Get("/queues", apiHandler.Queues)
			r.Get("/stats", apiHandler.Stats)
			r.Get("/selected", apiHandler.GetSelected)
			r.Put("/selected", apiHandler.SetSelected)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop upstream clients and the broadcaster
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"amiws-queue"}`)
}
