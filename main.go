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

	"github.com/isdelr/blogpress/internal/api"
	"github.com/isdelr/blogpress/internal/auth"
	"github.com/isdelr/blogpress/internal/config"
	"github.com/isdelr/blogpress/internal/database"
	"github.com/isdelr/blogpress/internal/logger"
	"github.com/isdelr/blogpress/internal/monitoring"
	"github.com/isdelr/blogpress/internal/services"
	"github.com/isdelr/blogpress/internal/session"
	"github.com/isdelr/blogpress/internal/view"
	"github.com/isdelr/blogpress/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up session signing keys and storage
	keys := make([]auth.Key, 0, len(cfg.SessionKeys))
	for _, k := range cfg.SessionKeys {
		keys = append(keys, auth.Key{ID: k.ID, Secret: []byte(k.Secret)})
	}
	keyring, err := auth.NewKeyring(keys)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build session keyring")
	}

	var store session.Store
	switch cfg.SessionBackend {
	case config.BackendRedis:
		redisStore, err := session.NewRedisStore(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis session store")
		}
		defer redisStore.Close()
		store = redisStore
	default:
		store = session.NewSQLStore(db)
	}
	sessions := session.NewManager(store, keyring, session.Options{
		CookieName: cfg.SessionCookieName,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.IsProduction(),
	})
	log.Info().Str("backend", cfg.SessionBackend).Str("active_key", keyring.ActiveKeyID()).Msg("Sessions configured")

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(db, eventService)
	articleService := services.NewArticleService(db, eventService)
	commentService := services.NewCommentService(db, eventService)

	// Set up and run the background session sweeper
	sweeper, err := monitoring.NewSessionSweeper(store, cfg.SessionSweepSpec)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule session sweeper")
	}
	sweeper.Start()

	renderer, err := view.NewTemplates()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load templates")
	}

	// Set up router
	router := api.NewRouter(sessions, renderer, hub, db, userService, articleService, commentService, eventService, cfg.AllowedOrigins)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}
