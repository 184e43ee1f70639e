package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	gsessions "github.com/gin-contrib/sessions/postgres"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for the session store

	"videoquiz/internal/api"
	"videoquiz/internal/api/handlers"
	"videoquiz/internal/app"
	"videoquiz/internal/config"
	"videoquiz/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if !cfg.EnvFileLoaded {
		log.Info(".env file not found, relying on system environment variables")
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	store, closeStore, err := newSessionStore(cfg, log)
	if err != nil {
		log.Error("failed to create session store", "error", err)
		os.Exit(1)
	}
	defer closeStore()
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		Secure:   cfg.Env == "prod",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := handlers.NewHandler(application.Pipeline, application.Notifier, log)
	api.SetupRoutes(router, handler, api.RouteConfig{
		APIToken:     cfg.APIToken,
		CORSOrigins:  cfg.CORSOrigins,
		SessionStore: store,
		Log:          log,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}

// newSessionStore uses Postgres when DATABASE_URL is set and signed cookies
// otherwise.
func newSessionStore(cfg *config.Config, log *logger.Logger) (sessions.Store, func(), error) {
	secret := []byte(cfg.SessionSecret)
	if cfg.DatabaseURL == "" {
		log.Info("using cookie session store")
		return cookie.NewStore(secret), func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	store, err := gsessions.NewStore(db, secret)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("using postgres session store")
	return store, func() { db.Close() }, nil
}
