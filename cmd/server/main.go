package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/handmade_market/internal/config"
	"github.com/Skotchmaster/handmade_market/internal/es"
	"github.com/Skotchmaster/handmade_market/internal/handlers"
	"github.com/Skotchmaster/handmade_market/internal/logging"
	"github.com/Skotchmaster/handmade_market/internal/models"
	"github.com/Skotchmaster/handmade_market/internal/mykafka"
	"github.com/Skotchmaster/handmade_market/internal/seed"
	"github.com/Skotchmaster/handmade_market/internal/service"
	"github.com/Skotchmaster/handmade_market/internal/service/search"
	"github.com/Skotchmaster/handmade_market/internal/session"
	httpserver "github.com/Skotchmaster/handmade_market/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	if err := seed.Run(db); err != nil {
		log.Fatalf("seed error: %v", err)
	}

	jwtSecret := []byte(cfg.JWTSecret)
	refreshSecret := []byte(cfg.RefreshSecret)

	prod, err := mykafka.NewProducer([]string{cfg.KafkaAddress})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		esClient = nil
	}
	if esClient != nil {
		var products []models.Product
		if err := db.Find(&products).Error; err == nil {
			if err := search.IndexCatalog(context.Background(), esClient, products); err != nil {
				logger.Warn("catalog indexing failed", "error", err)
			}
		}
	}

	var store session.Store
	if cfg.RedisAddr != "" {
		store = session.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}))
	} else {
		store = session.NewMemoryStore()
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		DB:              db,
		AuthHandler:     &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod},
		CatalogHandler:  &handlers.CatalogHandler{DB: db},
		CartHandler:     &handlers.CartHandler{DB: db, Producer: prod},
		CheckoutHandler: &handlers.CheckoutHandler{DB: db, Producer: prod},
		OrderHandler:    &handlers.OrderHandler{DB: db, Producer: prod},
		WishlistHandler: &handlers.WishlistHandler{DB: db, Producer: prod},
		SearchHandler:   &handlers.SearchHandler{ES: esClient},
		TokenService:    &service.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
		SessionStore:    store,
		SessionTTL:      cfg.SessionTTL,
		SecureCookies:   !cfg.Debug,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("listening", "port", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	} else {
		logger.Error("db handle error", "error", err)
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
