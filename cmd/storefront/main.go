package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mcheros/storefront/internal/catalog"
	"github.com/mcheros/storefront/internal/checkout"
	h "github.com/mcheros/storefront/internal/http"
	"github.com/mcheros/storefront/internal/session"
)

type Config struct {
	HTTPPort        string
	BackendURL      string
	RedisAddr       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	SessionTTL      time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:8000"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SessionTTL:      session.DefaultTTL,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "storefront").Logger()

	// Product cache is optional; without Redis every catalog load goes upstream
	var productCache catalog.ProductCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		productCache = catalog.NewRedisCache(redisClient)
	}

	catalogClient := catalog.NewClient(cfg.BackendURL, cfg.RequestTimeout, productCache, logger)
	orderClient := checkout.NewOrderClient(cfg.BackendURL, cfg.RequestTimeout)

	visitors := session.NewStore(cfg.SessionTTL)
	defer visitors.Close()

	productsHandler := h.NewProductsHandler(catalogClient, cfg.RequestTimeout)
	cartHandler := h.NewCartHandler(catalogClient)
	checkoutHandler := h.NewCheckoutHandler(orderClient, cfg.RequestTimeout, logger)

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.RequestIDMiddleware)
	r.Use(h.SessionMiddleware(visitors))

	r.Get("/api/products", productsHandler.ListProducts)

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Post("/items", cartHandler.AddItem)
		r.Delete("/items/{product_id}", cartHandler.RemoveItem)
	})

	r.Route("/api/checkout", func(r chi.Router) {
		r.Post("/", checkoutHandler.BeginCheckout)
		r.Get("/", checkoutHandler.GetCheckout)
		r.Put("/form", checkoutHandler.UpdateForm)
		r.Post("/submit", checkoutHandler.Submit)
	})

	r.Get("/checkout/success", checkoutHandler.Confirmation)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: otelhttp.NewHandler(r, "storefront"),
	}

	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.BackendURL).Msg("storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
