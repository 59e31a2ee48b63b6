package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/cart"
	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/catalog"
	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/checkout"
	h "github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/http"
	"github.com/tboniifacio/Restaurante-Sabor-Vivo/internal/storage"
)

type Config struct {
	HTTPPort          string
	DataDir           string
	RedisAddr         string
	RedisPassword     string
	CatalogDB         string
	CatalogMigrations string
	PaymentDelay      time.Duration
	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DataDir:           getEnv("DATA_DIR", "./data"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		CatalogDB:         getEnv("CATALOG_DB", ""),
		CatalogMigrations: getEnv("CATALOG_MIGRATIONS", "./internal/catalog/migrations"),
		PaymentDelay:      getEnvDuration("PAYMENT_DELAY_MS", 1600*time.Millisecond),
		RequestTimeout:    30 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
		log.Printf("ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slot := newSlot(ctx, cfg)
	store := cart.NewStore(slot)
	go store.Watch(ctx)

	provider, cleanup := newCatalog(cfg)
	defer cleanup()

	gateway := checkout.NewBreakerGateway(checkout.NewSimulatedGateway(cfg.PaymentDelay, nil))
	service := checkout.NewService(store, gateway)

	router := h.NewRouter(
		h.NewCartHandler(store),
		h.NewCatalogHandler(provider),
		h.NewCheckoutHandler(service),
		h.NewEventsHandler(store),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     otelhttp.NewHandler(router, "storefront"),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("storefront listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down storefront...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("storefront stopped")
}

// newSlot picks the cart persistence backend: redis when configured, a
// watched file on disk otherwise, plain memory as the last resort.
func newSlot(ctx context.Context, cfg *Config) storage.Slot {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable at %s, falling back to file storage: %v", cfg.RedisAddr, err)
		} else {
			log.Printf("cart persisted to redis at %s", cfg.RedisAddr)
			return storage.NewRedisSlot(client, "saborvivo:cart")
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Printf("cannot create data dir %s, cart will not survive restarts: %v", cfg.DataDir, err)
		return storage.NewMemorySlot()
	}

	slot, err := storage.NewFileSlot(filepath.Join(cfg.DataDir, "cart.json"))
	if err != nil {
		log.Printf("file storage unavailable, cart will not survive restarts: %v", err)
		return storage.NewMemorySlot()
	}

	log.Printf("cart persisted to %s", filepath.Join(cfg.DataDir, "cart.json"))
	return slot
}

// newCatalog serves the menu from sqlite when CATALOG_DB is set, from the
// built-in list otherwise.
func newCatalog(cfg *Config) (catalog.Provider, func()) {
	if cfg.CatalogDB == "" {
		return catalog.NewStaticProvider(catalog.Menu()), func() {}
	}

	provider, err := catalog.NewSQLiteProvider(cfg.CatalogDB)
	if err != nil {
		log.Printf("sqlite catalog unavailable, using built-in menu: %v", err)
		return catalog.NewStaticProvider(catalog.Menu()), func() {}
	}

	if err := provider.RunMigrations(cfg.CatalogMigrations); err != nil {
		log.Printf("catalog migrations failed, using built-in menu: %v", err)
		provider.Close()
		return catalog.NewStaticProvider(catalog.Menu()), func() {}
	}

	log.Printf("catalog served from %s", cfg.CatalogDB)
	return provider, func() { provider.Close() }
}
