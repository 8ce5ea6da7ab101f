// The bridge server binary: serves the billing bridge over HTTP against the
// in-process sandbox provider. Deployments embedding a real provider binding
// swap the helper factory in wire().
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/myket-community/bridge-server/billing"
	bridgememory "github.com/myket-community/bridge-server/bridge/memory"
	"github.com/myket-community/bridge-server/bridge/web"
	"github.com/myket-community/bridge-server/iab"
	iabcache "github.com/myket-community/bridge-server/iab/cache"
	iabmemory "github.com/myket-community/bridge-server/iab/memory"
)

type config struct {
	Port               string
	Production         bool
	PackageName        string
	CatalogPath        string
	SkuCacheTTL        time.Duration
	CallTimeout        time.Duration
	EventBufferSize    int
	EventNotifyTimeout time.Duration
}

func loadConfig() config {
	_ = godotenv.Load()

	cfg := config{
		Port:               getEnv("BRIDGE_PORT", "8080"),
		Production:         getEnv("APP_ENV", "development") == "production",
		PackageName:        getEnv("PACKAGE_NAME", "com.example.sandbox"),
		CatalogPath:        getEnv("CATALOG_PATH", ""),
		SkuCacheTTL:        getDuration("SKU_CACHE_TTL", 0),
		CallTimeout:        getDuration("CALL_TIMEOUT", 30*time.Second),
		EventBufferSize:    64,
		EventNotifyTimeout: getDuration("EVENT_NOTIFY_TIMEOUT", 5*time.Second),
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

type catalogItem struct {
	Sku         string `json:"sku"`
	Type        string `json:"type"`
	Price       string `json:"price"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func seedCatalog(log *zap.Logger, helper *iabmemory.Helper, path string) {
	items := []catalogItem{
		{Sku: "gold_coin", Type: iab.ItemTypeInApp, Price: "20000", Title: "Gold coin", Description: "A single gold coin"},
		{Sku: "premium", Type: iab.ItemTypeSubs, Price: "150000", Title: "Premium", Description: "Monthly premium subscription"},
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatal("Failed to read catalog file", zap.String("path", path), zap.Error(err))
		}
		items = nil
		if err := json.Unmarshal(raw, &items); err != nil {
			log.Fatal("Failed to parse catalog file", zap.String("path", path), zap.Error(err))
		}
	}

	for _, item := range items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			log.Fatal("Invalid catalog price", zap.String("sku", item.Sku), zap.Error(err))
		}
		helper.AddCatalogItem(item.Sku, item.Type, price, item.Title, item.Description)
	}
	log.Info("Catalog seeded", zap.Int("items", len(items)))
}

func wire(log *zap.Logger, cfg config) (*billing.Server, *web.Server) {
	helper := iabmemory.NewHelper(cfg.PackageName)
	seedCatalog(log, helper, cfg.CatalogPath)

	factory := iabmemory.NewFactory(helper)
	if cfg.SkuCacheTTL > 0 {
		inner := factory
		factory = func(rsaPublicKey string) (iab.Helper, error) {
			h, err := inner(rsaPublicKey)
			if err != nil {
				return nil, err
			}
			return iabcache.NewCachingHelper(h, cfg.SkuCacheTTL), nil
		}
	}

	hub := web.NewEventHub(log, cfg.EventNotifyTimeout, cfg.EventBufferSize)
	srv := billing.NewServer(log, factory, hub, bridgememory.NewActivityProvider())

	registry := prometheus.NewRegistry()
	metrics := web.NewMetrics(registry)

	api := web.NewServer(log, srv, hub, metrics, registry, cfg.CallTimeout)
	return srv, api
}

func main() {
	cfg := loadConfig()

	var log *zap.Logger
	if cfg.Production {
		log = zap.Must(zap.NewProduction())
	} else {
		log = zap.Must(zap.NewDevelopment())
	}
	defer func() { _ = log.Sync() }()

	srv, api := wire(log, cfg)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("Bridge server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("Failed to shut down cleanly", zap.Error(err))
	}

	// Host teardown: the session must release the provider binding no
	// matter what was in flight.
	srv.OnHostDestroy()
}
