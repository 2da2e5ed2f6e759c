package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"eco-route-engine/internal/adapters/cache"
	"eco-route-engine/internal/adapters/route"
	"eco-route-engine/internal/api"
	"eco-route-engine/internal/config"
	"eco-route-engine/internal/platform/db"
	"eco-route-engine/internal/ports"
	"eco-route-engine/internal/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (geocode cache, ORS oracle) behind ports and
// starts the HTTP engine.
func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found (using environment variables)")
	}

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logrus.Fatal(err)
	}

	if strings.TrimSpace(cfg.ORS.APIKey) == "" {
		cfg.ORS.APIKey = os.Getenv("ORS_API_KEY")
	}
	if strings.TrimSpace(cfg.ORS.APIKey) == "" {
		logrus.Fatal("ORS api key is required (ors.api_key or ORS_API_KEY)")
	}

	geocodeCache, closeCache, err := openGeocodeCache(cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	defer closeCache()

	provider, err := route.NewORSRouteProvider(route.Options{
		APIKey:       cfg.ORS.APIKey,
		BaseURL:      cfg.ORS.BaseURL,
		Profile:      cfg.ORS.Profile,
		Timeout:      cfg.ORS.Timeout,
		MaxAttempts:  cfg.ORS.MaxAttempts,
		GeocodeCache: geocodeCache,
	})
	if err != nil {
		logrus.Fatal(err)
	}

	engine := services.NewEngine(provider, services.EngineConfig{
		EmissionFactor: cfg.Engine.EmissionFactor,
		LegConcurrency: cfg.Engine.LegConcurrency,
		FastestWeight:  cfg.Engine.FastestWeight,
		EcoWeight:      cfg.Engine.EcoWeight,
	})

	router := api.NewRouter(engine, provider, cfg.Engine.RequestTimeout)

	// Timeouts are tuned for cold-cache optimization (external API latency).
	logrus.WithField("addr", fmt.Sprintf(":%d", cfg.Port)).Info("server listening")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	logrus.Fatal(srv.ListenAndServe())
}

// openGeocodeCache selects the configured cache backend. Only geocoding is
// cached persistently; route legs are request-scoped on purpose.
func openGeocodeCache(cfg *config.Config) (ports.GeocodeCache, func(), error) {
	switch cfg.Cache.Backend {
	case "sqlite":
		sqlDB, err := db.OpenSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSqliteSchema(sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		return cache.NewSqliteGeocodeCache(sqlDB), func() { sqlDB.Close() }, nil

	case "postgres":
		sqlDB, err := db.OpenPostgres(cfg.Cache.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewPostgresGeocodeCache(sqlDB), func() { sqlDB.Close() }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		return cache.NewRedisGeocodeCache(client), func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
