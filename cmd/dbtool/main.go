package main

import (
	"os"
	"strings"

	"eco-route-engine/internal/adapters/cache"
	"eco-route-engine/internal/platform/db"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// dbtool initializes the Postgres geocode cache schema for deployments
// using the shared cache backend.
func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		logrus.Fatal("DATABASE_URL is required")
	}

	sqlDB, err := db.OpenPostgres(databaseURL)
	if err != nil {
		logrus.Fatal(err)
	}
	defer sqlDB.Close()

	logrus.Info("Initializing geocode cache schema...")
	if err := cache.InitPostgresSchema(sqlDB); err != nil {
		logrus.Fatalf("schema initialization failed: %v", err)
	}
	logrus.Info("Schema ready.")
}
