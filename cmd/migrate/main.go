// migrate applies the embedded PostgreSQL schema.
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/SeptianSamdany/interview-prep-ai/internal/database"
	"github.com/SeptianSamdany/interview-prep-ai/internal/logger"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log, err := logger.NewLogger(env)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck
	sugar := log.Sugar()

	if err := database.Migrate(os.Getenv("DATABASE_URL"), *direction); err != nil {
		if errors.Is(err, database.ErrNoChange) {
			sugar.Infow("schema already up to date", "direction", *direction)
			return
		}
		sugar.Fatalw("migration failed", "direction", *direction, "error", err)
	}
	sugar.Infow("migration applied", "direction", *direction)
}
