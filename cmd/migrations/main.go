package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/vncsmyrnk/evaluation/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/evaluation/internal/config"
	"github.com/vncsmyrnk/evaluation/internal/logger"
)

// migrations applies the embedded Postgres migrations. Usage:
//
//	migrations [up|down]
func main() {
	flag.Parse()
	direction := flag.Arg(0)
	if direction == "" {
		direction = "up"
	}

	_ = godotenv.Load()

	var cfg struct {
		Postgres  config.PostgresConfig
		LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
		LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	}
	if err := config.ParseEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := postgres.Open(cfg.Postgres.DSN())
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	switch direction {
	case "up":
		err = postgres.Migrate(db)
	case "down":
		err = postgres.Rollback(db)
	default:
		log.Fatalf("unknown direction %q, expected up or down", direction)
	}
	if err != nil {
		log.WithError(err).Fatalf("migration %s failed", direction)
	}
	log.WithField("direction", direction).Info("migrations applied")
}
