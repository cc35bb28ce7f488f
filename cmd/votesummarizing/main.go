package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vncsmyrnk/evaluation/internal/adapters/events"
	"github.com/vncsmyrnk/evaluation/internal/adapters/repository/mongo"
	"github.com/vncsmyrnk/evaluation/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/evaluation/internal/config"
	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/services"
	"github.com/vncsmyrnk/evaluation/internal/logger"
)

// votesummarizing snapshots the tallies of every open survey version so
// result queries of long running surveys stay cheap.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, cfg.Mongo.URI())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to mongo")
	}
	defer mongoClient.Disconnect(context.Background())

	pg, err := postgres.Open(cfg.Postgres.DSN())
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer pg.Close()

	bus := events.NewBus(log)
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := events.NewKafkaSink(events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			log.WithError(err).Fatal("failed to create kafka sink")
		}
		defer sink.Close()
		bus.Subscribe("kafka", sink.Handle)
	}
	bus.Start()
	defer bus.Close()

	store := mongo.NewStore(mongoClient.Database(cfg.Mongo.Database), bus)
	votes := postgres.NewVoteRepository(pg)
	evaluator := authz.NewEvaluator(authz.NewResolver(store.Domains, store.Clients, store.Surveys, store.Questions))
	versions := services.NewVersions(store.Versions, votes, store.Surveys, store.Questions)
	results := services.NewSummaryService(store.Versions, votes, versions, evaluator)

	log.Info("starting vote summarization")
	if err := results.SummarizeOpenVersions(ctx); err != nil {
		log.WithError(err).Fatal("failed to summarize votes")
	}
	log.Info("vote summarization completed")
}
