package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/evaluation/internal/adapters/cache"
	"github.com/vncsmyrnk/evaluation/internal/adapters/events"
	"github.com/vncsmyrnk/evaluation/internal/adapters/handler/http"
	"github.com/vncsmyrnk/evaluation/internal/adapters/oauth/google"
	"github.com/vncsmyrnk/evaluation/internal/adapters/realtime"
	"github.com/vncsmyrnk/evaluation/internal/adapters/repository/mongo"
	"github.com/vncsmyrnk/evaluation/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/evaluation/internal/adapters/storage"
	"github.com/vncsmyrnk/evaluation/internal/adapters/token"
	"github.com/vncsmyrnk/evaluation/internal/config"
	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"github.com/vncsmyrnk/evaluation/internal/core/services"
	"github.com/vncsmyrnk/evaluation/internal/logger"
	"github.com/vncsmyrnk/evaluation/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	shutdownTracing, err := telemetry.Init(ctx, cfg.ServiceName, log)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	mongoClient, err := mongo.Connect(ctx, cfg.Mongo.URI())
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.Mongo.Database)
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	pg, err := postgres.Open(cfg.Postgres.DSN())
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := postgres.Migrate(pg); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.WithError(err).Warn("redis unavailable, using in-memory cache and broker")
		} else {
			defer redisClient.Close()
		}
	}
	memo := cache.New(ctx, redisClient)
	var broker ports.Broker = realtime.NewHub()
	if redisClient != nil {
		broker = realtime.NewRedisBroker(redisClient)
	}

	bus := events.NewBus(log)
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := events.NewKafkaSink(events.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			return err
		}
		defer sink.Close()
		bus.Subscribe("kafka", sink.Handle)
	}

	store := mongo.NewStore(db, bus)
	users := postgres.NewUserRepository(pg)
	votes := postgres.NewVoteRepository(pg)

	if err := os.MkdirAll(cfg.DefaultFolder, 0o755); err != nil {
		return fmt.Errorf("failed to create default image folder: %w", err)
	}
	staticDir := filepath.Dir(filepath.Clean(cfg.ImageFolder))
	files, err := storage.NewLocalStorage(cfg.ImageFolder, cfg.RootURL, path.Join("/static", filepath.Base(cfg.ImageFolder)))
	if err != nil {
		return err
	}

	codec := token.NewJWTCodec(cfg.JWTSecret, cfg.TokenTTL)
	evaluator := authz.NewEvaluator(authz.NewResolver(store.Domains, store.Clients, store.Surveys, store.Questions))
	versions := services.NewVersions(store.Versions, votes, store.Surveys, store.Questions)
	answers := services.NewAnswerStore(memo, cfg.ClientCacheTime)

	auth := services.NewAuthService(users, store.Clients, codec, google.NewVerifier(), memo, services.AuthConfig{
		GoogleClientID:  cfg.GoogleClientID,
		ClientCacheTime: cfg.ClientCacheTime,
	})
	domains := services.NewDomainService(store.Domains, store.Surveys, store.Questions, users, memo, cfg.QuestionCacheTime, evaluator)
	notifier := services.NewNotifier(broker, auth, store.Domains, store.Clients, evaluator, log)
	cascade := services.NewCascade(services.CascadeDeps{
		Images:    store.Images,
		Storage:   files,
		Questions: store.Questions,
		Domains:   store.Domains,
		Clients:   store.Clients,
	}, log)

	bus.Subscribe("cascade", cascade.Handle)
	bus.Subscribe("principals", auth.HandleEvent)
	bus.Subscribe("questions", domains.HandleEvent)
	bus.Subscribe("notifier", notifier.HandleEvent)
	bus.Start()
	defer bus.Close()

	handler := http.NewHandler(http.Services{
		Auth:      auth,
		Users:     services.NewUserService(users, codec, evaluator),
		Domains:   domains,
		Clients:   services.NewClientService(store.Clients, store.Domains, users, codec, answers, evaluator),
		Surveys:   services.NewSurveyService(store.Surveys, store.Questions, store.Images, versions, evaluator),
		Questions: services.NewQuestionService(store.Surveys, store.Questions, store.Images, versions, evaluator),
		Images:    services.NewImageService(store.Images, files, evaluator),
		Votes:     services.NewVoteService(store.Domains, store.Surveys, store.Questions, votes, versions, answers),
		Results:   services.NewSummaryService(store.Versions, votes, versions, evaluator),
		Notifier:  notifier,
		Authz:     evaluator,
	}, http.Config{
		CORSOrigins: cfg.CORSOrigins,
		StaticDir:   staticDir,
		Middlewares: []func(stdhttp.Handler) stdhttp.Handler{telemetry.HTTPMiddleware(cfg.ServiceName)},
	}, log)

	server := &stdhttp.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
