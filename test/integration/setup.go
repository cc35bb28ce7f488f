package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	mongodb "go.mongodb.org/mongo-driver/mongo"

	"github.com/vncsmyrnk/evaluation/internal/adapters/cache"
	"github.com/vncsmyrnk/evaluation/internal/adapters/events"
	handler "github.com/vncsmyrnk/evaluation/internal/adapters/handler/http"
	"github.com/vncsmyrnk/evaluation/internal/adapters/realtime"
	"github.com/vncsmyrnk/evaluation/internal/adapters/repository/mongo"
	repo "github.com/vncsmyrnk/evaluation/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/evaluation/internal/adapters/storage"
	"github.com/vncsmyrnk/evaluation/internal/adapters/token"
	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"github.com/vncsmyrnk/evaluation/internal/core/services"
)

const googleClientID = "test-client-id"

type TestApp struct {
	DB         *sql.DB
	Mongo      *mongodb.Database
	Server     *httptest.Server
	Client     *http.Client
	Results    ports.ResultService
	Bus        *events.Bus
	containers []testcontainers.Container
}

// MockVerifier accepts "valid_token" as a google credential for email.
type MockVerifier struct {
	email string
}

func (v *MockVerifier) Verify(_ context.Context, credential string, clientID string) (*ports.TokenPayload, error) {
	if credential == "valid_token" && clientID == googleClientID {
		return &ports.TokenPayload{Email: v.email, Name: "Google User"}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}
	return pgContainer, connStr, nil
}

func setupMongoContainer(ctx context.Context) (testcontainers.Container, string, error) {
	mongoContainer, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		return nil, "", fmt.Errorf("failed to start mongo container: %w", err)
	}
	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		return nil, "", err
	}
	return mongoContainer, uri, nil
}

// setupTestApp runs the whole API against real Postgres and Mongo
// containers, wired the same way as cmd/server.
func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()
	app := &TestApp{}

	pgContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)
	app.containers = append(app.containers, pgContainer)

	app.DB, err = repo.Open(dbURL)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(app.DB))

	mongoContainer, mongoURI, err := setupMongoContainer(ctx)
	require.NoError(t, err)
	app.containers = append(app.containers, mongoContainer)

	mongoClient, err := mongo.Connect(ctx, mongoURI)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mongoClient.Disconnect(context.Background()) })
	app.Mongo = mongoClient.Database("evaluation")
	require.NoError(t, mongo.EnsureIndexes(ctx, app.Mongo))

	log, _ := test.NewNullLogger()
	app.Bus = events.NewBus(log)
	store := mongo.NewStore(app.Mongo, app.Bus)
	users := repo.NewUserRepository(app.DB)
	votes := repo.NewVoteRepository(app.DB)

	files, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:3000", "/static/images")
	require.NoError(t, err)

	memo := cache.NewMemoryCache()
	codec := token.NewJWTCodec("test-secret", time.Hour)
	evaluator := authz.NewEvaluator(authz.NewResolver(store.Domains, store.Clients, store.Surveys, store.Questions))
	versions := services.NewVersions(store.Versions, votes, store.Surveys, store.Questions)
	answers := services.NewAnswerStore(memo, time.Hour)

	auth := services.NewAuthService(users, store.Clients, codec, &MockVerifier{email: "test@example.com"}, memo, services.AuthConfig{
		GoogleClientID:  googleClientID,
		ClientCacheTime: time.Hour,
	})
	domains := services.NewDomainService(store.Domains, store.Surveys, store.Questions, users, memo, time.Minute, evaluator)
	notifier := services.NewNotifier(realtime.NewHub(), auth, store.Domains, store.Clients, evaluator, log)
	cascade := services.NewCascade(services.CascadeDeps{
		Images:    store.Images,
		Storage:   files,
		Questions: store.Questions,
		Domains:   store.Domains,
		Clients:   store.Clients,
	}, log)
	app.Results = services.NewSummaryService(store.Versions, votes, versions, evaluator)

	app.Bus.Subscribe("cascade", cascade.Handle)
	app.Bus.Subscribe("principals", auth.HandleEvent)
	app.Bus.Subscribe("questions", domains.HandleEvent)
	app.Bus.Subscribe("notifier", notifier.HandleEvent)
	app.Bus.Start()

	router := handler.NewHandler(handler.Services{
		Auth:      auth,
		Users:     services.NewUserService(users, codec, evaluator),
		Domains:   domains,
		Clients:   services.NewClientService(store.Clients, store.Domains, users, codec, answers, evaluator),
		Surveys:   services.NewSurveyService(store.Surveys, store.Questions, store.Images, versions, evaluator),
		Questions: services.NewQuestionService(store.Surveys, store.Questions, store.Images, versions, evaluator),
		Images:    services.NewImageService(store.Images, files, evaluator),
		Votes:     services.NewVoteService(store.Domains, store.Surveys, store.Questions, votes, versions, answers),
		Results:   app.Results,
		Notifier:  notifier,
		Authz:     evaluator,
	}, handler.Config{CORSOrigins: []string{"*"}}, log)

	app.Server = httptest.NewServer(router)
	app.Client = app.Server.Client()
	return app
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.Bus.Close()
	app.DB.Close()
	for _, c := range app.containers {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
}
