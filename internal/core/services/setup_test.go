package services_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evaluation/internal/adapters/cache"
	"github.com/vncsmyrnk/evaluation/internal/adapters/events"
	"github.com/vncsmyrnk/evaluation/internal/adapters/realtime"
	"github.com/vncsmyrnk/evaluation/internal/adapters/storage"
	"github.com/vncsmyrnk/evaluation/internal/adapters/token"
	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
	"github.com/vncsmyrnk/evaluation/internal/core/services"
	"github.com/vncsmyrnk/evaluation/internal/testutil/memstore"
)

type testApp struct {
	ctx     context.Context
	store   *memstore.Store
	bus     *events.Bus
	hub     *realtime.Hub
	cache   *cache.MemoryCache
	logHook *test.Hook

	authz     *authz.Evaluator
	auth      *services.AuthService
	users     ports.UserService
	domains   services.DomainService
	clients   ports.ClientService
	surveys   ports.SurveyService
	questions ports.QuestionService
	images    ports.ImageService
	votes     ports.VoteService
	results   ports.ResultService
	notifier  *services.Notifier
}

var seq atomic.Int64

// setupApp wires every service on top of the in-memory store, with the
// lifecycle bus running the same subscribers as the server.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	log, hook := test.NewNullLogger()
	bus := events.NewBus(log)
	store := memstore.New(bus)

	files, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080", "/static/images")
	require.NoError(t, err)

	codec := token.NewJWTCodec("test-secret", time.Hour)
	memCache := cache.NewMemoryCache()
	evaluator := authz.NewEvaluator(authz.NewResolver(store.Domains, store.Clients, store.Surveys, store.Questions))
	versions := services.NewVersions(store.Versions, store.Votes, store.Surveys, store.Questions)
	answers := services.NewAnswerStore(memCache, time.Hour)
	hub := realtime.NewHub()

	app := &testApp{
		ctx:     context.Background(),
		store:   store,
		bus:     bus,
		hub:     hub,
		cache:   memCache,
		logHook: hook,
		authz:   evaluator,
	}
	app.auth = services.NewAuthService(store.Users, store.Clients, codec, nil, memCache, services.AuthConfig{ClientCacheTime: time.Hour})
	app.users = services.NewUserService(store.Users, codec, evaluator)
	app.domains = services.NewDomainService(store.Domains, store.Surveys, store.Questions, store.Users, memCache, time.Hour, evaluator)
	app.clients = services.NewClientService(store.Clients, store.Domains, store.Users, codec, answers, evaluator)
	app.surveys = services.NewSurveyService(store.Surveys, store.Questions, store.Images, versions, evaluator)
	app.questions = services.NewQuestionService(store.Surveys, store.Questions, store.Images, versions, evaluator)
	app.images = services.NewImageService(store.Images, files, evaluator)
	app.votes = services.NewVoteService(store.Domains, store.Surveys, store.Questions, store.Votes, versions, answers)
	app.results = services.NewSummaryService(store.Versions, store.Votes, versions, evaluator)
	app.notifier = services.NewNotifier(hub, app.auth, store.Domains, store.Clients, evaluator, log)

	cascade := services.NewCascade(services.CascadeDeps{
		Images:    store.Images,
		Storage:   files,
		Questions: store.Questions,
		Domains:   store.Domains,
		Clients:   store.Clients,
	}, log)
	bus.Subscribe("cascade", cascade.Handle)
	bus.Subscribe("principals", app.auth.HandleEvent)
	bus.Subscribe("questions", app.domains.HandleEvent)
	bus.Subscribe("notifier", app.notifier.HandleEvent)
	bus.Start()
	t.Cleanup(bus.Close)

	return app
}

// settle waits for the cascade and the notifier to catch up.
func (a *testApp) settle() {
	a.bus.Flush()
}

func (a *testApp) admin(t *testing.T) domain.Principal {
	t.Helper()
	user, err := a.store.Users.Create(a.ctx, domain.User{
		Email:   fmt.Sprintf("admin-%d@example.com", seq.Add(1)),
		Name:    "Admin",
		IsAdmin: true,
	})
	require.NoError(t, err)
	return domain.AdminPrincipal(user.ID)
}

// user signs up a new user and resolves its principal from the issued token.
func (a *testApp) user(t *testing.T, name string) (domain.User, domain.Principal) {
	t.Helper()
	session, err := a.users.CreateUser(a.ctx, ports.CreateUserInput{
		Name:     name,
		Email:    fmt.Sprintf("%s-%d@example.com", strings.ToLower(name), seq.Add(1)),
		Password: "secret-password",
	})
	require.NoError(t, err)
	p, err := a.auth.Principal(a.ctx, session.Token)
	require.NoError(t, err)
	return session.User, p
}

func (a *testApp) survey(t *testing.T, p domain.Principal, types ...domain.QuestionType) domain.Survey {
	t.Helper()
	survey, err := a.surveys.CreateSurvey(a.ctx, p, ports.CreateSurveyInput{
		Title:    "Customer satisfaction",
		Types:    types,
		IsActive: true,
	})
	require.NoError(t, err)
	return survey
}

func (a *testApp) question(t *testing.T, p domain.Principal, surveyID string, qt domain.QuestionType) domain.Question {
	t.Helper()
	q, err := a.questions.CreateQuestion(a.ctx, p, surveyID, ports.CreateQuestionInput{
		Value: "How was it?",
		Type:  qt,
	})
	require.NoError(t, err)
	return q
}

func (a *testApp) choice(t *testing.T, p domain.Principal, questionID, code string) domain.Choice {
	t.Helper()
	c, err := a.questions.CreateChoice(a.ctx, p, questionID, ports.ChoiceInput{Code: code, Label: "Option " + code})
	require.NoError(t, err)
	return c
}

// image seq distinct bytes on every call so that no two seq share
// a stored file.
func (a *testApp) image(t *testing.T, p domain.Principal, surveyID string) domain.Image {
	t.Helper()
	n := seq.Add(1)
	img, err := a.images.UploadImage(a.ctx, p, ports.UploadImageInput{
		Name:        fmt.Sprintf("image-%d.png", n),
		ContentType: "image/png",
		Body:        strings.NewReader(fmt.Sprintf("png-%d", n)),
		Survey:      &surveyID,
	})
	require.NoError(t, err)
	return img
}

func (a *testApp) defaultImage(t *testing.T) domain.Image {
	t.Helper()
	img, err := a.store.Images.Insert(a.ctx, domain.Image{
		Name: "like.png",
		Type: "image/png",
		URL:  "http://localhost:8080/static/images/default/like.png",
	})
	require.NoError(t, err)
	return img
}

func (a *testApp) fetchable(imageID string) bool {
	_, err := a.store.Images.Get(a.ctx, ports.ImageFilter{IDs: []string{imageID}}, domain.Page{})
	return err == nil
}

// liveDomain creates a domain owned by p whose active survey is surveyID.
func (a *testApp) liveDomain(t *testing.T, p domain.Principal, surveyID string) domain.Domain {
	t.Helper()
	d, err := a.domains.CreateDomain(a.ctx, p, ports.CreateDomainInput{Name: "Front desk"})
	require.NoError(t, err)
	d, err = a.domains.UpdateDomain(a.ctx, p, d.ID, domain.DomainPatch{ActiveSurvey: domain.Some(surveyID)})
	require.NoError(t, err)
	return d
}

func (a *testApp) temporaryClient(t *testing.T, domainID string) (ports.ClientSession, domain.Principal) {
	t.Helper()
	session, err := a.clients.CreateTemporaryClient(a.ctx, domainID)
	require.NoError(t, err)
	p, err := a.auth.Principal(a.ctx, session.Token)
	require.NoError(t, err)
	return session, p
}
