package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

// Services bundles everything the API delegates to.
type Services struct {
	Auth      ports.AuthService
	Users     ports.UserService
	Domains   ports.DomainService
	Clients   ports.ClientService
	Surveys   ports.SurveyService
	Questions ports.QuestionService
	Images    ports.ImageService
	Votes     ports.VoteService
	Results   ports.ResultService
	Notifier  ports.NotifierService
	Authz     *authz.Evaluator
}

type Config struct {
	CORSOrigins []string
	// StaticDir is served under /static when set.
	StaticDir string
	// Middlewares wrap the whole router, outermost first.
	Middlewares []func(http.Handler) http.Handler
}

type Handler struct {
	svc     Services
	origins []string
	log     logrus.FieldLogger
}

func NewHandler(svc Services, cfg Config, log logrus.FieldLogger) http.Handler {
	h := &Handler{svc: svc, origins: cfg.CORSOrigins, log: log}

	r := chi.NewRouter()
	for _, mw := range cfg.Middlewares {
		r.Use(mw)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("welcome"))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(h.guard(authz.OpLogin)).Post("/login", h.Login)
			r.With(h.guard(authz.OpLoginWithGoogle)).Post("/google", h.LoginWithGoogle)
			r.With(h.guard(authz.OpLoginClient)).Post("/client", h.LoginClient)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.guard(authz.OpCreateUser)).Post("/", h.CreateUser)
			r.With(h.guard(authz.OpUsers)).Get("/", h.ListUsers)
			r.With(h.guard(authz.OpUserAmount)).Get("/amount", h.UserAmount)
			r.With(h.guard(authz.OpUser)).Get("/me", h.GetMe)
			r.With(h.guard(authz.OpUser)).Get("/{id}", h.GetUser)
			r.With(h.guard(authz.OpUpdateUser)).Patch("/{id}", h.UpdateUser)
			r.With(h.guard(authz.OpDeleteUser)).Delete("/{id}", h.DeleteUser)
		})

		r.Route("/domains", func(r chi.Router) {
			r.With(h.guard(authz.OpDomains)).Get("/", h.ListDomains)
			r.With(h.guard(authz.OpDomainAmount)).Get("/amount", h.DomainAmount)
			r.With(h.guard(authz.OpCreateDomain)).Post("/", h.CreateDomain)
			r.Route("/{id}", func(r chi.Router) {
				r.With(h.guard(authz.OpDomain)).Get("/", h.GetDomain)
				r.With(h.guard(authz.OpUpdateDomain)).Patch("/", h.UpdateDomain)
				r.With(h.guard(authz.OpDeleteDomain)).Delete("/", h.DeleteDomain)
				r.With(h.guard(authz.OpSetDomainOwner)).Post("/owners", h.SetDomainOwner)
				r.With(h.guard(authz.OpRemoveDomainOwner)).Delete("/owners/{userID}", h.RemoveDomainOwner)
				r.With(h.guard(authz.OpActiveQuestion)).Get("/active-question", h.ActiveQuestion)
				r.With(h.guard(authz.OpSetState)).Put("/states", h.SetState)
				r.With(h.guard(authz.OpState)).Get("/states/{key}", h.GetState)
				r.With(h.guard(authz.OpRemoveState)).Delete("/states/{key}", h.RemoveState)
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.With(h.guard(authz.OpClients)).Get("/", h.ListClients)
			r.With(h.guard(authz.OpClientAmount)).Get("/amount", h.ClientAmount)
			r.With(h.guard(authz.OpCreatePermanentClient)).Post("/permanent", h.CreatePermanentClient)
			r.With(h.guard(authz.OpCreateTemporaryClient)).Post("/temporary", h.CreateTemporaryClient)
			r.Route("/{id}", func(r chi.Router) {
				r.With(h.guard(authz.OpClient)).Get("/", h.GetClient)
				r.With(h.guard(authz.OpUpdateClient)).Patch("/", h.UpdateClient)
				r.With(h.guard(authz.OpDeleteClient)).Delete("/", h.DeleteClient)
				r.With(h.guard(authz.OpSetClientOwner)).Post("/owners", h.SetClientOwner)
				r.With(h.guard(authz.OpRemoveClientOwner)).Delete("/owners/{userID}", h.RemoveClientOwner)
			})
		})

		r.Route("/surveys", func(r chi.Router) {
			r.With(h.guard(authz.OpSurveys)).Get("/", h.ListSurveys)
			r.With(h.guard(authz.OpSurveyAmount)).Get("/amount", h.SurveyAmount)
			r.With(h.guard(authz.OpCreateSurvey)).Post("/", h.CreateSurvey)
			r.Route("/{id}", func(r chi.Router) {
				r.With(h.guard(authz.OpSurvey)).Get("/", h.GetSurvey)
				r.With(h.guard(authz.OpUpdateSurvey)).Patch("/", h.UpdateSurvey)
				r.With(h.guard(authz.OpDeleteSurvey)).Delete("/", h.DeleteSurvey)
				r.With(h.guard(authz.OpSetSurveyPreviewImage)).Put("/preview-image", h.SetSurveyPreviewImage)
				r.With(h.guard(authz.OpRemoveSurveyPreviewImage)).Delete("/preview-image", h.RemoveSurveyPreviewImage)
				r.With(h.guard(authz.OpQuestions)).Get("/questions", h.ListQuestions)
				r.With(h.guard(authz.OpCreateQuestion)).Post("/questions", h.CreateQuestion)
				r.With(h.guard(authz.OpResults)).Get("/results", h.Results)
			})
		})

		r.Route("/questions/{id}", func(r chi.Router) {
			r.With(h.guard(authz.OpUpdateQuestion)).Patch("/", h.UpdateQuestion)
			r.With(h.guard(authz.OpDeleteQuestion)).Delete("/", h.DeleteQuestion)

			r.With(h.guard(authz.OpCreateItem)).Post("/items", h.CreateItem)
			r.With(h.guard(authz.OpUpdateItem)).Patch("/items/{nestedID}", h.UpdateItem)
			r.With(h.guard(authz.OpDeleteItem)).Delete("/items/{nestedID}", h.DeleteItem)
			r.With(h.guard(authz.OpSetItemImage)).Put("/items/{nestedID}/image", h.SetItemImage)
			r.With(h.guard(authz.OpRemoveItemImage)).Delete("/items/{nestedID}/image", h.RemoveItemImage)

			r.With(h.guard(authz.OpCreateLabel)).Post("/labels", h.CreateLabel)
			r.With(h.guard(authz.OpUpdateLabel)).Patch("/labels/{nestedID}", h.UpdateLabel)
			r.With(h.guard(authz.OpDeleteLabel)).Delete("/labels/{nestedID}", h.DeleteLabel)
			r.With(h.guard(authz.OpSetLabelImage)).Put("/labels/{nestedID}/image", h.SetLabelImage)
			r.With(h.guard(authz.OpRemoveLabelImage)).Delete("/labels/{nestedID}/image", h.RemoveLabelImage)

			r.With(h.guard(authz.OpCreateChoice)).Post("/choices", h.CreateChoice)
			r.With(h.guard(authz.OpUpdateChoice)).Patch("/choices/{nestedID}", h.UpdateChoice)
			r.With(h.guard(authz.OpDeleteChoice)).Delete("/choices/{nestedID}", h.DeleteChoice)
			r.With(h.guard(authz.OpSetChoiceImage)).Put("/choices/{nestedID}/image", h.SetChoiceImage)
			r.With(h.guard(authz.OpRemoveChoiceImage)).Delete("/choices/{nestedID}/image", h.RemoveChoiceImage)
		})

		r.Route("/images", func(r chi.Router) {
			r.With(h.guard(authz.OpImages)).Get("/", h.ListImages)
			r.With(h.guard(authz.OpUploadImage)).Post("/", h.UploadImage)
			r.With(h.guard(authz.OpDeleteImage)).Delete("/{id}", h.DeleteImage)
		})

		r.With(h.guard(authz.OpSetAnswer)).Put("/answers", h.SetAnswer)
		r.With(h.guard(authz.OpRemoveAnswer)).Delete("/answers/{questionID}", h.RemoveAnswer)

		r.Route("/votes", func(r chi.Router) {
			r.With(h.guard(authz.OpVotes)).Get("/", h.ListVotes)
			r.With(h.guard(authz.OpVoteAmount)).Get("/amount", h.VoteAmount)
		})

		// The credential of a subscription may arrive in connection_init, so
		// the notifier runs the checks once the socket is open.
		r.Get("/subscriptions/domains/{id}", h.subscribe(ports.TopicDomainUpdate))
		r.Get("/subscriptions/clients/{id}", h.subscribe(ports.TopicClientUpdate))
	})

	return r
}
