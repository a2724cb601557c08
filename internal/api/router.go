package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikhilbhutani/followuplab/internal/api/handlers"
	"github.com/nikhilbhutani/followuplab/internal/api/middleware"
	"github.com/nikhilbhutani/followuplab/internal/auth"
	"github.com/nikhilbhutani/followuplab/internal/catalog"
	"github.com/nikhilbhutani/followuplab/internal/config"
	"github.com/nikhilbhutani/followuplab/internal/experiment"
	"github.com/nikhilbhutani/followuplab/internal/llm"
	"github.com/nikhilbhutani/followuplab/internal/progress"
	"github.com/nikhilbhutani/followuplab/internal/store"
)

// Deps are the services the HTTP layer is built from. Queue may be nil, in
// which case runs execute inside the API process.
type Deps struct {
	Config    *config.Config
	Store     store.Store
	Generator experiment.Generator
	Gateway   llm.Gateway
	Tracker   *progress.Tracker
	Queue     handlers.Enqueuer
	Pingers   map[string]handlers.Pinger
	Logger    *slog.Logger
}

type Router struct {
	mux     *chi.Mux
	deps    Deps
	catalog *catalog.Catalog
	service *experiment.Service
	tokens  *auth.Tokens
	creds   auth.Credentials
}

func NewRouter(deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	cfg := deps.Config
	return &Router{
		mux:     chi.NewRouter(),
		deps:    deps,
		catalog: catalog.New(deps.Store, deps.Logger),
		service: experiment.NewService(deps.Store, deps.Generator, deps.Logger),
		tokens:  auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		creds:   auth.Credentials{Username: cfg.Auth.Username, Password: cfg.Auth.Password},
	}
}

// Setup mounts every route. The rate limiter's sweeper stops when ctx ends.
func (rt *Router) Setup(ctx context.Context) http.Handler {
	r := rt.mux
	cfg := rt.deps.Config

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	if cfg.Server.RateLimitRPS > 0 {
		rl := middleware.NewRateLimiter(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
		r.Use(rl.Limit)
	}

	health := handlers.NewHealthHandler(rt.deps.Pingers)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	authH := handlers.NewAuthHandler(rt.creds, rt.tokens)
	r.Post("/api/v1/login", authH.Login)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.tokens.Authenticate)

		r.Get("/session", authH.Session)

		llmH := handlers.NewLLMHandler(rt.deps.Gateway, cfg.LLM.DefaultModel)
		r.Get("/llm/models", llmH.Models)

		promptH := handlers.NewPromptHandler(rt.catalog, rt.deps.Store)
		questionH := handlers.NewQuestionHandler(rt.catalog, rt.deps.Store)
		experimentH := handlers.NewExperimentHandler(rt.catalog, rt.deps.Store, rt.service)
		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", promptH.Create)
			r.Get("/", promptH.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", promptH.Get)
				r.Put("/", promptH.Update)
				r.Delete("/", promptH.Delete)
				r.Post("/questions", questionH.Create)
				r.Get("/questions", questionH.List)
				r.Post("/experiments", experimentH.Create)
				r.Get("/experiments", experimentH.ListByPrompt)
			})
		})

		answerH := handlers.NewAnswerHandler(rt.catalog, rt.deps.Store)
		r.Route("/questions/{id}", func(r chi.Router) {
			r.Put("/", questionH.Update)
			r.Delete("/", questionH.Delete)
			r.Get("/answers", answerH.ListByQuestion)
			r.Put("/answers/{uid}", answerH.Put)
			r.Get("/answers/{uid}", answerH.Get)
		})

		userH := handlers.NewUserHandler(rt.catalog, rt.deps.Store)
		r.Route("/users", func(r chi.Router) {
			r.Post("/", userH.Create)
			r.Get("/", userH.List)
			r.Delete("/", userH.Clear)
			r.Post("/defaults", userH.SeedDefaults)
			r.Get("/{id}", userH.Get)
			r.Delete("/{id}", userH.Delete)
		})

		runH := handlers.NewRunHandler(rt.service, rt.deps.Store, rt.deps.Tracker, rt.deps.Queue, rt.deps.Logger)
		r.Route("/experiments", func(r chi.Router) {
			r.Get("/", experimentH.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", experimentH.Get)
				r.Delete("/", experimentH.Delete)
				r.Get("/cases", experimentH.Cases)
				r.Put("/cases", experimentH.Toggle)
				r.Post("/runs", runH.Start)
				r.Get("/results", experimentH.Results)
			})
		})
		r.Get("/runs/{runID}", runH.Get)
	})

	return r
}
