package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/llm-admin-be/internal/api/handlers"
	"github.com/isdelr/llm-admin-be/internal/services"
	"github.com/isdelr/llm-admin-be/internal/websocket"
	"github.com/isdelr/llm-admin-be/web"
)

// Services bundles the service layer the router dispatches to.
type Services struct {
	Users         services.UserServiceProvider
	LLMs          services.LLMServiceProvider
	Prompts       services.PromptServiceProvider
	PromptHistory services.PromptHistoryServiceProvider
	Evaluations   services.EvaluationServiceProvider
}

// Options tunes the middleware stack.
type Options struct {
	AllowedOrigins []string
	// PromptRateLimit is requests per minute per client on the endpoints that call
	// providers (POST /prompts and POST /test-prompt); 0 disables it.
	PromptRateLimit int
}

// NewRouter creates and configures a new Chi router.
func NewRouter(db *sql.DB, hub *websocket.Hub, svc Services, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(svc.Users)
	llmHandler := handlers.NewLLMHandler(svc.LLMs)
	promptHandler := handlers.NewPromptHandler(svc.Prompts)
	historyHandler := handlers.NewPromptHistoryHandler(svc.PromptHistory)
	evaluationHandler := handlers.NewEvaluationHandler(svc.Evaluations)
	wsHandler := handlers.NewWebSocketHandler(hub, opts.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler(db)

	limited := func(r chi.Router) chi.Router { return r }
	if opts.PromptRateLimit > 0 {
		limiter := NewRateLimiter(opts.PromptRateLimit)
		limited = func(r chi.Router) chi.Router { return r.With(limiter.Middleware) }
	}

	routes := func(r chi.Router) {
		r.Get("/ws", wsHandler.Serve)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.GetAll)
			r.Post("/", userHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.Get)
				r.Put("/", userHandler.Update)
				r.Delete("/", userHandler.Delete)
				r.Post("/toggle", userHandler.Toggle)
			})
		})

		r.Route("/llms", func(r chi.Router) {
			r.Get("/", llmHandler.GetAll)
			r.Post("/", llmHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", llmHandler.Get)
				r.Put("/", llmHandler.Update)
				r.Delete("/", llmHandler.Delete)
				r.Post("/toggle", llmHandler.Toggle)
				r.Get("/config", llmHandler.GetConfig)
				r.Put("/config", llmHandler.SaveConfig)
				r.Post("/config/reset", llmHandler.ResetConfig)
			})
		})

		r.Route("/prompts", func(r chi.Router) {
			r.Get("/", promptHandler.GetAll)
			limited(r).Post("/", promptHandler.Submit)
		})

		limited(r).Post("/test-prompt", evaluationHandler.TestPrompt)

		r.Route("/prompt-history", func(r chi.Router) {
			r.Get("/", historyHandler.List)
			r.Post("/", historyHandler.Create)
			r.Get("/stats/overview", historyHandler.Stats)
			r.Post("/bulk-delete", historyHandler.BulkDelete)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", historyHandler.Get)
				r.Delete("/", historyHandler.Delete)
				r.Post("/feedback", historyHandler.Feedback)
			})
		})
	}

	r.Get("/healthz", healthHandler.Check)

	// The same API is reachable unversioned and under /api/v1.
	r.Group(routes)
	r.Route("/api/v1", routes)

	dashboard := web.Handler()
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/dashboard/", http.StatusFound)
	})
	r.Handle("/dashboard", http.RedirectHandler("/dashboard/", http.StatusMovedPermanently))
	r.Handle("/dashboard/*", http.StripPrefix("/dashboard", dashboard))

	return r
}
