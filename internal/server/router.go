package server

import (
	"net/http"

	"github.com/brandpulse-ai/brandpulse/internal/api"
	"github.com/brandpulse-ai/brandpulse/internal/api/handlers"
	"github.com/brandpulse-ai/brandpulse/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	APIKeys         []string
	CampaignHandler *handlers.CampaignHandler
	PipelineHandler *handlers.PipelineHandler
	ChatHandler     *handlers.ChatHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.APIKeys))

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", cfg.CampaignHandler.Create)
			r.Get("/", cfg.CampaignHandler.List)
			r.Get("/{id}", cfg.CampaignHandler.Get)
			r.Put("/{id}", cfg.CampaignHandler.Update)
			r.Delete("/{id}", cfg.CampaignHandler.Delete)
		})

		r.Route("/pipeline", func(r chi.Router) {
			r.Post("/run", cfg.PipelineHandler.Trigger)
			r.Get("/runs", cfg.PipelineHandler.ListRuns)
			r.Get("/runs/{id}", cfg.PipelineHandler.GetRun)
		})

		r.Post("/chat", cfg.ChatHandler.Chat)
	})

	return r
}
