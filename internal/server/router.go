package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/harystyleseze/privexbot-kb/internal/api"
	"github.com/harystyleseze/privexbot-kb/internal/api/handlers"
	"github.com/harystyleseze/privexbot-kb/internal/api/middleware"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	ChunkingHandler *handlers.ChunkingHandler
	MetadataHandler *handlers.MetadataHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Element streams for large documents can run to a few megabytes.
	const maxBodyBytes int64 = 32 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireWorkspace)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Register)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
			r.Get("/{id}/elements-url", cfg.DocumentHandler.ElementsURL)

			r.Post("/{id}/chunk", cfg.ChunkingHandler.Chunk)
			r.Post("/{id}/rechunk", cfg.ChunkingHandler.Rechunk)
			r.Get("/{id}/chunks", cfg.ChunkingHandler.ListChunks)
			r.Post("/{id}/chunks/import", cfg.ChunkingHandler.ImportChunks)
		})

		r.Patch("/chunks/{id}", cfg.ChunkingHandler.UpdateChunk)

		r.Route("/metadata-fields", func(r chi.Router) {
			r.Post("/", cfg.MetadataHandler.Create)
			r.Get("/", cfg.MetadataHandler.List)
			r.Patch("/{id}", cfg.MetadataHandler.Update)
		})
	})

	return r
}
