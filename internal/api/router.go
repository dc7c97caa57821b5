// ABOUTME: chi router wiring the HTTP transport's three endpoints
// ABOUTME: POST /mcp (JSON-RPC), GET /health, GET /stats
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/mcp", h.HandleMCP)
	r.Get("/health", h.HandleHealth)
	r.Get("/stats", h.HandleStats)

	return r
}
