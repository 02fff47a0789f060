package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/draana/whatsbot/internal/handler/webhook"
	relayService "github.com/draana/whatsbot/internal/service/relay"
)

// NewRouter wires HTTP routes to the relay pipeline.
func NewRouter(relaySvc *relayService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", handleHealth)

	webhookHandler := webhook.New(relaySvc)
	webhookHandler.RegisterRoutes(r)

	return r
}

// handleHealth reports liveness; no side effects.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"message": "Servidor Dra. Ana rodando!",
	})
}
