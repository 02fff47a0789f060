package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	relayService "github.com/draana/whatsbot/internal/service/relay"
)

// Handler exposes the inbound message webhook.
type Handler struct {
	relay *relayService.Service
}

// New creates the webhook handler.
func New(relay *relayService.Service) *Handler {
	return &Handler{relay: relay}
}

// RegisterRoutes registers the webhook endpoints. Z-API posts to /webhook;
// /on-new-message is kept as an alias for older instance configurations.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook", h.handleInbound)
	r.Post("/on-new-message", h.handleInbound)
}

// handleInbound acknowledges every structurally decodable payload with 200,
// whatever happened inside the pipeline. Signalling failure here would only
// trigger the provider's webhook retries and duplicate processing.
func (h *Handler) handleInbound(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch h.relay.Process(r.Context(), raw) {
	case relayService.OutcomeIgnored:
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	case relayService.OutcomeFailed:
		respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
	default:
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
