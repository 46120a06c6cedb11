package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/relaygate/relaygate/internal/auth"
	"github.com/relaygate/relaygate/internal/probe"
)

// Routes holds the collaborator handlers behind each protected prefix.
// Their business logic (files, chat, terminal) lives behind the backend;
// the dispatcher only routes and gates.
type Routes struct {
	Files    http.Handler
	File     http.Handler
	Chat     http.Handler
	Terminal http.Handler
}

// Handler dispatches the gateway's inbound HTTP surface: an open health
// check, the gated /api/* prefixes, and the gated diagnostic endpoint.
type Handler struct {
	mux    *http.ServeMux
	prober *probe.Prober
}

// New builds the dispatcher. token is the inbound bearer token the gate
// checks; every /api/* prefix passes through the gate, /health does not.
// The prefixes are disjoint by construction, so first-match needs no
// precedence rules.
func New(token string, routes Routes, prober *probe.Prober) http.Handler {
	h := &Handler{mux: http.NewServeMux(), prober: prober}
	gate := auth.Middleware(token)

	h.mux.HandleFunc("/health", h.health)
	h.mux.Handle("/api/files", gate(routes.Files))
	h.mux.Handle("/api/files/", gate(routes.Files))
	h.mux.Handle("/api/file", gate(routes.File))
	h.mux.Handle("/api/file/", gate(routes.File))
	h.mux.Handle("/api/chat", gate(routes.Chat))
	h.mux.Handle("/api/chat/", gate(routes.Chat))
	h.mux.Handle("/api/terminal", gate(routes.Terminal))
	h.mux.Handle("/api/terminal/", gate(routes.Terminal))
	h.mux.Handle("/api/diag", gate(http.HandlerFunc(h.diag)))

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// health returns GET /health — gateway liveness, no credential required.
// Orchestration systems probe this, so it must stay open regardless of the
// gate configuration.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// diag returns GET /api/diag — runs the probe synchronously and returns its
// report. Always 200: step failures are described inside the report, never
// escalated to an HTTP error. The response must not be cached.
func (h *Handler) diag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	// The probe enforces its own per-step timeouts; this ceiling only
	// guards against a misconfigured probe hanging the endpoint.
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	rep := h.prober.Run(ctx)
	w.Header().Set("Cache-Control", "no-store")
	jsonResp(w, http.StatusOK, rep)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
