package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/zeon-hybrid/internal/domain"
	"github.com/ashureev/zeon-hybrid/internal/store"
)

const (
	rootReady        = "✅ Zeon AI Agent is running and ready!"
	rootInitializing = "🟡 Zeon AI Agent is initializing... please wait."
)

// SessionCounter reports how many sessions and messages are held in memory.
type SessionCounter interface {
	Len() (sessions, messages int)
}

// StatusHandler serves the liveness, readiness and metrics endpoints.
type StatusHandler struct {
	ready    Readiness
	sessions SessionCounter
	ledger   store.Repository
	chain    func() bool
	logger   *slog.Logger
}

// NewStatusHandler creates a StatusHandler. sessions, ledger and chainReady
// may be nil.
func NewStatusHandler(ready Readiness, sessions SessionCounter, ledger store.Repository, chainReady func() bool, logger *slog.Logger) *StatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHandler{
		ready:    ready,
		sessions: sessions,
		ledger:   ledger,
		chain:    chainReady,
		logger:   logger,
	}
}

// RegisterRoutes mounts /, /health, /metrics and /cors-test.
func (h *StatusHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleRoot)
	r.Get("/health", h.HandleHealth)
	r.Get("/metrics", h.HandleMetrics)
	r.Get("/cors-test", h.HandleCORSTest)
}

// HandleRoot returns a plain-text readiness line.
func (h *StatusHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	msg := rootInitializing
	if h.ready.Ready() {
		msg = rootReady
	}
	_, _ = w.Write([]byte(msg))
}

type healthResponse struct {
	Status    string    `json:"status"`
	Agent     string    `json:"agent"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleHealth returns 200 once the agent is ready and 503 before.
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.ready.Ready() {
		JSON(w, http.StatusOK, healthResponse{Status: "healthy", Agent: "ready", Timestamp: time.Now().UTC()})
		return
	}
	JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "initializing", Agent: "not_ready", Timestamp: time.Now().UTC()})
}

type metricsResponse struct {
	ActiveSessions  int                       `json:"activeSessions"`
	ActiveAgents    int                       `json:"activeAgents"`
	MemorySize      int                       `json:"memorySize"`
	BlockchainReady bool                      `json:"blockchainReady"`
	Transactions    map[domain.TxStatus]int64 `json:"transactions,omitempty"`
	LedgerReachable bool                      `json:"ledgerReachable"`
	Timestamp       time.Time                 `json:"timestamp"`
}

// HandleMetrics reports in-memory session counts, chain readiness and the
// ledger's transaction counts.
func (h *StatusHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Ready() {
		Error(w, http.StatusServiceUnavailable, "Agent not ready")
		return
	}

	resp := metricsResponse{ActiveAgents: 1, Timestamp: time.Now().UTC()}
	if h.sessions != nil {
		resp.ActiveSessions, resp.MemorySize = h.sessions.Len()
	}
	if h.chain != nil {
		resp.BlockchainReady = h.chain()
	}
	if h.ledger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		counts, err := h.ledger.CountTransactions(ctx)
		if err != nil {
			h.logger.Warn("ledger counts unavailable", "error", err)
		} else {
			resp.Transactions = counts
			resp.LedgerReachable = true
		}
	}
	JSON(w, http.StatusOK, resp)
}

type corsTestResponse struct {
	Message   string            `json:"message"`
	Origin    string            `json:"origin"`
	Timestamp time.Time         `json:"timestamp"`
	Headers   map[string]string `json:"headers"`
}

// HandleCORSTest echoes the origin and the CORS headers already set on the
// response by the middleware.
func (h *StatusHandler) HandleCORSTest(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "no-origin"
	}
	JSON(w, http.StatusOK, corsTestResponse{
		Message:   "✅ CORS is working correctly!",
		Origin:    origin,
		Timestamp: time.Now().UTC(),
		Headers: map[string]string{
			"access-control-allow-origin":      w.Header().Get("Access-Control-Allow-Origin"),
			"access-control-allow-credentials": w.Header().Get("Access-Control-Allow-Credentials"),
		},
	})
}
