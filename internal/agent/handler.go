package agent

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/zeon-hybrid/internal/api"
	"github.com/ashureev/zeon-hybrid/internal/identity"
	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20 // 1MB

const (
	errMessageRequired = "message field is required (also accepts: text, content, query)"
	errInitializing    = "Service Unavailable: Agent is initializing. Please try again in a moment."
	errProcessFailed   = "Failed to process message"
	errRateLimited     = "rate limit exceeded"
)

// ProcessingTimeHeader carries the turn duration in milliseconds.
const ProcessingTimeHeader = "X-Processing-Time"

var (
	messageFields = []string{"message", "text", "content", "query"}
	sessionFields = []string{"sessionId", "session_id", "userId", "user_id", "id"}
	walletFields  = []string{"wallet", "walletAddress"}
)

// HandlerConfig tunes the chat handler.
type HandlerConfig struct {
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	MaxRequestBodySize int64
}

// Handler serves the chat endpoints.
type Handler struct {
	agent       *Service
	rateLimiter *RateLimiter
	log         ConversationLogger
	maxBodySize int64
}

// NewHandler creates a chat handler. A nil logger discards transcripts.
func NewHandler(svc *Service, conversationLogger ConversationLogger, cfg HandlerConfig) *Handler {
	if conversationLogger == nil {
		conversationLogger = noopConversationLogger{}
	}
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = 30
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	return &Handler{
		agent:       svc,
		rateLimiter: NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		log:         conversationLogger,
		maxBodySize: cfg.MaxRequestBodySize,
	}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.HandleChat)
	r.Post("/api/message", h.HandleChat)
}

// HandleChat handles POST /api/chat and POST /api/message.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := firstString(body, messageFields...)
	if message == "" {
		api.JSON(w, http.StatusBadRequest, map[string]any{
			"error":    errMessageRequired,
			"received": body,
		})
		return
	}

	sessionID, generated := identity.Resolve(firstString(body, sessionFields...), identity.SessionIDFromContext(r.Context()))
	if generated {
		slog.Info("Generated session id", "session_id", sessionID)
	}
	wallet := identity.WalletFromContext(r.Context())
	if wallet == "" {
		wallet = firstString(body, walletFields...)
	}

	if !h.agent.Ready() {
		api.Error(w, http.StatusServiceUnavailable, errInitializing)
		return
	}

	limitKey := wallet
	if limitKey == "" {
		limitKey = identity.IPFromRequest(r)
	}
	if !h.rateLimiter.Allow(limitKey) {
		api.Error(w, http.StatusTooManyRequests, errRateLimited)
		return
	}

	reqID := chiMiddleware.GetReqID(r.Context())
	slog.Info("Chat request",
		"session_id", sessionID,
		"request_id", reqID,
		"message_length", len(message),
	)
	h.logMessage(wallet, sessionID, "inbound", "chat_user_message", message, map[string]any{
		"request_id": reqID,
		"path":       r.URL.Path,
	})

	start := time.Now()
	resp, err := h.agent.HandleMessage(r.Context(), sessionID, wallet, message)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		switch CodeOf(err) {
		case CodeNotReady:
			api.Error(w, http.StatusServiceUnavailable, errInitializing)
		case CodeInvalidInput:
			api.JSON(w, http.StatusBadRequest, map[string]any{"error": errMessageRequired, "received": body})
		default:
			slog.Error("Error handling chat message", "session_id", sessionID, "error", err)
			api.Error(w, http.StatusInternalServerError, errProcessFailed)
		}
		return
	}

	h.logMessage(wallet, sessionID, "outbound", "chat_assistant_message", resp.Response, map[string]any{
		"request_id":         reqID,
		"processing_time_ms": elapsed,
		"tools_used":         resp.ToolsUsed,
	})

	w.Header().Set(ProcessingTimeHeader, strconv.FormatInt(elapsed, 10)+"ms")
	api.JSON(w, http.StatusOK, chatReply{
		Response: resp.Response,
		Reply:    payload.ReplyFor(resp.Response),
		Metadata: chatMetadata{
			ProcessingTime: elapsed,
			SessionID:      sessionID,
			Timestamp:      time.Now().UTC(),
			ToolsUsed:      resp.ToolsUsed,
		},
	})
}

func (h *Handler) logMessage(wallet, sessionID, direction, eventType, content string, meta map[string]any) {
	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		UserID:     wallet,
		SessionID:  sessionID,
		Channel:    "chat_http",
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta:       meta,
	})
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.rateLimiter.Stop()
	if h.log != nil {
		if err := h.log.Close(); err != nil {
			slog.Warn("failed to close conversation logger", "error", err)
		}
	}
}

// GetService returns the underlying agent service.
func (h *Handler) GetService() *Service {
	return h.agent
}

// firstString returns the first non-empty value among keys. Numbers are
// accepted for id-like fields.
func firstString(body map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := body[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
