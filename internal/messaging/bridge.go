package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/zeon-hybrid/internal/agent"
	"github.com/ashureev/zeon-hybrid/internal/identity"
	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	defaultTurnTimeout = 3 * time.Minute
	maxFrameBytes      = 1 << 20
)

// Frame types.
const (
	FrameMessage = "message"
	FramePing    = "ping"
	FrameEnd     = "end"

	FrameSession = "session"
	FrameReply   = "reply"
	FramePong    = "pong"
	FrameError   = "error"
)

// Responder answers chat turns.
type Responder interface {
	Ready() bool
	HandleMessage(ctx context.Context, sessionID, wallet, message string) (*agent.ChatResponse, error)
}

// Frame is one websocket message in either direction.
type Frame struct {
	Type      string         `json:"type"`
	Content   string         `json:"content,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Reply     *payload.Reply `json:"reply,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// BridgeConfig tunes the bridge.
type BridgeConfig struct {
	// OriginPatterns are host patterns accepted for cross-origin upgrades.
	OriginPatterns []string
	TurnTimeout    time.Duration
}

// Bridge serves GET /ws/chat. Each connection is one chat session; turns on
// a connection are answered in order.
type Bridge struct {
	agent         Responder
	conversations *Conversations
	log           agent.ConversationLogger
	cfg           BridgeConfig
}

// NewBridge creates a bridge. A nil logger discards transcripts.
func NewBridge(responder Responder, conversations *Conversations, logger agent.ConversationLogger, cfg BridgeConfig) *Bridge {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}
	if conversations == nil {
		conversations = NewConversations()
	}
	return &Bridge{agent: responder, conversations: conversations, log: logger, cfg: cfg}
}

// Conversations returns the live connection registry.
func (b *Bridge) Conversations() *Conversations {
	return b.conversations
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := identity.Resolve(identity.SessionIDFromContext(r.Context()), r.URL.Query().Get("session_id"))
	wallet := identity.WalletFromContext(r.Context())
	if wallet == "" {
		wallet = r.URL.Query().Get("wallet")
	}
	connID := uuid.NewString()
	slog.Info("Chat websocket request", "session_id", sessionID, "conn_id", connID, "ip", identity.IPFromRequest(r))

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: b.cfg.OriginPatterns,
	})
	if err != nil {
		slog.Warn("Failed to accept chat websocket", "error", err, "session_id", sessionID)
		return
	}
	ws.SetReadLimit(maxFrameBytes)
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "conversation ended"); closeErr != nil {
			slog.Debug("Failed to close chat websocket", "error", closeErr, "conn_id", connID)
		}
	}()

	b.conversations.Register(sessionID, ws)
	defer b.conversations.Unregister(sessionID, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := writeFrame(ctx, ws, Frame{Type: FrameSession, SessionID: sessionID}); err != nil {
		return
	}
	b.readLoop(ctx, ws, sessionID, wallet, connID)
	slog.Info("Chat websocket ended", "session_id", sessionID, "conn_id", connID)
}

func (b *Bridge) readLoop(ctx context.Context, ws *websocket.Conn, sessionID, wallet, connID string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("Chat websocket closed by client", "conn_id", connID)
			} else if ctx.Err() == nil {
				slog.Warn("Chat websocket read error", "error", err, "conn_id", connID)
			}
			return
		}

		var in Frame
		if err := json.Unmarshal(data, &in); err != nil {
			in = Frame{Type: FrameMessage, Content: string(data)}
		}

		switch in.Type {
		case FrameMessage, "":
			if err := b.turn(ctx, ws, sessionID, wallet, in.Content); err != nil {
				return
			}
		case FramePing:
			if err := writeFrame(ctx, ws, Frame{Type: FramePong}); err != nil {
				return
			}
		case FrameEnd:
			return
		default:
			if err := writeFrame(ctx, ws, Frame{Type: FrameError, Error: "unknown frame type " + in.Type}); err != nil {
				return
			}
		}
	}
}

// turn answers one message. The returned error is a write failure and ends
// the connection.
func (b *Bridge) turn(ctx context.Context, ws *websocket.Conn, sessionID, wallet, content string) error {
	if !b.agent.Ready() {
		return writeFrame(ctx, ws, Frame{Type: FrameError, Error: "Agent is initializing. Please try again in a moment."})
	}

	b.logEvent(wallet, sessionID, "inbound", "chat_user_message", content)

	turnCtx, cancel := context.WithTimeout(ctx, b.cfg.TurnTimeout)
	defer cancel()
	resp, err := b.agent.HandleMessage(turnCtx, sessionID, wallet, content)
	if err != nil {
		msg := "Failed to process message"
		if agent.CodeOf(err) == agent.CodeInvalidInput {
			msg = "message content is required"
		}
		return writeFrame(ctx, ws, Frame{Type: FrameError, Error: msg})
	}

	b.logEvent(wallet, sessionID, "outbound", "chat_assistant_message", resp.Response)
	reply := payload.ReplyFor(resp.Response)
	return writeFrame(ctx, ws, Frame{Type: FrameReply, Content: resp.Response, SessionID: sessionID, Reply: &reply})
}

func (b *Bridge) logEvent(wallet, sessionID, direction, eventType, content string) {
	if b.log == nil {
		return
	}
	b.log.Log(agent.ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		UserID:     wallet,
		SessionID:  sessionID,
		Channel:    "chat_ws",
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
	})
}

func writeFrame(ctx context.Context, ws *websocket.Conn, f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("Chat websocket write error", "error", err, "type", f.Type)
		return err
	}
	return nil
}
