// Package identity provides per-conversation session identity primitives.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SessionHeaderName = "X-Zeon-Session-ID"
	WalletHeaderName  = "X-Zeon-Wallet"

	// DefaultSessionIDValue is the placeholder clients send when they have
	// no session yet. It is never used as a real session id.
	DefaultSessionIDValue = "default-session"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	walletKey
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// WithSessionID returns a copy of ctx carrying the session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext extracts the session ID from the context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithWallet returns a copy of ctx carrying the caller's connected wallet.
func WithWallet(ctx context.Context, wallet string) context.Context {
	return context.WithValue(ctx, walletKey, wallet)
}

// WalletFromContext extracts the connected wallet address from the context.
func WalletFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(walletKey).(string); ok {
		return v
	}
	return ""
}

// IsValidSessionID reports whether id can be used as-is, including as a
// file name under the memory directory.
func IsValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id) && id != "." && id != ".."
}

// Sanitize returns id when it is a valid session id. Other non-empty ids are
// mapped to a stable hashed form so the same client keeps its memory. Empty
// input yields "".
func Sanitize(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if IsValidSessionID(id) {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	return "h-" + hex.EncodeToString(sum[:])[:32]
}

// NewSessionID generates an id of the form session-<unix ms>-<9 chars>.
func NewSessionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session-%d-%s", time.Now().UnixMilli(), suffix)
}

// Resolve returns the first usable candidate after sanitation. The
// placeholder DefaultSessionIDValue does not count. When nothing is usable a
// new id is generated and generated is true.
func Resolve(candidates ...string) (id string, generated bool) {
	for _, c := range candidates {
		s := Sanitize(c)
		if s == "" || s == DefaultSessionIDValue {
			continue
		}
		return s, false
	}
	return NewSessionID(), true
}

func sessionIDFromRequest(r *http.Request) string {
	sid := r.Header.Get(SessionHeaderName)
	if sid == "" {
		sid = r.URL.Query().Get("session_id")
	}
	return Sanitize(sid)
}

// Middleware injects the per-request session ID and connected wallet, when
// the client provides them. Handlers that read a session id from the body
// fall back to Resolve.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sid := sessionIDFromRequest(r); sid != "" && sid != DefaultSessionIDValue {
			ctx = WithSessionID(ctx, sid)
		}
		if wallet := strings.TrimSpace(r.Header.Get(WalletHeaderName)); wallet != "" {
			ctx = WithWallet(ctx, wallet)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IPFromRequest returns a normalized remote IP for optional request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
