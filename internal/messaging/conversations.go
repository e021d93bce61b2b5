// Package messaging bridges long-lived chat connections to the agent.
package messaging

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Conversations tracks the live connection of each chat session. A newer
// connection for the same session replaces the older one.
type Conversations struct {
	mu     sync.RWMutex
	active map[string]*websocket.Conn
}

// NewConversations creates an empty registry.
func NewConversations() *Conversations {
	return &Conversations{active: make(map[string]*websocket.Conn)}
}

// Get returns the live connection for sessionID.
func (c *Conversations) Get(sessionID string) *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active[sessionID]
}

// Register records conn as the live connection for sessionID.
func (c *Conversations) Register(sessionID string, conn *websocket.Conn) {
	c.mu.Lock()
	existing, ok := c.active[sessionID]
	c.active[sessionID] = conn
	c.mu.Unlock()

	if ok && existing != conn {
		// The close handshake completes once the old reader sees the frame.
		go func() { _ = existing.Close(websocket.StatusNormalClosure, "session replaced") }()
	}
	slog.Info("Chat connection registered", "session_id", sessionID)
}

// Unregister forgets conn if it is still the live connection for sessionID.
func (c *Conversations) Unregister(sessionID string, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.active[sessionID]; ok && current == conn {
		delete(c.active, sessionID)
		slog.Info("Chat connection unregistered", "session_id", sessionID)
	}
}

// Len returns the number of live connections.
func (c *Conversations) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.active)
}

// CloseAll closes every live connection, used on shutdown.
func (c *Conversations) CloseAll() {
	c.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(c.active))
	for sid, conn := range c.active {
		conns = append(conns, conn)
		delete(c.active, sid)
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func(conn *websocket.Conn) {
			defer wg.Done()
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		}(conn)
	}
	wg.Wait()
}
