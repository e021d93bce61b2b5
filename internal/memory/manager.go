package memory

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"
)

const (
	stripeCount = 64

	DefaultContextWindow = 20
	DefaultIdleTTL       = 24 * time.Hour
	DefaultSweepInterval = time.Hour
)

// Manager caches session records and writes them through to a Store.
// Operations on one session id are serialized by a striped lock; different
// sessions proceed in parallel.
type Manager struct {
	store   Store
	stripes [stripeCount]sync.Mutex

	mu       sync.RWMutex
	sessions map[string]*Record

	now func() time.Time
}

// NewManager creates a manager over store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sessions: make(map[string]*Record),
		now:      time.Now,
	}
}

func (m *Manager) stripe(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &m.stripes[h.Sum32()%stripeCount]
}

// record returns the cached record, loading or creating it. The caller must
// hold the session's stripe.
func (m *Manager) record(ctx context.Context, sessionID string) *Record {
	m.mu.RLock()
	rec, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return rec
	}

	rec, err := m.store.Load(ctx, sessionID)
	if err != nil {
		slog.Warn("Failed to load session memory, starting fresh", "session_id", sessionID, "error", err)
	}
	if rec == nil {
		rec = &Record{SessionID: sessionID, LastActivity: m.now().UnixMilli()}
	}

	m.mu.Lock()
	m.sessions[sessionID] = rec
	m.mu.Unlock()
	return rec
}

// Append adds a message to the session and persists the record. The message
// is kept in memory even when persisting fails.
func (m *Manager) Append(ctx context.Context, sessionID, role, content string) error {
	if sessionID == "" {
		return ErrInvalidSessionID
	}
	lock := m.stripe(sessionID)
	lock.Lock()
	defer lock.Unlock()

	rec := m.record(ctx, sessionID)
	now := m.now().UnixMilli()
	rec.Messages = append(rec.Messages, Message{Role: role, Content: content, Timestamp: now})
	rec.LastActivity = now

	return m.store.Save(ctx, rec.clone())
}

// Recent returns up to n of the latest messages, oldest first.
func (m *Manager) Recent(ctx context.Context, sessionID string, n int) []Message {
	if sessionID == "" || n <= 0 {
		return nil
	}
	lock := m.stripe(sessionID)
	lock.Lock()
	defer lock.Unlock()

	msgs := m.record(ctx, sessionID).Messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]Message(nil), msgs...)
}

// Snapshot returns a copy of the cached record without touching the store.
func (m *Manager) Snapshot(sessionID string) (Record, bool) {
	lock := m.stripe(sessionID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.RLock()
	rec, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return Record{}, false
	}
	return *rec.clone(), true
}

// Len reports the number of cached sessions and the messages they hold.
func (m *Manager) Len() (sessions, messages int) {
	for _, id := range m.ids() {
		lock := m.stripe(id)
		lock.Lock()
		m.mu.RLock()
		if rec, ok := m.sessions[id]; ok {
			sessions++
			messages += len(rec.Messages)
		}
		m.mu.RUnlock()
		lock.Unlock()
	}
	return sessions, messages
}

// Sweep drops cached sessions idle since before cutoff and returns how many
// were dropped. Stored records are left alone.
func (m *Manager) Sweep(cutoff time.Time) int {
	limit := cutoff.UnixMilli()
	removed := 0
	for _, id := range m.ids() {
		lock := m.stripe(id)
		lock.Lock()
		m.mu.Lock()
		if rec, ok := m.sessions[id]; ok && rec.LastActivity < limit {
			delete(m.sessions, id)
			removed++
		}
		m.mu.Unlock()
		lock.Unlock()
	}
	return removed
}

func (m *Manager) ids() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// StartSweeper runs a background goroutine that drops sessions idle for
// longer than ttl every interval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Memory sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(m.now().Add(-ttl)); n > 0 {
					slog.Info("Memory sweeper pruned idle sessions", "count", n)
				}
			case <-ctx.Done():
				slog.Info("Memory sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
