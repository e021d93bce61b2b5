package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ashureev/zeon-hybrid/internal/memory"
)

// FundsChecker gates turns that would spend gas from the agent wallet.
type FundsChecker interface {
	// Preflight returns a user-facing message and false when message asks
	// for an on-chain write the wallet cannot currently pay for.
	Preflight(ctx context.Context, message string) (string, bool)
}

// ServiceConfig tunes the Service.
type ServiceConfig struct {
	// ContextWindow is how many recent messages are sent with each turn.
	ContextWindow int
}

// Service runs chat turns against session memory. It starts without a
// processor and reports not ready until SetProcessor is called.
type Service struct {
	memory *memory.Manager
	window int

	mu        sync.RWMutex
	processor Processor
	funds     FundsChecker

	turns  atomic.Int64
	failed atomic.Int64
}

// NewService creates a service over mem. funds may be nil.
func NewService(mem *memory.Manager, funds FundsChecker, cfg ServiceConfig) *Service {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = memory.DefaultContextWindow
	}
	return &Service{memory: mem, funds: funds, window: cfg.ContextWindow}
}

// NewServiceWithProcessor creates a ready service.
func NewServiceWithProcessor(mem *memory.Manager, funds FundsChecker, processor Processor, cfg ServiceConfig) *Service {
	s := NewService(mem, funds, cfg)
	s.SetProcessor(processor)
	return s
}

// SetProcessor installs the processor and marks the service ready.
func (s *Service) SetProcessor(p Processor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processor = p
}

// SetFundsChecker installs the balance gate. A nil checker disables it.
func (s *Service) SetFundsChecker(f FundsChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funds = f
}

// Ready reports whether turns can be processed.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processor != nil
}

// HandleMessage runs one turn and returns the reply text. Processing
// failures are turned into a reply; only an empty message or a service that
// is not ready produce an error.
func (s *Service) HandleMessage(ctx context.Context, sessionID, wallet, message string) (*ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, newError(CodeInvalidInput, "message is required", nil)
	}
	s.mu.RLock()
	p, funds := s.processor, s.funds
	s.mu.RUnlock()
	if p == nil {
		return nil, ErrNotReady
	}
	s.turns.Add(1)

	if funds != nil {
		if msg, ok := funds.Preflight(ctx, message); !ok {
			slog.Warn("Turn refused for low agent balance", "session_id", sessionID)
			s.remember(ctx, sessionID, memory.RoleUser, message)
			s.remember(ctx, sessionID, memory.RoleAssistant, msg)
			return &ChatResponse{Response: msg}, nil
		}
	}

	s.remember(ctx, sessionID, memory.RoleUser, message)
	history := s.memory.Recent(ctx, sessionID, s.window)

	resp, err := p.Process(ctx, ChatRequest{
		Message:   message,
		SessionID: sessionID,
		Wallet:    wallet,
		History:   history,
	})
	if err != nil {
		s.failed.Add(1)
		slog.Error("Chat turn failed", "session_id", sessionID, "code", CodeUpstreamError, "error", err)
		resp = &ChatResponse{Response: failureMessage(err)}
	}
	if resp.Response == "" {
		resp.Response = msgTechnical
	}

	s.remember(ctx, sessionID, memory.RoleAssistant, resp.Response)
	return resp, nil
}

func (s *Service) remember(ctx context.Context, sessionID, role, content string) {
	if err := s.memory.Append(ctx, sessionID, role, content); err != nil {
		slog.Warn("Failed to persist session memory", "session_id", sessionID, "error", err)
	}
}

// GetStats returns service statistics.
func (s *Service) GetStats() Stats {
	sessions, messages := s.memory.Len()
	return Stats{
		Ready:          s.Ready(),
		ActiveSessions: sessions,
		MemorySize:     messages,
		Turns:          s.turns.Load(),
		FailedTurns:    s.failed.Load(),
	}
}

// Close releases the processor.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processor != nil {
		s.processor.Close()
	}
}
