package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/ashureev/zeon-hybrid/internal/identity"
	"github.com/ashureev/zeon-hybrid/internal/llm"
	"github.com/ashureev/zeon-hybrid/internal/memory"
	"github.com/ashureev/zeon-hybrid/internal/tools"
	"github.com/stretchr/testify/require"
)

// fakeLLM replays scripted replies and records every prompt it receives.
type fakeLLM struct {
	mu      sync.Mutex
	replies []llm.Message
	err     error
	prompts [][]llm.Message
	specs   []llm.ToolSpec
}

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message, specs []llm.ToolSpec) (llm.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, append([]llm.Message(nil), messages...))
	f.specs = specs
	if f.err != nil {
		return llm.Message{}, f.err
	}
	if len(f.replies) == 0 {
		return llm.Message{}, errors.New("fakeLLM: no scripted reply")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func textReply(s string) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, Content: s}
}

func callReply(id, name, args string) llm.Message {
	return llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:       id,
			Type:     "function",
			Function: llm.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

// stubTool returns a fixed output and remembers the arguments and session.
type stubTool struct {
	name    string
	out     string
	mu      sync.Mutex
	args    []string
	session string
	wallet  string
}

func (s *stubTool) Name() string            { return s.name }
func (s *stubTool) Description() string     { return "stub " + s.name }
func (s *stubTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (s *stubTool) Invoke(ctx context.Context, args json.RawMessage) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.args = append(s.args, string(args))
	s.session = identity.SessionIDFromContext(ctx)
	s.wallet = identity.WalletFromContext(ctx)
	return s.out
}

func newRegistry(t *testing.T, stubs ...*stubTool) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	for _, s := range stubs {
		require.NoError(t, reg.Register(s))
	}
	return reg
}

func newMemory(t *testing.T) *memory.Manager {
	t.Helper()
	fs, err := memory.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return memory.NewManager(fs)
}

// fakeFunds refuses every turn when low is set.
type fakeFunds struct {
	low   bool
	calls int
}

func (f *fakeFunds) Preflight(context.Context, string) (string, bool) {
	f.calls++
	if f.low {
		return "I need more ETH for transaction fees.", false
	}
	return "", true
}

// recordingLogger keeps events in memory.
type recordingLogger struct {
	mu     sync.Mutex
	events []ConversationLogEvent
}

func (l *recordingLogger) Log(e ConversationLogEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingLogger) Close() error { return nil }

func (l *recordingLogger) snapshot() []ConversationLogEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ConversationLogEvent(nil), l.events...)
}
