package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/zeon-hybrid/internal/identity"
	"github.com/ashureev/zeon-hybrid/internal/llm"
	"github.com/ashureev/zeon-hybrid/internal/memory"
	"github.com/ashureev/zeon-hybrid/internal/tools"
)

const defaultMaxSteps = 6

// DefaultSystemPrompt frames the model as the fundraising agent.
const DefaultSystemPrompt = `You are Zeon, an assistant that helps people run crypto fundraisers on Base Sepolia.
You can check wallet balances, send ETH, deploy fundraiser contracts, list contributors,
check whether a fundraiser is still active and generate contribution QR codes.
Use a tool whenever the user asks for one of these actions. Pass addresses and amounts exactly as the user wrote them.
When a tool returns its result, reply with that result exactly as returned. Do not summarize, reformat or add to it.
If a request is unclear, ask one short question. Be concise.`

// ErrMaxSteps is returned when the model keeps calling tools without answering.
var ErrMaxSteps = errors.New("agent exceeded maximum tool steps")

// ChatModel is the part of the LLM client the agent loop needs.
type ChatModel interface {
	Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (llm.Message, error)
}

// ReactOption configures a ReactAgent.
type ReactOption func(*ReactAgent)

// WithMaxSteps bounds the number of model calls per turn.
func WithMaxSteps(n int) ReactOption {
	return func(a *ReactAgent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) ReactOption {
	return func(a *ReactAgent) { a.systemPrompt = prompt }
}

// WithDirectTools sets the tools whose output ends the turn as the reply.
func WithDirectTools(names ...string) ReactOption {
	return func(a *ReactAgent) {
		a.direct = make(map[string]bool, len(names))
		for _, n := range names {
			a.direct[n] = true
		}
	}
}

// ReactAgent alternates model calls and tool dispatches until the model
// answers in plain text.
type ReactAgent struct {
	model        ChatModel
	registry     *tools.Registry
	specs        []llm.ToolSpec
	maxSteps     int
	systemPrompt string
	direct       map[string]bool
}

// NewReactAgent builds the loop over model and registry. By default the
// send, deploy and QR tools return their output straight to the user so
// structured replies are never paraphrased.
func NewReactAgent(model ChatModel, registry *tools.Registry, opts ...ReactOption) (*ReactAgent, error) {
	if model == nil {
		return nil, errors.New("agent: model is required")
	}
	if registry == nil {
		return nil, errors.New("agent: tool registry is required")
	}
	a := &ReactAgent{
		model:        model,
		registry:     registry,
		maxSteps:     defaultMaxSteps,
		systemPrompt: DefaultSystemPrompt,
	}
	WithDirectTools(tools.NameSendFunds, tools.NameDeployFundraise, tools.NameGenerateQR)(a)
	for _, opt := range opts {
		opt(a)
	}
	for _, s := range registry.Specs() {
		a.specs = append(a.specs, llm.ToolSpec{Name: s.Name, Description: s.Description, Parameters: s.Parameters})
	}
	return a, nil
}

// Process runs one turn.
func (a *ReactAgent) Process(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.SessionID != "" {
		ctx = identity.WithSessionID(ctx, req.SessionID)
	}
	if req.Wallet != "" {
		ctx = identity.WithWallet(ctx, req.Wallet)
	}

	msgs := a.conversation(req)
	var used []string

	for step := 0; step < a.maxSteps; step++ {
		reply, err := a.model.Chat(ctx, msgs, a.specs)
		if err != nil {
			return nil, err
		}
		if len(reply.ToolCalls) == 0 {
			return &ChatResponse{Response: strings.TrimSpace(reply.Content), ToolsUsed: used}, nil
		}

		msgs = append(msgs, reply)
		direct := ""
		for _, call := range reply.ToolCalls {
			out := a.invoke(ctx, req.SessionID, call)
			used = append(used, call.Function.Name)
			msgs = append(msgs, llm.Message{
				Role:       llm.RoleTool,
				Content:    out,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
			if a.direct[call.Function.Name] {
				direct = out
			}
		}
		if direct != "" {
			return &ChatResponse{Response: direct, ToolsUsed: used}, nil
		}
	}
	return nil, fmt.Errorf("%w (%d)", ErrMaxSteps, a.maxSteps)
}

func (a *ReactAgent) invoke(ctx context.Context, sessionID string, call llm.ToolCall) string {
	name := call.Function.Name
	out, err := a.registry.Dispatch(ctx, name, json.RawMessage(call.Function.Arguments))
	if err != nil {
		slog.Warn("Model called unknown tool", "session_id", sessionID, "tool", name)
		return fmt.Sprintf("❌ Unknown tool %q. Available tools: %s", name, strings.Join(a.toolNames(), ", "))
	}
	slog.Info("Tool invoked", "session_id", sessionID, "tool", name, "output_length", len(out))
	return out
}

func (a *ReactAgent) toolNames() []string {
	names := make([]string, 0, len(a.specs))
	for _, s := range a.specs {
		names = append(names, s.Name)
	}
	return names
}

// conversation builds the prompt: system, history, then the user message
// unless history already ends with it.
func (a *ReactAgent) conversation(req ChatRequest) []llm.Message {
	msgs := make([]llm.Message, 0, len(req.History)+2)
	if a.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
	}
	for _, h := range req.History {
		role := llm.RoleUser
		if h.Role == memory.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: h.Content})
	}

	n := len(req.History)
	if n == 0 || req.History[n-1].Role != memory.RoleUser || req.History[n-1].Content != req.Message {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Message})
	}
	return msgs
}

// Close is a no-op; the model client and tools are owned by the caller.
func (a *ReactAgent) Close() {}
