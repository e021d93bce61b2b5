// Package agent runs chat turns through the model and the blockchain tools
// and serves them over HTTP.
package agent

import (
	"time"

	"github.com/ashureev/zeon-hybrid/internal/memory"
	"github.com/ashureev/zeon-hybrid/internal/payload"
)

// ChatRequest is one user turn handed to a Processor.
type ChatRequest struct {
	Message   string
	SessionID string
	Wallet    string
	// History is the recent conversation, oldest first. It may already end
	// with Message.
	History []memory.Message
}

// ChatResponse is the processor's answer to a turn.
type ChatResponse struct {
	Response  string   `json:"response"`
	ToolsUsed []string `json:"tools_used,omitempty"`
}

// Stats summarizes the service for the metrics endpoint.
type Stats struct {
	Ready          bool  `json:"ready"`
	ActiveSessions int   `json:"activeSessions"`
	MemorySize     int   `json:"memorySize"`
	Turns          int64 `json:"turns"`
	FailedTurns    int64 `json:"failedTurns"`
}

// chatMetadata is attached to every successful chat response.
type chatMetadata struct {
	ProcessingTime int64     `json:"processingTime"`
	SessionID      string    `json:"sessionId"`
	Timestamp      time.Time `json:"timestamp"`
	ToolsUsed      []string  `json:"toolsUsed,omitempty"`
}

// chatReply is the body of a successful POST /api/chat. Response keeps the
// raw reply string for older clients; Reply is the tagged form.
type chatReply struct {
	Response string        `json:"response"`
	Reply    payload.Reply `json:"reply"`
	Metadata chatMetadata  `json:"metadata"`
}
