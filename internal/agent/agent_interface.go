package agent

import "context"

// Processor answers a chat turn. Implementations must be safe for
// concurrent use by different sessions.
type Processor interface {
	Process(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Close()
}

var _ Processor = (*ReactAgent)(nil)
