package payload

import (
	"strings"
	"time"
)

// SenderSystem marks locally generated notices.
const SenderSystem = "system"

// Lane is the column a chat message renders in.
type Lane string

const (
	LaneUser   Lane = "user"
	LaneAgent  Lane = "agent"
	LaneSystem Lane = "system"
)

// ChatMessage is one entry of a client's chat transcript.
type ChatMessage struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	SenderAddress string    `json:"senderAddress"`
	Timestamp     time.Time `json:"timestamp"`
	Error         bool      `json:"error,omitempty"`
}

// LaneOf picks the lane by comparing the sender with the wallet the client is
// connected with. Server-assigned roles are not consulted.
func LaneOf(sender, connectedWallet string) Lane {
	switch {
	case sender == SenderSystem:
		return LaneSystem
	case connectedWallet != "" && strings.EqualFold(sender, connectedWallet):
		return LaneUser
	default:
		return LaneAgent
	}
}

// Lane is LaneOf for m.
func (m ChatMessage) Lane(connectedWallet string) Lane {
	return LaneOf(m.SenderAddress, connectedWallet)
}
