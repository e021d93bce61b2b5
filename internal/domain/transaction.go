package domain

import (
	"time"
)

// TxKind distinguishes what a submitted transaction did.
type TxKind string

const (
	TxKindSend   TxKind = "send"
	TxKindDeploy TxKind = "deploy"
)

// TxStatus is the last known confirmation state of a transaction.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Transaction is a transaction submitted from the agent wallet.
type Transaction struct {
	Hash        string    `json:"hash"`
	Kind        TxKind    `json:"kind"`
	From        string    `json:"from"`
	To          string    `json:"to,omitempty"`
	ValueEth    string    `json:"value_eth"`
	Status      TxStatus  `json:"status"`
	BlockNumber uint64    `json:"block_number,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Settled reports whether the transaction reached a final state.
func (t *Transaction) Settled() bool {
	return t.Status == TxConfirmed || t.Status == TxFailed
}
