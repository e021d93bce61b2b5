// Package domain contains the records the agent keeps about its own on-chain activity.
package domain

import (
	"time"
)

// Fundraiser is a CrowdFund contract deployed by the agent wallet.
type Fundraiser struct {
	ContractAddress string    `json:"contract_address"`
	TxHash          string    `json:"tx_hash"`
	Beneficiary     string    `json:"beneficiary"`
	Name            string    `json:"name"`
	GoalEth         string    `json:"goal_eth"`
	DurationSeconds int64     `json:"duration_seconds"`
	SessionID       string    `json:"session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Deadline returns when the fundraiser stops accepting contributions,
// measured from the recorded deployment time.
func (f *Fundraiser) Deadline() time.Time {
	return f.CreatedAt.Add(time.Duration(f.DurationSeconds) * time.Second)
}
