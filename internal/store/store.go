// Package store persists the agent's ledger of deployed fundraisers and
// submitted transactions, plus the write-once wallet export files.
package store

import (
	"context"

	"github.com/ashureev/zeon-hybrid/internal/domain"
)

// Repository defines the interface for persisting ledger data.
type Repository interface {
	// RecordFundraiser stores a deployed fundraiser. Recording the same
	// contract twice updates the descriptive fields.
	RecordFundraiser(ctx context.Context, f *domain.Fundraiser) error

	// GetFundraiser returns the fundraiser at contract, or nil if unknown.
	GetFundraiser(ctx context.Context, contract string) (*domain.Fundraiser, error)

	// ListFundraisers returns the most recently deployed fundraisers first.
	ListFundraisers(ctx context.Context, limit int) ([]*domain.Fundraiser, error)

	// RecordTransaction stores a submitted transaction.
	RecordTransaction(ctx context.Context, tx *domain.Transaction) error

	// UpdateTransactionStatus sets the confirmation state of a known transaction.
	UpdateTransactionStatus(ctx context.Context, hash string, status domain.TxStatus, block uint64) error

	// GetTransaction returns the transaction with hash, or nil if unknown.
	GetTransaction(ctx context.Context, hash string) (*domain.Transaction, error)

	// CountTransactions returns the number of transactions per status.
	CountTransactions(ctx context.Context) (map[domain.TxStatus]int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
