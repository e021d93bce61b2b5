package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/zeon-hybrid/internal/domain"
)

const (
	writeRetries   = 3
	writeBaseDelay = 100 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL lets the metrics readers run alongside tool writes.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS fundraisers (
		contract_address TEXT PRIMARY KEY COLLATE NOCASE,
		tx_hash TEXT NOT NULL,
		beneficiary TEXT NOT NULL,
		name TEXT NOT NULL,
		goal_eth TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		session_id TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fundraisers_created ON fundraisers(created_at);

	CREATE TABLE IF NOT EXISTS transactions (
		hash TEXT PRIMARY KEY COLLATE NOCASE,
		kind TEXT NOT NULL,
		from_address TEXT NOT NULL,
		to_address TEXT,
		value_eth TEXT NOT NULL,
		status TEXT NOT NULL,
		block_number INTEGER,
		session_id TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// withRetry runs fn, retrying with exponential backoff while SQLite reports
// a lock conflict.
func (s *SQLiteStore) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := 0; i < writeRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isConflict(err) || i == writeRetries-1 {
			break
		}
		delay := writeBaseDelay * time.Duration(1<<i) // 100ms, 200ms
		slog.Debug("SQLite write conflict, retrying", "op", op, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// RecordFundraiser stores a deployed fundraiser.
func (s *SQLiteStore) RecordFundraiser(ctx context.Context, f *domain.Fundraiser) error {
	query := `
	INSERT INTO fundraisers (contract_address, tx_hash, beneficiary, name, goal_eth, duration_seconds, session_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(contract_address) DO UPDATE SET
		name = excluded.name,
		goal_eth = excluded.goal_eth,
		session_id = COALESCE(excluded.session_id, fundraisers.session_id)`

	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return s.withRetry(ctx, "record fundraiser", func() error {
		_, err := s.db.ExecContext(ctx, query,
			f.ContractAddress, f.TxHash, f.Beneficiary, f.Name, f.GoalEth,
			f.DurationSeconds, nullString(f.SessionID), created.Unix(),
		)
		return err
	})
}

// GetFundraiser returns the fundraiser at contract, or nil if unknown.
func (s *SQLiteStore) GetFundraiser(ctx context.Context, contract string) (*domain.Fundraiser, error) {
	query := `
		SELECT contract_address, tx_hash, beneficiary, name, goal_eth,
		       duration_seconds, session_id, created_at
		FROM fundraisers WHERE contract_address = ?`

	f, err := scanFundraiser(s.db.QueryRowContext(ctx, query, contract))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan fundraiser row: %w", err)
	}
	return f, nil
}

// ListFundraisers returns the most recent fundraisers first.
func (s *SQLiteStore) ListFundraisers(ctx context.Context, limit int) ([]*domain.Fundraiser, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT contract_address, tx_hash, beneficiary, name, goal_eth,
		       duration_seconds, session_id, created_at
		FROM fundraisers ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query fundraisers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close fundraiser rows", "error", closeErr)
		}
	}()

	var out []*domain.Fundraiser
	for rows.Next() {
		f, err := scanFundraiser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fundraiser row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fundraisers: %w", err)
	}
	return out, nil
}

// RecordTransaction stores a submitted transaction.
func (s *SQLiteStore) RecordTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
	INSERT INTO transactions (hash, kind, from_address, to_address, value_eth, status, block_number, session_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(hash) DO NOTHING`

	now := time.Now()
	created := tx.CreatedAt
	if created.IsZero() {
		created = now
	}
	status := tx.Status
	if status == "" {
		status = domain.TxPending
	}
	return s.withRetry(ctx, "record transaction", func() error {
		_, err := s.db.ExecContext(ctx, query,
			tx.Hash, string(tx.Kind), tx.From, nullString(tx.To), tx.ValueEth,
			string(status), nullBlock(tx.BlockNumber), nullString(tx.SessionID),
			created.Unix(), now.Unix(),
		)
		return err
	})
}

// UpdateTransactionStatus sets the confirmation state of a known transaction.
func (s *SQLiteStore) UpdateTransactionStatus(ctx context.Context, hash string, status domain.TxStatus, block uint64) error {
	query := `UPDATE transactions SET status = ?, block_number = COALESCE(?, block_number), updated_at = ? WHERE hash = ?`

	var rows int64
	err := s.withRetry(ctx, "update transaction status", func() error {
		result, err := s.db.ExecContext(ctx, query, string(status), nullBlock(block), time.Now().Unix(), hash)
		if err != nil {
			return err
		}
		rows, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		slog.Warn("UpdateTransactionStatus affected 0 rows", "tx_hash", hash)
		return fmt.Errorf("transaction %s not found", hash)
	}
	return nil
}

// GetTransaction returns the transaction with hash, or nil if unknown.
func (s *SQLiteStore) GetTransaction(ctx context.Context, hash string) (*domain.Transaction, error) {
	query := `
		SELECT hash, kind, from_address, to_address, value_eth, status,
		       block_number, session_id, created_at, updated_at
		FROM transactions WHERE hash = ?`

	var tx domain.Transaction
	var kind, status string
	var to, session sql.NullString
	var block sql.NullInt64
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, hash).Scan(
		&tx.Hash, &kind, &tx.From, &to, &tx.ValueEth, &status,
		&block, &session, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction row: %w", err)
	}

	tx.Kind = domain.TxKind(kind)
	tx.Status = domain.TxStatus(status)
	tx.To = to.String
	tx.SessionID = session.String
	if block.Valid {
		tx.BlockNumber = uint64(block.Int64)
	}
	tx.CreatedAt = time.Unix(createdAt, 0)
	tx.UpdatedAt = time.Unix(updatedAt, 0)
	return &tx, nil
}

// CountTransactions returns the number of transactions per status.
func (s *SQLiteStore) CountTransactions(ctx context.Context) (map[domain.TxStatus]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM transactions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close transaction count rows", "error", closeErr)
		}
	}()

	counts := make(map[domain.TxStatus]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan transaction count: %w", err)
		}
		counts[domain.TxStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction counts: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFundraiser(row rowScanner) (*domain.Fundraiser, error) {
	var f domain.Fundraiser
	var session sql.NullString
	var createdAt int64
	if err := row.Scan(
		&f.ContractAddress, &f.TxHash, &f.Beneficiary, &f.Name, &f.GoalEth,
		&f.DurationSeconds, &session, &createdAt,
	); err != nil {
		return nil, err
	}
	f.SessionID = session.String
	f.CreatedAt = time.Unix(createdAt, 0)
	return &f, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullBlock(n uint64) interface{} {
	if n == 0 {
		return nil
	}
	return int64(n)
}
