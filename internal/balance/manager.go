// Package balance watches the agent wallet's ETH balance and refuses
// gas-spending turns while it is below the configured minimum.
package balance

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

const (
	DefaultMinimum         = "0.001"
	DefaultTarget          = "0.005"
	DefaultRecheckInterval = time.Minute
	DefaultCacheTTL        = 30 * time.Second
	DefaultAlertThrottle   = 5 * time.Minute
)

// Wallet is the part of the chain provider the manager reads.
type Wallet interface {
	Address() common.Address
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
}

// Config tunes the manager. Amounts are decimal ETH strings.
type Config struct {
	Minimum         string
	Target          string
	RecheckInterval time.Duration
	CacheTTL        time.Duration
	AlertThrottle   time.Duration
}

// Status is a snapshot of the last balance check.
type Status struct {
	CurrentBalance      string    `json:"currentBalance"`
	MinimumBalance      string    `json:"minimumBalance"`
	TargetBalance       string    `json:"targetBalance"`
	IsLowBalance        bool      `json:"isLowBalance"`
	LastChecked         time.Time `json:"lastChecked"`
	LastLowBalanceAlert time.Time `json:"lastLowBalanceAlert,omitzero"`
}

// Manager caches the agent wallet balance.
type Manager struct {
	wallet  Wallet
	policy  *Policy
	minimum *big.Int
	target  *big.Int
	cfg     Config

	mu        sync.Mutex
	cached    *big.Int
	cachedAt  time.Time
	status    Status
	lastAlert time.Time

	monitorOnce sync.Once
	now         func() time.Time
}

// NewManager validates cfg and fills defaults. A nil policy never requires funds.
func NewManager(wallet Wallet, policy *Policy, cfg Config) (*Manager, error) {
	if cfg.Minimum == "" {
		cfg.Minimum = DefaultMinimum
	}
	if cfg.Target == "" {
		cfg.Target = DefaultTarget
	}
	if cfg.RecheckInterval <= 0 {
		cfg.RecheckInterval = DefaultRecheckInterval
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.AlertThrottle <= 0 {
		cfg.AlertThrottle = DefaultAlertThrottle
	}
	minimum, err := chain.ParseEther(cfg.Minimum)
	if err != nil {
		return nil, fmt.Errorf("balance minimum: %w", err)
	}
	target, err := chain.ParseEther(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("balance target: %w", err)
	}

	return &Manager{
		wallet:  wallet,
		policy:  policy,
		minimum: minimum,
		target:  target,
		cfg:     cfg,
		status: Status{
			CurrentBalance: "0",
			MinimumBalance: chain.FormatEther(minimum),
			TargetBalance:  chain.FormatEther(target),
			IsLowBalance:   true,
			LastChecked:    time.Now(),
		},
		now: time.Now,
	}, nil
}

// CurrentBalance returns the wallet balance in wei. With useCache a reading
// younger than the cache TTL is reused. When the RPC fails the last known
// balance (or zero) is returned.
func (m *Manager) CurrentBalance(ctx context.Context, useCache bool) *big.Int {
	m.mu.Lock()
	if useCache && m.cached != nil && m.now().Sub(m.cachedAt) < m.cfg.CacheTTL {
		out := new(big.Int).Set(m.cached)
		m.mu.Unlock()
		return out
	}
	m.mu.Unlock()

	bal, err := m.wallet.Balance(ctx, m.wallet.Address())

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		slog.Error("Failed to read agent balance", "error", err)
		if m.cached != nil {
			return new(big.Int).Set(m.cached)
		}
		return new(big.Int)
	}

	now := m.now()
	m.cached = new(big.Int).Set(bal)
	m.cachedAt = now
	m.status.CurrentBalance = formatFixed(bal)
	m.status.LastChecked = now
	m.status.IsLowBalance = bal.Cmp(m.minimum) < 0
	slog.Debug("Agent balance checked", "balance_eth", m.status.CurrentBalance, "low", m.status.IsLowBalance)
	return bal
}

// Sufficient reports whether the balance meets the minimum.
func (m *Manager) Sufficient(ctx context.Context, useCache bool) bool {
	return m.CurrentBalance(ctx, useCache).Cmp(m.minimum) >= 0
}

// EnsureSufficient checks a fresh balance. When it is below the minimum the
// returned message asks the user to fund the agent wallet.
func (m *Manager) EnsureSufficient(ctx context.Context) (bool, string) {
	bal := m.CurrentBalance(ctx, false)
	if bal.Cmp(m.minimum) >= 0 {
		return true, ""
	}

	m.mu.Lock()
	m.lastAlert = m.now()
	m.status.LastLowBalanceAlert = m.lastAlert
	m.mu.Unlock()

	return false, fmt.Sprintf(
		"I need more ETH for transaction fees. Current balance: %s ETH (need: %s ETH). Please send ETH to my wallet address: %s",
		formatFixed(bal), chain.FormatEther(m.minimum), m.wallet.Address().Hex(),
	)
}

// Preflight gates a chat turn. Messages the policy marks as gas-spending
// are refused with a funding request while the wallet is low.
func (m *Manager) Preflight(ctx context.Context, message string) (string, bool) {
	if !m.policy.RequiresFunds(message) {
		return "", true
	}
	ready, msg := m.EnsureSufficient(ctx)
	return msg, ready
}

// Status returns a copy of the last check.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// StartMonitoring checks the balance every recheck interval until ctx is
// done, logging a low-balance warning at most once per alert throttle.
// Calling it again is a no-op.
func (m *Manager) StartMonitoring(ctx context.Context) {
	m.monitorOnce.Do(func() {
		slog.Info("Balance monitor started", "interval", m.cfg.RecheckInterval, "minimum_eth", m.status.MinimumBalance)
		m.CurrentBalance(ctx, false)

		ticker := time.NewTicker(m.cfg.RecheckInterval)
		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					m.check(ctx)
				case <-ctx.Done():
					slog.Info("Balance monitor stopped", "reason", ctx.Err())
					return
				}
			}
		}()
	})
}

// check returns true when a low-balance alert was logged.
func (m *Manager) check(ctx context.Context) bool {
	bal := m.CurrentBalance(ctx, false)
	if bal.Cmp(m.minimum) >= 0 {
		return false
	}

	m.mu.Lock()
	now := m.now()
	alert := m.lastAlert.IsZero() || now.Sub(m.lastAlert) > m.cfg.AlertThrottle
	if alert {
		m.lastAlert = now
		m.status.LastLowBalanceAlert = now
	}
	m.mu.Unlock()

	if alert {
		slog.Warn("Low agent balance", "balance_eth", formatFixed(bal), "minimum_eth", chain.FormatEther(m.minimum),
			"address", m.wallet.Address().Hex())
	}
	return alert
}

// formatFixed renders wei as ETH with six decimals.
func formatFixed(wei *big.Int) string {
	return new(big.Rat).SetFrac(wei, big.NewInt(params.Ether)).FloatString(6)
}
