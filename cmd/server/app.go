package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/ashureev/zeon-hybrid/internal/agent"
	"github.com/ashureev/zeon-hybrid/internal/balance"
	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/config"
	"github.com/ashureev/zeon-hybrid/internal/health"
	"github.com/ashureev/zeon-hybrid/internal/llm"
	"github.com/ashureev/zeon-hybrid/internal/memory"
	"github.com/ashureev/zeon-hybrid/internal/store"
	"github.com/ashureev/zeon-hybrid/internal/tools"
)

const agentInitRetryDelay = 10 * time.Second

// app owns every long-lived dependency of the server. Dependencies needed
// to answer HTTP requests are built synchronously; the chain and model side
// is built by initAgent in the background.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	ledger  *store.SQLiteStore
	wallets *store.WalletFiles
	memory  *memory.Manager
	service *agent.Service
	tracker *health.Tracker

	provider atomic.Pointer[chain.Provider]
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	ledger, err := store.NewSQLite(cfg.Ledger.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := ledger.Ping(ctx); err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("ledger health check: %w", err)
	}
	slog.Info("Ledger connected", "path", cfg.Ledger.DBPath)

	wallets, err := store.NewWalletFiles(cfg.WalletDir())
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}

	memStore, err := newMemoryStore(ctx, cfg)
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}
	mem := memory.NewManager(memStore)

	return &app{
		cfg:     cfg,
		logger:  logger,
		ledger:  ledger,
		wallets: wallets,
		memory:  mem,
		service: agent.NewService(mem, nil, agent.ServiceConfig{ContextWindow: cfg.Memory.ContextWindow}),
		tracker: health.NewTracker(),
	}, nil
}

func newMemoryStore(ctx context.Context, cfg *config.Config) (memory.Store, error) {
	switch cfg.Memory.Backend {
	case config.MemoryBackendRedis:
		s, err := memory.NewRedisStore(ctx, cfg.Memory.RedisURL, cfg.Memory.IdleTTL)
		if err != nil {
			return nil, fmt.Errorf("connect memory redis: %w", err)
		}
		slog.Info("Session memory backend ready", "backend", "redis")
		return s, nil
	default:
		s, err := memory.NewFileStore(cfg.MemoryDir())
		if err != nil {
			return nil, err
		}
		slog.Info("Session memory backend ready", "backend", "file", "dir", cfg.MemoryDir())
		return s, nil
	}
}

// runAgentInit retries initAgent until it succeeds or ctx is done. Until
// then the service and the health tracker report not ready.
func (a *app) runAgentInit(ctx context.Context) {
	for attempt := 1; ; attempt++ {
		err := a.initAgent(ctx)
		if err == nil {
			a.tracker.MarkReady()
			slog.Info("Agent initialized", "attempt", attempt)
			return
		}
		slog.Error("Agent initialization failed", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(agentInitRetryDelay):
		}
	}
}

func (a *app) initAgent(ctx context.Context) error {
	cfg := a.cfg
	provider, err := chain.Dial(ctx, chain.Config{
		RPCURL:       cfg.Chain.RPCURL,
		ENSRPCURL:    cfg.Chain.ENSRPCURL,
		ChainID:      cfg.Chain.ChainID,
		PrivateKey:   cfg.WalletKey,
		ArtifactPath: cfg.Chain.ArtifactPath,
	})
	if err != nil {
		return err
	}
	success := false
	defer func() {
		if !success {
			provider.Close()
		}
	}()

	if err := a.exportWallet(provider); err != nil {
		slog.Warn("Wallet export failed", "error", err)
	}
	if err := os.MkdirAll(cfg.XMTPDir(provider.Address().Hex()), 0700); err != nil {
		slog.Warn("Messaging directory unavailable", "error", err)
	}

	registry, err := tools.Build(&tools.Toolbox{
		Chain:          provider,
		Ledger:         a.ledger,
		Logger:         a.logger,
		ConfirmTimeout: cfg.Chain.ConfirmTimeout,
	})
	if err != nil {
		return fmt.Errorf("build tools: %w", err)
	}

	model, err := llm.NewClient(cfg.LLM.APIKey,
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithModel(cfg.LLM.Model),
		llm.WithTemperature(cfg.LLM.Temperature),
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithMaxRetries(cfg.LLM.MaxRetries),
		llm.WithHeader("HTTP-Referer", cfg.LLM.Referer),
		llm.WithHeader("X-Title", cfg.LLM.Title),
	)
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}

	react, err := agent.NewReactAgent(model, registry)
	if err != nil {
		return err
	}

	policy, err := balance.LoadPolicy(cfg.Balance.PolicyPath)
	if err != nil {
		return err
	}
	funds, err := balance.NewManager(provider, policy, balance.Config{
		Minimum:         cfg.Balance.Minimum,
		Target:          cfg.Balance.Target,
		RecheckInterval: cfg.Balance.RecheckInterval,
	})
	if err != nil {
		return err
	}
	funds.StartMonitoring(ctx)

	a.provider.Store(provider)
	a.service.SetFundsChecker(funds)
	a.service.SetProcessor(react)
	success = true
	return nil
}

type walletExport struct {
	Address   string    `json:"address"`
	NetworkID string    `json:"networkId"`
	ChainID   int64     `json:"chainId"`
	CreatedAt time.Time `json:"createdAt"`
}

// exportWallet writes the agent wallet descriptor the first time the wallet
// is seen. The private key is never written.
func (a *app) exportWallet(p *chain.Provider) error {
	addr := p.Address().Hex()
	data, err := json.MarshalIndent(walletExport{
		Address:   addr,
		NetworkID: a.cfg.NetworkID,
		ChainID:   a.cfg.Chain.ChainID,
		CreatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}
	wrote, err := a.wallets.SaveOnce(addr, data)
	if err != nil {
		return err
	}
	if wrote {
		slog.Info("Wallet exported", "address", addr, "dir", a.cfg.WalletDir())
	}
	return nil
}

func (a *app) blockchainReady() bool {
	p := a.provider.Load()
	return p != nil && p.CanDeploy()
}

// Close releases everything newApp and initAgent created.
func (a *app) Close() error {
	var errs []error
	a.tracker.MarkNotReady()
	a.service.Close()
	if err := a.memory.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close memory: %w", err))
	}
	if p := a.provider.Load(); p != nil {
		p.Close()
	}
	if err := a.ledger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close ledger: %w", err))
	}
	return errors.Join(errs...)
}
