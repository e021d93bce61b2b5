package tools

import (
	"context"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/domain"
	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Tool names as advertised to the model.
const (
	NameCheckBalance    = "check_wallet_balance"
	NameSendFunds       = "send_funds_to_address_or_ens"
	NameDeployFundraise = "deploy_fundraiser_contract"
	NameContributors    = "get_fundraiser_contributors"
	NameStatus          = "check_fundraiser_status"
	NameGenerateQR      = "generate_contribution_qr_code"
)

const (
	defaultConfirmTimeout   = 90 * time.Second
	defaultReverseENSBudget = 2 * time.Second

	sendGasLimit       = 21000
	sendGasPercent     = 120
	deployGasLimit     = 1_200_000
	deployGasPercent   = 150
	defaultDurationSec = "2592000"
)

// Chain is the subset of *chain.Provider the tools use.
type Chain interface {
	Address() common.Address
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ResolveName(ctx context.Context, name string) (common.Address, error)
	LookupAddress(ctx context.Context, addr common.Address) (string, error)
	SendValue(ctx context.Context, to common.Address, wei, gasPrice *big.Int, gasLimit uint64) (common.Hash, error)
	DeployFundraiser(ctx context.Context, beneficiary common.Address, goalWei, duration, gasPrice *big.Int, gasLimit uint64) (chain.Deployment, error)
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	ReceiptOf(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	Contributors(ctx context.Context, contract common.Address) ([]common.Address, error)
	IsFundraiserActive(ctx context.Context, contract common.Address) (bool, error)
}

// Ledger records what the agent wallet submitted. *store.SQLiteStore
// satisfies it.
type Ledger interface {
	RecordFundraiser(ctx context.Context, f *domain.Fundraiser) error
	RecordTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateTransactionStatus(ctx context.Context, hash string, status domain.TxStatus, block uint64) error
}

// Toolbox carries the shared collaborators of every tool. Chain may be nil
// while the provider is still dialing; Ledger may be nil when no database
// is configured.
type Toolbox struct {
	Chain   Chain
	Encoder *payload.Encoder
	Ledger  Ledger
	Logger  *slog.Logger

	// ConfirmTimeout bounds how long a tool waits for a receipt before
	// reporting the transaction as submitted.
	ConfirmTimeout time.Duration

	// ReverseLookupTimeout bounds each contributor name lookup.
	ReverseLookupTimeout time.Duration
}

// Build registers the six agent tools backed by tb.
func Build(tb *Toolbox) (*Registry, error) {
	tb.defaults()
	r := NewRegistry()
	for _, t := range []Tool{
		newTool(NameDeployFundraise, deployDescription, deploySchema, tb.deployFundraiser),
		newTool(NameGenerateQR, qrDescription, qrSchema, tb.generateQR),
		newTool(NameContributors, contributorsDescription, contractSchema, tb.contributors),
		newTool(NameStatus, statusDescription, contractSchema, tb.status),
		newTool(NameCheckBalance, balanceDescription, balanceSchema, tb.checkBalance),
		newTool(NameSendFunds, sendDescription, sendSchema, tb.sendFunds),
	} {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (tb *Toolbox) defaults() {
	if tb.Encoder == nil {
		tb.Encoder = payload.NewEncoder()
	}
	if tb.Logger == nil {
		tb.Logger = slog.Default()
	}
	if tb.ConfirmTimeout <= 0 {
		tb.ConfirmTimeout = defaultConfirmTimeout
	}
	if tb.ReverseLookupTimeout <= 0 {
		tb.ReverseLookupTimeout = defaultReverseENSBudget
	}
}

func (tb *Toolbox) recordTransaction(ctx context.Context, tx *domain.Transaction) {
	if tb.Ledger == nil {
		return
	}
	if err := tb.Ledger.RecordTransaction(ctx, tx); err != nil {
		tb.Logger.Warn("Failed to record transaction", "tx_hash", tx.Hash, "error", err)
	}
}

func (tb *Toolbox) settleTransaction(ctx context.Context, hash string, status domain.TxStatus, block uint64) {
	if tb.Ledger == nil {
		return
	}
	if err := tb.Ledger.UpdateTransactionStatus(ctx, hash, status, block); err != nil {
		tb.Logger.Warn("Failed to update transaction status", "tx_hash", hash, "status", status, "error", err)
	}
}

func (tb *Toolbox) recordFundraiser(ctx context.Context, f *domain.Fundraiser) {
	if tb.Ledger == nil {
		return
	}
	if err := tb.Ledger.RecordFundraiser(ctx, f); err != nil {
		tb.Logger.Warn("Failed to record fundraiser", "contract", f.ContractAddress, "error", err)
	}
}

// waitMined waits up to ConfirmTimeout for hash to be mined.
func (tb *Toolbox) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, tb.ConfirmTimeout)
	defer cancel()
	return tb.Chain.WaitMined(ctx, hash)
}

func blockOf(r *types.Receipt) uint64 {
	if r == nil || r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}

func gasUsedOf(r *types.Receipt) string {
	if r == nil || r.GasUsed == 0 {
		return ""
	}
	return strconv.FormatUint(r.GasUsed, 10)
}
