package tools

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	agentAddr    = common.HexToAddress("0x7805B1557019e15BF3E6903d1bE02c2038da14D2")
	contractAddr = common.HexToAddress("0x111111111111111111111111111111111111aAaA")
	sendHash     = common.HexToHash("0x" + strings.Repeat("cd", 32))
)

// fakeChain is a scriptable Chain. Nil hooks fall back to benign defaults;
// calls counts every method invocation.
type fakeChain struct {
	calls atomic.Int64

	balance     func(common.Address) (*big.Int, error)
	resolve     func(context.Context, string) (common.Address, error)
	lookup      func(context.Context, common.Address) (string, error)
	send        func(to common.Address, wei, gasPrice *big.Int, gasLimit uint64) (common.Hash, error)
	deploy      func(beneficiary common.Address, goalWei, duration, gasPrice *big.Int, gasLimit uint64) (chain.Deployment, error)
	waitMined   func(context.Context, common.Hash) (*types.Receipt, error)
	receiptOf   func(common.Hash) (*types.Receipt, error)
	members     func(common.Address) ([]common.Address, error)
	active      func(common.Address) (bool, error)
	suggestedGP *big.Int
}

func (f *fakeChain) Address() common.Address { return agentAddr }

func (f *fakeChain) Balance(_ context.Context, addr common.Address) (*big.Int, error) {
	f.calls.Add(1)
	if f.balance != nil {
		return f.balance(addr)
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.calls.Add(1)
	if f.suggestedGP != nil {
		return f.suggestedGP, nil
	}
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeChain) ResolveName(ctx context.Context, name string) (common.Address, error) {
	f.calls.Add(1)
	if f.resolve != nil {
		return f.resolve(ctx, name)
	}
	return common.Address{}, chain.ErrNameNotFound
}

func (f *fakeChain) LookupAddress(ctx context.Context, addr common.Address) (string, error) {
	f.calls.Add(1)
	if f.lookup != nil {
		return f.lookup(ctx, addr)
	}
	return "", errors.New("no reverse record")
}

func (f *fakeChain) SendValue(_ context.Context, to common.Address, wei, gasPrice *big.Int, gasLimit uint64) (common.Hash, error) {
	f.calls.Add(1)
	if f.send != nil {
		return f.send(to, wei, gasPrice, gasLimit)
	}
	return sendHash, nil
}

func (f *fakeChain) DeployFundraiser(_ context.Context, beneficiary common.Address, goalWei, duration, gasPrice *big.Int, gasLimit uint64) (chain.Deployment, error) {
	f.calls.Add(1)
	if f.deploy != nil {
		return f.deploy(beneficiary, goalWei, duration, gasPrice, gasLimit)
	}
	return chain.Deployment{Address: contractAddr, TxHash: sendHash}, nil
}

func (f *fakeChain) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.calls.Add(1)
	if f.waitMined != nil {
		return f.waitMined(ctx, hash)
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(42), GasUsed: 21000}, nil
}

func (f *fakeChain) ReceiptOf(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.calls.Add(1)
	if f.receiptOf != nil {
		return f.receiptOf(hash)
	}
	return nil, nil
}

func (f *fakeChain) Contributors(_ context.Context, contract common.Address) ([]common.Address, error) {
	f.calls.Add(1)
	if f.members != nil {
		return f.members(contract)
	}
	return nil, nil
}

func (f *fakeChain) IsFundraiserActive(_ context.Context, contract common.Address) (bool, error) {
	f.calls.Add(1)
	if f.active != nil {
		return f.active(contract)
	}
	return true, nil
}

// neverMined blocks until the wait window closes.
func neverMined(ctx context.Context, _ common.Hash) (*types.Receipt, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeLedger struct {
	mu          sync.Mutex
	fundraisers []*domain.Fundraiser
	txs         map[string]*domain.Transaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{txs: make(map[string]*domain.Transaction)}
}

func (l *fakeLedger) RecordFundraiser(_ context.Context, f *domain.Fundraiser) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fundraisers = append(l.fundraisers, f)
	return nil
}

func (l *fakeLedger) RecordTransaction(_ context.Context, tx *domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs[tx.Hash] = tx
	return nil
}

func (l *fakeLedger) UpdateTransactionStatus(_ context.Context, hash string, status domain.TxStatus, block uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx, ok := l.txs[hash]
	if !ok {
		return errors.New("unknown transaction")
	}
	tx.Status = status
	tx.BlockNumber = block
	return nil
}

func (l *fakeLedger) status(hash string) domain.TxStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tx, ok := l.txs[hash]; ok {
		return tx.Status
	}
	return ""
}
