package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	ens "github.com/wealdtech/go-ens/v3"
)

var (
	ErrNameNotFound      = errors.New("name not found")
	ErrResolutionTimeout = errors.New("ENS resolution timeout")
	ErrReverted          = errors.New("transaction reverted")
	ErrNotReady          = errors.New("blockchain provider not initialized")
)

const (
	defaultENSTimeout   = 5 * time.Second
	receiptPollInterval = 2 * time.Second
)

// Config describes how to reach the chain and which key signs for the agent.
type Config struct {
	RPCURL       string
	ENSRPCURL    string
	ChainID      int64
	PrivateKey   string
	ArtifactPath string
	ENSTimeout   time.Duration
}

// Deployment identifies a submitted contract creation.
type Deployment struct {
	Address common.Address
	TxHash  common.Hash
}

// Provider is the process-wide chain handle: RPC client, agent signer and
// fundraiser contract factory. It is created once with Dial and is safe for
// concurrent use; submissions from the agent wallet are serialized.
type Provider struct {
	client     *ethclient.Client
	ensClient  *ethclient.Client
	key        *ecdsa.PrivateKey
	from       common.Address
	chainID    *big.Int
	artifact   *Artifact
	locks      *WalletLock
	ensTimeout time.Duration
	closeOnce  sync.Once
}

// Dial connects to the RPC endpoint(s), loads the signer and the contract artifact.
func Dial(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.RPCURL == "" {
		return nil, errors.New("chain: rpc url must not be empty")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: parse wallet key: %w", err)
	}

	art, err := LoadArtifact(cfg.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}
	if !art.CanDeploy() {
		slog.Warn("Contract artifact has no bytecode, deployments are disabled", "path", cfg.ArtifactPath)
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, err)
	}

	ensClient := client
	if cfg.ENSRPCURL != "" && cfg.ENSRPCURL != cfg.RPCURL {
		ensClient, err = ethclient.DialContext(ctx, cfg.ENSRPCURL)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("chain: dial ens rpc: %w", err)
		}
	}

	chainID := cfg.ChainID
	if chainID == 0 {
		chainID = ChainIDBaseSepolia
	}
	ensTimeout := cfg.ENSTimeout
	if ensTimeout <= 0 {
		ensTimeout = defaultENSTimeout
	}

	p := &Provider{
		client:     client,
		ensClient:  ensClient,
		key:        key,
		from:       crypto.PubkeyToAddress(key.PublicKey),
		chainID:    big.NewInt(chainID),
		artifact:   art,
		locks:      NewWalletLock(),
		ensTimeout: ensTimeout,
	}
	slog.Info("Chain provider ready", "address", p.from.Hex(), "chain_id", chainID, "deploy_enabled", art.CanDeploy())
	return p, nil
}

// Address returns the agent wallet address.
func (p *Provider) Address() common.Address {
	return p.from
}

// Balance returns the latest balance of addr in wei.
func (p *Provider) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	bal, err := p.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return bal, nil
}

// SuggestGasPrice returns the node's current legacy gas price estimate.
func (p *Provider) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	return price, nil
}

// ResolveName resolves an ENS-style name, giving up after the configured timeout.
func (p *Provider) ResolveName(ctx context.Context, name string) (common.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, p.ensTimeout)
	defer cancel()

	type result struct {
		addr common.Address
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		addr, err := ens.Resolve(p.ensClient, name)
		ch <- result{addr, err}
	}()

	select {
	case <-ctx.Done():
		return common.Address{}, fmt.Errorf("%w: %s", ErrResolutionTimeout, name)
	case r := <-ch:
		if r.err != nil {
			return common.Address{}, fmt.Errorf("%w: %s: %v", ErrNameNotFound, name, r.err)
		}
		if r.addr == (common.Address{}) {
			return common.Address{}, fmt.Errorf("%w: %s", ErrNameNotFound, name)
		}
		return r.addr, nil
	}
}

// LookupAddress performs a reverse ENS lookup bounded by ctx.
func (p *Provider) LookupAddress(ctx context.Context, addr common.Address) (string, error) {
	type result struct {
		name string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		name, err := ens.ReverseResolve(p.ensClient, addr)
		ch <- result{name, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.name, r.err
	}
}

// SendValue signs and broadcasts a plain ETH transfer from the agent wallet.
func (p *Provider) SendValue(ctx context.Context, to common.Address, wei, gasPrice *big.Int, gasLimit uint64) (common.Hash, error) {
	var hash common.Hash
	err := p.locks.Do(p.from.Hex(), func() error {
		if gasPrice == nil {
			price, err := p.SuggestGasPrice(ctx)
			if err != nil {
				return err
			}
			gasPrice = price
		}
		nonce, err := p.client.PendingNonceAt(ctx, p.from)
		if err != nil {
			return fmt.Errorf("get nonce: %w", err)
		}
		tx := types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			To:       &to,
			Value:    wei,
			Gas:      gasLimit,
			GasPrice: gasPrice,
		})
		signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainID), p.key)
		if err != nil {
			return fmt.Errorf("sign transaction: %w", err)
		}
		if err := p.client.SendTransaction(ctx, signed); err != nil {
			return fmt.Errorf("send transaction: %w", err)
		}
		hash = signed.Hash()
		return nil
	})
	return hash, err
}

// DeployFundraiser submits the CrowdFund creation transaction.
func (p *Provider) DeployFundraiser(ctx context.Context, beneficiary common.Address, goalWei, duration, gasPrice *big.Int, gasLimit uint64) (Deployment, error) {
	if !p.artifact.CanDeploy() {
		return Deployment{}, ErrNoBytecode
	}

	var dep Deployment
	err := p.locks.Do(p.from.Hex(), func() error {
		auth, err := bind.NewKeyedTransactorWithChainID(p.key, p.chainID)
		if err != nil {
			return fmt.Errorf("build transactor: %w", err)
		}
		auth.Context = ctx
		auth.GasPrice = gasPrice
		auth.GasLimit = gasLimit

		addr, tx, _, err := bind.DeployContract(auth, p.artifact.ABI, p.artifact.Bytecode, p.client, beneficiary, goalWei, duration)
		if err != nil {
			return fmt.Errorf("deploy contract: %w", err)
		}
		dep = Deployment{Address: addr, TxHash: tx.Hash()}
		return nil
	})
	return dep, err
}

// ReceiptOf polls for a receipt once. A nil receipt with a nil error means the
// transaction is still pending.
func (p *Provider) ReceiptOf(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := p.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return receipt, nil
}

// WaitMined polls until the transaction is mined or ctx expires.
func (p *Provider) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := p.ReceiptOf(ctx, hash)
		if err != nil && ctx.Err() == nil {
			slog.Debug("Receipt poll failed", "tx_hash", hash.Hex(), "error", err)
		}
		if receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w: %s", ErrReverted, hash.Hex())
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Contributors returns the contributor list of a deployed fundraiser.
func (p *Provider) Contributors(ctx context.Context, contract common.Address) ([]common.Address, error) {
	out, err := p.call(ctx, contract, "getContributors")
	if err != nil {
		return nil, err
	}
	addrs := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)
	return addrs, nil
}

// IsFundraiserActive reports whether the fundraiser still accepts contributions.
func (p *Provider) IsFundraiserActive(ctx context.Context, contract common.Address) (bool, error) {
	out, err := p.call(ctx, contract, "isFundraiserActive")
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (p *Provider) call(ctx context.Context, contract common.Address, method string) ([]interface{}, error) {
	bound := bind.NewBoundContract(contract, p.artifact.ABI, p.client, p.client, p.client)
	var out []interface{}
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, method); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("call %s: empty result", method)
	}
	return out, nil
}

// CanDeploy reports whether contract deployments are possible.
func (p *Provider) CanDeploy() bool {
	return p.artifact.CanDeploy()
}

// Close releases RPC connections. It is safe to call more than once.
func (p *Provider) Close() {
	p.closeOnce.Do(func() {
		if p.ensClient != p.client {
			p.ensClient.Close()
		}
		p.client.Close()
	})
}
