package tools

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/domain"
	"github.com/ashureev/zeon-hybrid/internal/identity"
	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func stubEncoder() *payload.Encoder {
	return &payload.Encoder{Render: func(string, string) ([]byte, error) {
		return []byte("\x89PNG"), nil
	}}
}

func newRegistry(t *testing.T, fc *fakeChain, ledger Ledger) *Registry {
	t.Helper()
	tb := &Toolbox{
		Encoder:        stubEncoder(),
		Ledger:         ledger,
		ConfirmTimeout: 20 * time.Millisecond,
	}
	if fc != nil {
		tb.Chain = fc
	}
	r, err := Build(tb)
	require.NoError(t, err)
	return r
}

func invoke(t *testing.T, r *Registry, name string, args any) string {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	out, err := r.Dispatch(context.Background(), name, raw)
	require.NoError(t, err)
	return out
}

// ----------------------------------------------------------------------------
// Registry
// ----------------------------------------------------------------------------

func TestBuildRegistersToolsInOrder(t *testing.T) {
	r := newRegistry(t, &fakeChain{}, nil)

	var names []string
	for _, spec := range r.Specs() {
		names = append(names, spec.Name)
		require.True(t, json.Valid(spec.Parameters), "schema of %s", spec.Name)
		require.NotEmpty(t, spec.Description)
	}
	require.Equal(t, []string{
		NameDeployFundraise, NameGenerateQR, NameContributors,
		NameStatus, NameCheckBalance, NameSendFunds,
	}, names)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	tool := newTool("echo", "", `{}`, func(_ context.Context, in struct{}) string { return "" })
	require.NoError(t, r.Register(tool))
	require.EqualError(t, r.Register(tool), "tool echo already registered")
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Dispatch(context.Background(), "nope", nil)
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestInvokeBadArguments(t *testing.T) {
	r := newRegistry(t, &fakeChain{}, nil)
	out, err := r.Dispatch(context.Background(), NameCheckBalance, json.RawMessage(`{"address": [1]}`))
	require.NoError(t, err)
	require.Contains(t, out, "Invalid Input")
}

func TestTextAcceptsNumbers(t *testing.T) {
	var in DeployFundraiserInput
	require.NoError(t, json.Unmarshal([]byte(`{"goalAmount": 0.5, "durationInSeconds": 86400}`), &in))
	require.Equal(t, "0.5", in.GoalAmount.String())
	require.Equal(t, "86400", in.DurationInSeconds.String())
	require.Error(t, json.Unmarshal([]byte(`{"goalAmount": true}`), &in))
}

// ----------------------------------------------------------------------------
// Validation happens before any chain call
// ----------------------------------------------------------------------------

func TestInvalidAddressesNeverReachTheChain(t *testing.T) {
	fc := &fakeChain{}
	r := newRegistry(t, fc, nil)

	cases := []struct {
		tool string
		args any
		role string
	}{
		{NameCheckBalance, CheckBalanceInput{Address: "not-an-address"}, "wallet"},
		{NameContributors, ContributorsInput{ContractAddress: "0x123"}, "contract"},
		{NameStatus, StatusInput{ContractAddress: "0xZZ11111111111111111111111111111111111111"}, "contract"},
		{NameGenerateQR, map[string]string{"contractAddress": "not-an-address", "amountInEth": "0.05"}, "contract"},
		{NameDeployFundraise, map[string]string{"beneficiaryAddress": "bob", "goalAmount": "1"}, "beneficiary"},
	}
	for _, tc := range cases {
		out := invoke(t, r, tc.tool, tc.args)
		require.Contains(t, out, "Invalid Address", tc.tool)
		require.Contains(t, out, "The "+tc.role+" address", tc.tool)
	}
	require.Zero(t, fc.calls.Load())
}

func TestSendInvalidRecipient(t *testing.T) {
	fc := &fakeChain{}
	r := newRegistry(t, fc, nil)
	out := invoke(t, r, NameSendFunds, map[string]string{"recipient": "bob", "amountInEth": "0.1"})
	require.Contains(t, out, "Invalid Recipient")
	require.Zero(t, fc.calls.Load())
}

func TestToolsReportProviderNotReady(t *testing.T) {
	r := newRegistry(t, nil, nil)
	out := invoke(t, r, NameCheckBalance, CheckBalanceInput{Address: agentAddr.Hex()})
	require.Contains(t, out, "Could Not Check Balance")
	require.Contains(t, out, chain.ErrNotReady.Error())
}

// ----------------------------------------------------------------------------
// Balance, status, contributors
// ----------------------------------------------------------------------------

func TestCheckBalance(t *testing.T) {
	fc := &fakeChain{balance: func(common.Address) (*big.Int, error) {
		return big.NewInt(50_000_000_000_000_000), nil
	}}
	r := newRegistry(t, fc, nil)

	out := invoke(t, r, NameCheckBalance, CheckBalanceInput{Address: agentAddr.Hex()})
	require.Contains(t, out, "Balance: 0.05 ETH (on Base Sepolia)")
	require.Contains(t, out, "0x7805...14D2")
}

func TestCheckBalanceUpstreamError(t *testing.T) {
	fc := &fakeChain{balance: func(common.Address) (*big.Int, error) {
		return nil, errors.New("network down")
	}}
	out := invoke(t, newRegistry(t, fc, nil), NameCheckBalance, CheckBalanceInput{Address: agentAddr.Hex()})
	require.Contains(t, out, "Error: network down")
}

func TestStatus(t *testing.T) {
	fc := &fakeChain{active: func(common.Address) (bool, error) { return false, nil }}
	out := invoke(t, newRegistry(t, fc, nil), NameStatus, StatusInput{ContractAddress: contractAddr.Hex()})
	require.Contains(t, out, "❌ Ended")
}

func TestContributorsWithReverseNames(t *testing.T) {
	named := common.HexToAddress("0x2222222222222222222222222222222222222222")
	slow := common.HexToAddress("0x3333333333333333333333333333333333333333")
	fc := &fakeChain{
		members: func(common.Address) ([]common.Address, error) {
			return []common.Address{named, slow}, nil
		},
		lookup: func(ctx context.Context, addr common.Address) (string, error) {
			if addr == named {
				return "alice.eth", nil
			}
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	tb := &Toolbox{Chain: fc, Encoder: stubEncoder(), ReverseLookupTimeout: 10 * time.Millisecond}
	r, err := Build(tb)
	require.NoError(t, err)

	out := invoke(t, r, NameContributors, ContributorsInput{ContractAddress: contractAddr.Hex()})
	require.Contains(t, out, "- alice.eth: [`0x2222...2222`]")
	require.Contains(t, out, "- 0x3333...3333: [`0x3333...3333`]")
	require.Less(t, strings.Index(out, "alice.eth"), strings.Index(out, "0x3333...3333"))
}

func TestContributorsNone(t *testing.T) {
	out := invoke(t, newRegistry(t, &fakeChain{}, nil), NameContributors, ContributorsInput{ContractAddress: contractAddr.Hex()})
	require.Contains(t, out, "No Contributions Yet")
}

// ----------------------------------------------------------------------------
// Send funds
// ----------------------------------------------------------------------------

func TestSendFundsConfirmed(t *testing.T) {
	var gotPrice *big.Int
	var gotLimit uint64
	fc := &fakeChain{send: func(_ common.Address, wei, gasPrice *big.Int, gasLimit uint64) (common.Hash, error) {
		require.Equal(t, "100000000000000000", wei.String())
		gotPrice, gotLimit = gasPrice, gasLimit
		return sendHash, nil
	}}
	ledger := newFakeLedger()
	r := newRegistry(t, fc, ledger)

	out := invoke(t, r, NameSendFunds, SendFundsInput{Recipient: contractAddr.Hex(), AmountInEth: "0.1"})
	require.Contains(t, out, "Send Funds Successful!")
	require.Contains(t, out, sendHash.Hex())
	require.Contains(t, out, "- Block Number: 42")
	require.Contains(t, out, "- Value: 0.1 ETH")
	require.Equal(t, "1200000000", gotPrice.String())
	require.Equal(t, uint64(21000), gotLimit)
	require.Equal(t, domain.TxConfirmed, ledger.status(sendHash.Hex()))
}

func TestSendFundsUnconfirmed(t *testing.T) {
	fc := &fakeChain{waitMined: neverMined}
	ledger := newFakeLedger()
	r := newRegistry(t, fc, ledger)

	out := invoke(t, r, NameSendFunds, SendFundsInput{Recipient: contractAddr.Hex(), AmountInEth: "0.1"})
	require.Contains(t, out, "Transfer Submitted")
	require.Contains(t, out, sendHash.Hex())
	require.Contains(t, out, chain.ScanLink(sendHash.Hex(), chain.LinkTx))
	require.Equal(t, domain.TxPending, ledger.status(sendHash.Hex()))
}

func TestSendFundsResolvesNames(t *testing.T) {
	var sentTo common.Address
	fc := &fakeChain{
		resolve: func(_ context.Context, name string) (common.Address, error) {
			require.Equal(t, "iamchris.base.eth", name)
			return contractAddr, nil
		},
		send: func(to common.Address, _, _ *big.Int, _ uint64) (common.Hash, error) {
			sentTo = to
			return sendHash, nil
		},
	}
	out := invoke(t, newRegistry(t, fc, nil), NameSendFunds, SendFundsInput{Recipient: "iamchris.base.eth", AmountInEth: "0.1"})
	require.Contains(t, out, "Send Funds Successful!")
	require.Equal(t, contractAddr, sentTo)
}

func TestSendFundsNameErrors(t *testing.T) {
	notFound := &fakeChain{}
	out := invoke(t, newRegistry(t, notFound, nil), NameSendFunds, SendFundsInput{Recipient: "ghost.eth", AmountInEth: "0.1"})
	require.Contains(t, out, "Name Not Found")
	require.Contains(t, out, "ghost.eth")

	timeout := &fakeChain{resolve: func(context.Context, string) (common.Address, error) {
		return common.Address{}, chain.ErrResolutionTimeout
	}}
	out = invoke(t, newRegistry(t, timeout, nil), NameSendFunds, SendFundsInput{Recipient: "slow.eth", AmountInEth: "0.1"})
	require.Contains(t, out, "Transaction Failed")
	require.Contains(t, out, "ENS resolution timeout")
}

func TestSendFundsInsufficientFunds(t *testing.T) {
	fc := &fakeChain{send: func(common.Address, *big.Int, *big.Int, uint64) (common.Hash, error) {
		return common.Hash{}, errors.New("send transaction: insufficient funds for gas * price + value")
	}}
	out := invoke(t, newRegistry(t, fc, nil), NameSendFunds, SendFundsInput{Recipient: contractAddr.Hex(), AmountInEth: "5"})
	require.Equal(t, payload.SendInsufficientFunds(), out)
}

func TestSendFundsConvertsDollars(t *testing.T) {
	var sent *big.Int
	fc := &fakeChain{send: func(_ common.Address, wei, _ *big.Int, _ uint64) (common.Hash, error) {
		sent = wei
		return sendHash, nil
	}}
	invoke(t, newRegistry(t, fc, nil), NameSendFunds, SendFundsInput{Recipient: contractAddr.Hex(), AmountInEth: "20 USD"})
	require.Equal(t, "10000000000000000", sent.String())
}

// ----------------------------------------------------------------------------
// Deploy fundraiser
// ----------------------------------------------------------------------------

func TestDeployFundraiserConfirmed(t *testing.T) {
	var gotGoal, gotDuration, gotPrice *big.Int
	var gotLimit uint64
	fc := &fakeChain{deploy: func(_ common.Address, goalWei, duration, gasPrice *big.Int, gasLimit uint64) (chain.Deployment, error) {
		gotGoal, gotDuration, gotPrice, gotLimit = goalWei, duration, gasPrice, gasLimit
		return chain.Deployment{Address: contractAddr, TxHash: sendHash}, nil
	}}
	ledger := newFakeLedger()
	r := newRegistry(t, fc, ledger)

	ctx := identity.WithSessionID(context.Background(), "session-9")
	raw, _ := json.Marshal(DeployFundraiserInput{
		BeneficiaryAddress: agentAddr.Hex(),
		GoalAmount:         "2",
		FundraiserName:     "Community Garden",
	})
	out, err := r.Dispatch(ctx, NameDeployFundraise, raw)
	require.NoError(t, err)

	require.Contains(t, out, contractAddr.Hex())
	require.Contains(t, out, sendHash.Hex())
	require.Contains(t, out, `"qrCode":"data:image/png;base64,`)
	require.Contains(t, out, "Scan to Contribute 0.1 ETH")

	require.Equal(t, "2000000000000000000", gotGoal.String())
	require.Equal(t, "2592000", gotDuration.String())
	require.Equal(t, "1500000000", gotPrice.String())
	require.Equal(t, uint64(1_200_000), gotLimit)

	require.Len(t, ledger.fundraisers, 1)
	require.Equal(t, "Community Garden", ledger.fundraisers[0].Name)
	require.Equal(t, "session-9", ledger.fundraisers[0].SessionID)
	require.Equal(t, domain.TxConfirmed, ledger.status(sendHash.Hex()))
}

func TestDeployFundraiserPrefersUserWording(t *testing.T) {
	var gotGoal *big.Int
	fc := &fakeChain{deploy: func(_ common.Address, goalWei, _, _ *big.Int, _ uint64) (chain.Deployment, error) {
		gotGoal = goalWei
		return chain.Deployment{Address: contractAddr, TxHash: sendHash}, nil
	}}
	invoke(t, newRegistry(t, fc, nil), NameDeployFundraise, DeployFundraiserInput{
		BeneficiaryAddress: agentAddr.Hex(),
		GoalAmount:         "100",
		OriginalUserInput:  "start a fundraiser for 100 USD for my cat",
	})
	require.Equal(t, "50000000000000000", gotGoal.String())
}

func TestDeployFundraiserPending(t *testing.T) {
	fc := &fakeChain{waitMined: neverMined}
	out := invoke(t, newRegistry(t, fc, nil), NameDeployFundraise, DeployFundraiserInput{
		BeneficiaryAddress: agentAddr.Hex(), GoalAmount: "1",
	})
	require.Contains(t, out, "Deployment In Progress")
	require.Contains(t, out, sendHash.Hex())
}

func TestDeployFundraiserReceiptLookupFails(t *testing.T) {
	fc := &fakeChain{
		waitMined: neverMined,
		receiptOf: func(common.Hash) (*types.Receipt, error) { return nil, errors.New("rpc unavailable") },
	}
	out := invoke(t, newRegistry(t, fc, nil), NameDeployFundraise, DeployFundraiserInput{
		BeneficiaryAddress: agentAddr.Hex(), GoalAmount: "1",
	})
	require.Contains(t, out, "Deployment Submitted - Please Wait")
	require.Contains(t, out, sendHash.Hex())
}

func TestDeployFundraiserLateReceipt(t *testing.T) {
	late := common.HexToAddress("0x4444444444444444444444444444444444444444")
	fc := &fakeChain{
		waitMined: neverMined,
		receiptOf: func(common.Hash) (*types.Receipt, error) {
			return &types.Receipt{Status: types.ReceiptStatusSuccessful, ContractAddress: late, BlockNumber: big.NewInt(7)}, nil
		},
	}
	out := invoke(t, newRegistry(t, fc, nil), NameDeployFundraise, DeployFundraiserInput{
		BeneficiaryAddress: agentAddr.Hex(), GoalAmount: "1",
	})
	require.Contains(t, out, late.Hex())
}

func TestDeployFundraiserReverted(t *testing.T) {
	fc := &fakeChain{waitMined: func(context.Context, common.Hash) (*types.Receipt, error) {
		return &types.Receipt{Status: types.ReceiptStatusFailed}, chain.ErrReverted
	}}
	out := invoke(t, newRegistry(t, fc, nil), NameDeployFundraise, DeployFundraiserInput{
		BeneficiaryAddress: agentAddr.Hex(), GoalAmount: "1",
	})
	require.Contains(t, out, "Contract Deployment Failed")
	require.Contains(t, out, "contract deployment reverted")
}

func TestDeployFundraiserErrorClassification(t *testing.T) {
	fc := &fakeChain{deploy: func(common.Address, *big.Int, *big.Int, *big.Int, uint64) (chain.Deployment, error) {
		return chain.Deployment{}, errors.New("deploy contract: nonce too low")
	}}
	out := invoke(t, newRegistry(t, fc, nil), NameDeployFundraise, DeployFundraiserInput{
		BeneficiaryAddress: agentAddr.Hex(), GoalAmount: "1",
	})
	require.Contains(t, out, "Transaction Nonce Error")
}

func TestDeployFundraiserKeepsConfirmationWhenQRFails(t *testing.T) {
	tb := &Toolbox{
		Chain: &fakeChain{},
		Encoder: &payload.Encoder{Render: func(string, string) ([]byte, error) {
			return nil, errors.New("encoder exploded")
		}},
	}
	r, err := Build(tb)
	require.NoError(t, err)

	out := invoke(t, r, NameDeployFundraise, DeployFundraiserInput{BeneficiaryAddress: agentAddr.Hex(), GoalAmount: "1"})
	require.Contains(t, out, contractAddr.Hex())
	require.Contains(t, out, sendHash.Hex())
	require.Contains(t, out, "QR Code generation failed, but here are the details")
	require.Contains(t, out, "Suggested Amount: 0.05 ETH")
}

// ----------------------------------------------------------------------------
// Contribution QR
// ----------------------------------------------------------------------------

func TestGenerateQREmitsCanonicalReply(t *testing.T) {
	fc := &fakeChain{}
	out := invoke(t, newRegistry(t, fc, nil), NameGenerateQR, GenerateQRInput{
		ContractAddress: "0x111111111111111111111111111111111111aaaa",
		AmountInEth:     "0.05",
		FundraiserName:  "Garden",
	})
	require.Zero(t, fc.calls.Load())

	parsed := payload.Parse(out)
	require.Equal(t, payload.ClassQRResponse, parsed.Class)
	require.True(t, strings.HasPrefix(parsed.QRCode, "data:image/png;base64,"))
	require.Contains(t, parsed.QRMessage, "0.05 ETH")
	require.Contains(t, parsed.QRMessage, "0x1111...aaaa")
}

func TestGenerateQRRejectsBadAmount(t *testing.T) {
	out := invoke(t, newRegistry(t, &fakeChain{}, nil), NameGenerateQR, GenerateQRInput{
		ContractAddress: contractAddr.Hex(),
		AmountInEth:     "lots",
	})
	require.Contains(t, out, "Invalid Amount")
}

func TestGenerateQRRenderFailure(t *testing.T) {
	var renders atomic.Int32
	tb := &Toolbox{Encoder: &payload.Encoder{Render: func(string, string) ([]byte, error) {
		renders.Add(1)
		return nil, errors.New("boom")
	}}}
	r, err := Build(tb)
	require.NoError(t, err)
	out := invoke(t, r, NameGenerateQR, GenerateQRInput{ContractAddress: contractAddr.Hex(), AmountInEth: "0.01"})
	require.Contains(t, out, "QR Code Error")
	require.EqualValues(t, 1, renders.Load())
}
