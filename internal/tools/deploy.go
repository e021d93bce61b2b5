package tools

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/domain"
	"github.com/ashureev/zeon-hybrid/internal/fundraiser"
	"github.com/ashureev/zeon-hybrid/internal/identity"
	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//nolint:staticcheck // shown to the user verbatim.
var errDeployReverted = errors.New("Transaction failed - contract deployment reverted")

func (tb *Toolbox) deployFundraiser(ctx context.Context, in DeployFundraiserInput) string {
	name := strings.TrimSpace(in.FundraiserName)
	if name == "" {
		name = payload.DefaultFundraiserName
	}
	durationText := in.DurationInSeconds.String()
	if durationText == "" {
		durationText = defaultDurationSec
	}
	goal := goalAmount(in)

	if !chain.IsValidAddress(in.BeneficiaryAddress) {
		tb.Logger.Info("Invalid beneficiary address", "address", in.BeneficiaryAddress)
		return payload.InvalidAddress(payload.RoleBeneficiary, in.BeneficiaryAddress).Message
	}
	if tb.Chain == nil {
		return payload.DeployError(chain.ErrNotReady)
	}

	goalWei, err := chain.ParseEther(goal)
	if err != nil {
		return payload.DeployError(err)
	}
	duration, ok := new(big.Int).SetString(durationText, 10)
	if !ok || duration.Sign() <= 0 {
		return payload.DeployError(fmt.Errorf("invalid duration %q", durationText))
	}

	price, err := tb.Chain.SuggestGasPrice(ctx)
	if err != nil {
		return payload.DeployError(err)
	}

	tb.Logger.Info("Deploying fundraiser",
		"beneficiary", in.BeneficiaryAddress, "goal_eth", goal, "duration", durationText, "name", name)
	dep, err := tb.Chain.DeployFundraiser(ctx, common.HexToAddress(in.BeneficiaryAddress),
		goalWei, duration, chain.BumpGasPrice(price, deployGasPercent), deployGasLimit)
	if err != nil {
		tb.Logger.Error("Error deploying contract", "error", err)
		return payload.DeployError(err)
	}

	txHash := dep.TxHash.Hex()
	sessionID := identity.SessionIDFromContext(ctx)
	tb.recordTransaction(ctx, &domain.Transaction{
		Hash:      txHash,
		Kind:      domain.TxKindDeploy,
		From:      tb.Chain.Address().Hex(),
		ValueEth:  "0",
		Status:    domain.TxPending,
		SessionID: sessionID,
		CreatedAt: time.Now(),
	})

	receipt, err := tb.waitMined(ctx, dep.TxHash)
	switch {
	case errors.Is(err, chain.ErrReverted):
		tb.settleTransaction(ctx, txHash, domain.TxFailed, blockOf(receipt))
		return payload.DeployError(errDeployReverted)
	case err != nil:
		tb.Logger.Info("Deployment confirmation taking longer, checking receipt", "tx_hash", txHash)
		receipt, err = tb.Chain.ReceiptOf(ctx, dep.TxHash)
		if err != nil {
			return payload.DeploySubmitted(txHash)
		}
		if receipt == nil {
			return payload.DeployPending(txHash)
		}
		if receipt.Status == types.ReceiptStatusFailed {
			tb.settleTransaction(ctx, txHash, domain.TxFailed, blockOf(receipt))
			return payload.DeployError(errDeployReverted)
		}
	}

	contract := dep.Address
	if receipt != nil && receipt.ContractAddress != (common.Address{}) {
		contract = receipt.ContractAddress
	}
	tb.settleTransaction(ctx, txHash, domain.TxConfirmed, blockOf(receipt))

	durationSec := duration.Int64()
	tb.recordFundraiser(ctx, &domain.Fundraiser{
		ContractAddress: contract.Hex(),
		TxHash:          txHash,
		Beneficiary:     common.HexToAddress(in.BeneficiaryAddress).Hex(),
		Name:            name,
		GoalEth:         goal,
		DurationSeconds: durationSec,
		SessionID:       sessionID,
		CreatedAt:       time.Now(),
	})
	tb.Logger.Info("Contract deployed", "contract", contract.Hex(), "tx_hash", txHash)

	suggested := fundraiser.SuggestedContribution(goal)
	attachment := payload.AttachNote(payload.QRFallbackNote(contract.Hex(), suggested))
	if qrPayload, err := tb.Encoder.QRPayload(contract.Hex(), suggested, name); err != nil {
		tb.Logger.Error("QR generation failed", "contract", contract.Hex(), "error", err)
	} else {
		attachment = payload.AttachQR(qrPayload)
	}

	return payload.EncodeDeployResponse(contract.Hex(), txHash, name, goal, attachment)
}

// goalAmount prefers the amount stated in the user's own words, then the
// model's goal argument, and finally the raw argument as given.
func goalAmount(in DeployFundraiserInput) string {
	if in.OriginalUserInput != "" {
		if amt, err := fundraiser.ParseAmount(in.OriginalUserInput); err == nil {
			return amt
		}
	}
	raw := in.GoalAmount.String()
	if amt, err := fundraiser.ParseAmount(raw); err == nil {
		return amt
	}
	return raw
}
