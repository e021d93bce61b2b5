package tools

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/domain"
	"github.com/ashureev/zeon-hybrid/internal/fundraiser"
	"github.com/ashureev/zeon-hybrid/internal/identity"
	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/ethereum/go-ethereum/common"
)

func (tb *Toolbox) sendFunds(ctx context.Context, in SendFundsInput) string {
	recipient := strings.TrimSpace(in.Recipient)
	amount := in.AmountInEth.String()
	if fundraiser.MentionsUSD(amount) {
		parsed, err := fundraiser.ParseAmount(amount)
		if err != nil {
			return payload.SendFailed(err.Error())
		}
		amount = parsed
	}

	if tb.Chain == nil {
		return payload.SendFailed(chain.ErrNotReady.Error())
	}

	var to common.Address
	switch {
	case strings.Contains(recipient, "."):
		addr, err := tb.Chain.ResolveName(ctx, recipient)
		if errors.Is(err, chain.ErrNameNotFound) {
			return payload.NameNotFound(recipient)
		}
		if err != nil {
			tb.Logger.Warn("Name resolution failed", "name", recipient, "error", err)
			return payload.SendFailed(err.Error())
		}
		tb.Logger.Info("Resolved name", "name", recipient, "address", addr.Hex())
		to = addr
	case chain.IsValidAddress(recipient):
		to = common.HexToAddress(recipient)
	default:
		return payload.InvalidRecipient(recipient)
	}

	wei, err := chain.ParseEther(amount)
	if err != nil {
		return payload.SendFailed(err.Error())
	}
	price, err := tb.Chain.SuggestGasPrice(ctx)
	if err != nil {
		return payload.SendFailed(err.Error())
	}

	tb.Logger.Info("Sending funds", "to", to.Hex(), "amount_eth", amount)
	hash, err := tb.Chain.SendValue(ctx, to, wei, chain.BumpGasPrice(price, sendGasPercent), sendGasLimit)
	if err != nil {
		tb.Logger.Error("Error sending funds", "to", to.Hex(), "error", err)
		if isInsufficientFunds(err) {
			return payload.SendInsufficientFunds()
		}
		return payload.SendFailed(err.Error())
	}

	from := tb.Chain.Address().Hex()
	tb.recordTransaction(ctx, &domain.Transaction{
		Hash:      hash.Hex(),
		Kind:      domain.TxKindSend,
		From:      from,
		To:        to.Hex(),
		ValueEth:  amount,
		Status:    domain.TxPending,
		SessionID: identity.SessionIDFromContext(ctx),
		CreatedAt: time.Now(),
	})

	receipt, err := tb.waitMined(ctx, hash)
	if errors.Is(err, chain.ErrReverted) {
		tb.settleTransaction(ctx, hash.Hex(), domain.TxFailed, blockOf(receipt))
		return payload.SendFailed(err.Error())
	}
	if err != nil {
		tb.Logger.Info("Transfer not confirmed within wait window", "tx_hash", hash.Hex(), "error", err)
		return payload.SendSubmitted(hash.Hex(), to.Hex(), amount)
	}

	tb.settleTransaction(ctx, hash.Hex(), domain.TxConfirmed, blockOf(receipt))
	return payload.FormatTransactionResponse(hash.Hex(), "Send Funds", &payload.TxDetails{
		BlockNumber: blockOf(receipt),
		GasUsed:     gasUsedOf(receipt),
		From:        from,
		To:          to.Hex(),
		Value:       amount,
	})
}
