package tools

import (
	"context"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/ethereum/go-ethereum/common"
)

func (tb *Toolbox) checkBalance(ctx context.Context, in CheckBalanceInput) string {
	if !chain.IsValidAddress(in.Address) {
		return payload.InvalidAddress(payload.RoleWallet, in.Address).Message
	}
	if tb.Chain == nil {
		return payload.BalanceError(chain.ErrNotReady.Error())
	}

	wei, err := tb.Chain.Balance(ctx, common.HexToAddress(in.Address))
	if err != nil {
		tb.Logger.Error("Error checking wallet balance", "address", in.Address, "error", err)
		return payload.BalanceError(err.Error())
	}
	return payload.WalletBalance(in.Address, chain.FormatEther(wei))
}
