package tools

import (
	"context"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

const maxParallelLookups = 8

func (tb *Toolbox) contributors(ctx context.Context, in ContributorsInput) string {
	if !chain.IsValidAddress(in.ContractAddress) {
		return payload.InvalidAddress(payload.RoleContract, in.ContractAddress).Message
	}
	if tb.Chain == nil {
		return payload.ContributorsError(chain.ErrNotReady.Error())
	}

	addrs, err := tb.Chain.Contributors(ctx, common.HexToAddress(in.ContractAddress))
	if err != nil {
		tb.Logger.Error("Error getting contributors", "contract", in.ContractAddress, "error", err)
		return payload.ContributorsError(err.Error())
	}
	if len(addrs) == 0 {
		return payload.ContributorsNone(in.ContractAddress)
	}

	// Reverse names are decoration; a failed or slow lookup leaves the
	// short address in place.
	list := make([]payload.Contributor, len(addrs))
	var g errgroup.Group
	g.SetLimit(maxParallelLookups)
	for i, addr := range addrs {
		list[i].Address = addr.Hex()
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(ctx, tb.ReverseLookupTimeout)
			defer cancel()
			if name, err := tb.Chain.LookupAddress(lookupCtx, addr); err == nil {
				list[i].Name = name
			}
			return nil
		})
	}
	_ = g.Wait()

	return payload.ContributorsList(in.ContractAddress, list)
}

func (tb *Toolbox) status(ctx context.Context, in StatusInput) string {
	if !chain.IsValidAddress(in.ContractAddress) {
		return payload.InvalidAddress(payload.RoleContract, in.ContractAddress).Message
	}
	if tb.Chain == nil {
		return payload.StatusError(chain.ErrNotReady.Error())
	}

	active, err := tb.Chain.IsFundraiserActive(ctx, common.HexToAddress(in.ContractAddress))
	if err != nil {
		tb.Logger.Error("Error checking fundraiser status", "contract", in.ContractAddress, "error", err)
		return payload.StatusError(err.Error())
	}
	return payload.FundraiserStatus(in.ContractAddress, active)
}
