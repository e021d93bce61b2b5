package tools

import (
	"context"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/payload"
)

// generateQR never touches the chain: the QR encodes a payment request that
// the contributor's own wallet submits.
func (tb *Toolbox) generateQR(_ context.Context, in GenerateQRInput) string {
	if !chain.IsValidAddress(in.ContractAddress) {
		return payload.InvalidAddress(payload.RoleContract, in.ContractAddress).Message
	}

	qrPayload, err := tb.Encoder.QRPayload(in.ContractAddress, in.AmountInEth.String(), in.FundraiserName)
	if err != nil {
		if msg, ok := userMessage(err); ok {
			return msg
		}
		tb.Logger.Error("Error generating QR code", "contract", in.ContractAddress, "error", err)
		return payload.QRError(err.Error())
	}
	return payload.QRReply("", qrPayload, "").Encode()
}
