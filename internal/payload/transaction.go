package payload

import (
	"fmt"
	"strings"

	"github.com/ashureev/zeon-hybrid/internal/chain"
)

// TxDetails are the optional facts listed under a transaction confirmation.
// Empty fields are omitted.
type TxDetails struct {
	BlockNumber uint64
	GasUsed     string
	GasPrice    string // gwei
	From        string
	To          string
	Value       string // ETH
}

// FormatTransactionResponse renders a confirmed transaction.
func FormatTransactionResponse(txHash, action string, details *TxDetails) string {
	if !chain.IsValidTxHash(txHash) {
		return fmt.Sprintf("❌ Invalid Transaction Hash\nThe transaction hash '%s' appears to be invalid.", txHash)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "✅ *%s Successful!*\n\n🔗 *Transaction Hash:* %s\n   View on Base Sepolia Scan: %s",
		action, txHash, chain.ScanLink(txHash, chain.LinkTx))

	if details != nil {
		b.WriteString("\n\n📋 *Transaction Details:*")
		if details.BlockNumber != 0 {
			fmt.Fprintf(&b, "\n- Block Number: %d", details.BlockNumber)
		}
		if details.GasUsed != "" {
			fmt.Fprintf(&b, "\n- Gas Used: %s", details.GasUsed)
		}
		if details.GasPrice != "" {
			fmt.Fprintf(&b, "\n- Gas Price: %s gwei", details.GasPrice)
		}
		if details.From != "" {
			fmt.Fprintf(&b, "\n- From: %s", details.From)
		}
		if details.To != "" {
			fmt.Fprintf(&b, "\n- To: %s", details.To)
		}
		if details.Value != "" {
			fmt.Fprintf(&b, "\n- Value: %s ETH", details.Value)
		}
	}
	return b.String()
}
