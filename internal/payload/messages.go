package payload

import (
	"fmt"
	"strings"

	"github.com/ashureev/zeon-hybrid/internal/chain"
)

const (
	// DefaultFundraiserName labels fundraisers deployed without a name.
	DefaultFundraiserName = "Fundraiser"

	FaucetURL = "https://www.coinbase.com/faucets/base-ethereum-sepolia-faucet"
)

// Send funds.

func InvalidRecipient(recipient string) string {
	return fmt.Sprintf("❌ Invalid Recipient\nThe recipient `%s` is not a valid wallet address or ENS/.base name. Please check and try again.", recipient)
}

func NameNotFound(name string) string {
	return fmt.Sprintf("❌ Name Not Found\nI could not resolve the name `%s`. Please ensure it's a valid and registered ENS or .base name on the correct network.", name)
}

func SendInsufficientFunds() string {
	return "❌ Insufficient Funds\nThe wallet does not have enough ETH to complete this transaction (including gas fees)."
}

func SendFailed(msg string) string {
	return "❌ Transaction Failed\nI encountered an error while trying to send the funds: " + msg
}

// SendSubmitted reports a transfer that was broadcast but not confirmed
// within the wait window.
func SendSubmitted(txHash, to, value string) string {
	return fmt.Sprintf(`⏳ **Transfer Submitted**

Your transfer of %s ETH to `+"`%s`"+` has been submitted but is not confirmed yet.

🔗 **Transaction Hash:** `+"`%s`"+`
📍 **Track Progress:** [Base Sepolia Scan](%s)

Please check back in a few minutes or monitor the transaction using the link above.`,
		value, to, txHash, chain.ScanLink(txHash, chain.LinkTx))
}

// Deploy fundraiser.

// DeployPending is returned when confirmation timed out and the receipt is
// not available yet.
func DeployPending(txHash string) string {
	return fmt.Sprintf(`⏳ **Deployment In Progress**

Your fundraiser deployment transaction has been submitted successfully!

📋 **Progress:** 
✅ Step 1/5: Parameters prepared
✅ Step 2/5: Validation completed  
✅ Step 3/5: Gas optimized (50%% higher for speed)
✅ Step 4/5: Transaction submitted
⏳ Step 5/5: Waiting for blockchain confirmation...

🔗 **Transaction Hash:** `+"`%s`"+`
📍 **View Status:** [Base Sepolia Scan](%s)

**What's happening:**
- Your transaction is being processed by the network
- Enhanced gas settings should speed up confirmation (1-2 minutes)
- You can check the transaction status using the link above
- Once confirmed, your fundraiser will be live with QR code!

**Note:** The contract deployment is in progress. Please check back in a few minutes or monitor the transaction using the provided link.`,
		txHash, chain.ScanLink(txHash, chain.LinkTx))
}

// DeploySubmitted is returned when confirmation timed out and the receipt
// lookup itself failed.
func DeploySubmitted(txHash string) string {
	return fmt.Sprintf(`⏳ **Deployment Submitted - Please Wait**

Your fundraiser deployment has been submitted to the blockchain!

📋 **Progress:** 
✅ Step 1/5: Parameters prepared
✅ Step 2/5: Validation completed  
✅ Step 3/5: Gas optimized for speed
✅ Step 4/5: Transaction submitted
⏳ Step 5/5: Processing on blockchain...

🔗 **Transaction Hash:** `+"`%s`"+`
📍 **Track Progress:** [Base Sepolia Scan](%s)

**Status:** Transaction is being processed by the network (enhanced gas should make this faster!)

**Next Steps:**
1. Monitor the transaction using the link above
2. Once confirmed, your fundraiser will be live
3. You'll automatically get a QR code for contributions

**Tip:** With our enhanced gas settings, this should be faster than usual!`,
		txHash, chain.ScanLink(txHash, chain.LinkTx))
}

// DeployError maps a deployment failure to its remediation message.
func DeployError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return `❌ **Insufficient Funds**

Your wallet doesn't have enough ETH to deploy the contract.

**Required:**
- Contract deployment gas: ~0.01-0.02 ETH
- Network: Base Sepolia testnet

**Solutions:**
1. Get testnet ETH from the [Base Sepolia Faucet](` + FaucetURL + `)
2. Make sure you're connected to Base Sepolia network
3. Try again once you have sufficient testnet ETH

**Wallet Balance Check:** You can check your balance by asking "What's my wallet balance?"`
	case strings.Contains(msg, "nonce"):
		return `🔄 **Transaction Nonce Error**

There was a nonce conflict. Please try the deployment again.

**This usually happens when:**
- Multiple transactions are sent too quickly
- Network latency causes timing issues

**Solution:** Simply try deploying the fundraiser again.`
	}
	return `❌ **Contract Deployment Failed**

I encountered an error while deploying your fundraiser contract.

**Error:** ` + msg + `

**Common Solutions:**
1. **Insufficient Funds:** Get testnet ETH from the Base Sepolia faucet
2. **Network Issues:** Try again in a few minutes
3. **Gas Price:** The network might be congested

**Need Help?** 
- Check your wallet balance: "What's my wallet balance?"
- Get testnet ETH: [Base Sepolia Faucet](` + FaucetURL + `)
- Try deploying again with the same parameters

Would you like me to try deploying again?`
}

// QRFallbackNote replaces the QR attachment when rendering failed after a
// successful deployment.
func QRFallbackNote(contract, suggested string) string {
	return fmt.Sprintf(`**QR Code generation failed, but here are the details:**

📍 Contract Address: `+"`%s`"+`
💰 Suggested Amount: %s ETH
🔗 View Contract: [Base Sepolia Scan](%s)

You can manually send contributions to the contract address above.`,
		contract, suggested, chain.ScanLink(contract, chain.LinkAddress))
}

// QR tool.

func QRError(msg string) string {
	return "❌ QR Code Error\nI encountered an error while generating the QR code: " + msg
}

// Contributors and status.

// Contributor is one row of the contributors list. Name is the reverse ENS
// name and may be empty.
type Contributor struct {
	Address string
	Name    string
}

func ContributorsNone(contract string) string {
	return fmt.Sprintf("🤔 No Contributions Yet\nThis fundraiser hasn't received any contributions. Be the first!\n\n🔍 View Contract: [%s](%s)",
		chain.Short(contract), chain.ScanLink(contract, chain.LinkAddress))
}

func ContributorsList(contract string, contributors []Contributor) string {
	if len(contributors) == 0 {
		return ContributorsNone(contract)
	}
	rows := make([]string, 0, len(contributors))
	for _, c := range contributors {
		short := chain.Short(c.Address)
		label := c.Name
		if label == "" {
			label = short
		}
		rows = append(rows, fmt.Sprintf("- %s: [`%s`](%s)", label, short, chain.ScanLink(c.Address, chain.LinkAddress)))
	}
	return fmt.Sprintf("👥 Contributors for Fundraiser\n\nHere are the amazing people who have contributed:\n%s\n\n---\n🔍 View Contract: [%s](%s)",
		strings.Join(rows, "\n"), chain.Short(contract), chain.ScanLink(contract, chain.LinkAddress))
}

func ContributorsError(msg string) string {
	return "❌ Could Not Get Contributors\nI was unable to fetch the contributor list for this fundraiser.\nError: " + msg
}

func FundraiserStatus(contract string, active bool) string {
	status := "❌ Ended: This fundraiser has ended and can no longer accept contributions."
	if active {
		status = "✅ Active: This fundraiser is currently accepting contributions."
	}
	return fmt.Sprintf("📊 Fundraiser Status\n\n%s\n\n---\n🔍 View Contract: [`%s`](%s)",
		status, chain.Short(contract), chain.ScanLink(contract, chain.LinkAddress))
}

func StatusError(msg string) string {
	return "❌ Could Not Check Status\nI was unable to check the status of this fundraiser.\nError: " + msg
}

// Balance.

func WalletBalance(addr, eth string) string {
	return fmt.Sprintf("💰 Wallet Balance\n\n- Address: [`%s`](%s)\n- Balance: %s ETH (on Base Sepolia)",
		chain.Short(addr), chain.ScanLink(addr, chain.LinkAddress), eth)
}

func BalanceError(msg string) string {
	return "❌ Could Not Check Balance\nI was unable to check the balance of this wallet.\nError: " + msg
}
