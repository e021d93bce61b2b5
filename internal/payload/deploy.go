package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashureev/zeon-hybrid/internal/chain"
)

// QRAttachment is the trailing segment of a deploy response: either a
// rendered QR payload or a free-form note explaining why there is none.
type QRAttachment struct {
	QR   *QRCodePayload
	Note string
}

// AttachQR attaches a rendered payload.
func AttachQR(p QRCodePayload) QRAttachment {
	return QRAttachment{QR: &p}
}

// AttachNote attaches a string. A string that already holds QR JSON passes
// through untouched; anything else is shown as a plain note.
func AttachNote(note string) QRAttachment {
	return QRAttachment{Note: note}
}

func (a QRAttachment) segment() string {
	if a.QR != nil && a.QR.QRCode != "" && a.QR.Message != "" {
		return marshalQR(*a.QR)
	}
	return a.Note
}

func marshalQR(p QRCodePayload) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(p)
	return strings.TrimSuffix(buf.String(), "\n")
}

// EncodeDeployResponse renders the confirmation for a mined fundraiser
// deployment. The QR attachment, when present, follows the confirmation as
// its own paragraph so a QR failure never hides the deployment details.
func EncodeDeployResponse(contract, txHash, name, goal string, qr QRAttachment) string {
	if name == "" {
		name = DefaultFundraiserName
	}
	main := fmt.Sprintf(`🎉 *%s* is Live!

Your fundraiser has been successfully deployed on Base Sepolia!

📋 *Deployment Progress:* 
✅ Step 1/5: Parameters prepared
✅ Step 2/5: Validation completed  
✅ Step 3/5: Gas optimized for speed
✅ Step 4/5: Transaction submitted
✅ Step 5/5: Blockchain confirmation received

📋 *Details:*
• Goal: %s ETH
• Contract: %s (view at %s)
• Transaction: %s (view at %s)

🚀 *Your fundraiser is now ready to receive contributions!*

*Share these details:*
- Contract Address: %s
- Goal Amount: %s ETH
- Network: Base Sepolia

*Need help?* Ask me to generate additional QR codes for different contribution amounts!`,
		name,
		goal,
		chain.Short(contract), chain.ScanLink(contract, chain.LinkAddress),
		chain.Short(txHash), chain.ScanLink(txHash, chain.LinkTx),
		contract,
		goal,
	)

	if seg := qr.segment(); seg != "" {
		return main + "\n\n" + seg
	}
	return main
}
