package payload

import (
	"fmt"
	"strings"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/qr"
)

// QRCodePayload is a rendered payment QR with its accompanying message.
// QRCode is always a data:image/png;base64 URL.
type QRCodePayload struct {
	Message string `json:"message"`
	QRCode  string `json:"qrCode"`
}

// RenderFunc turns QR content into PNG bytes.
type RenderFunc func(data, description string) ([]byte, error)

// Encoder builds QR payloads. The zero value renders with qr.EncodeFor.
type Encoder struct {
	Render RenderFunc
}

// NewEncoder returns an Encoder using the default QR renderer.
func NewEncoder() *Encoder {
	return &Encoder{Render: qr.EncodeFor}
}

func (e *Encoder) render(data, description string) (string, error) {
	render := e.Render
	if render == nil {
		render = qr.EncodeFor
	}
	img, err := render(data, description)
	if err != nil {
		return "", err
	}
	return qr.DataURL(img), nil
}

// QRPayload renders an EIP-681 payment request for amountEth to addr.
// An invalid address or amount yields a *Error carrying the user-facing
// message; rendering failures are wrapped.
func (e *Encoder) QRPayload(addr, amountEth, label string) (QRCodePayload, error) {
	if !chain.IsValidAddress(addr) {
		return QRCodePayload{}, InvalidAddress(RoleContract, addr)
	}
	amountEth = strings.TrimSpace(amountEth)
	wei, err := chain.ParseEther(amountEth)
	if err != nil {
		return QRCodePayload{}, InvalidAmount(amountEth, err)
	}
	if label == "" {
		label = DefaultFundraiserName
	}

	uri := fmt.Sprintf("ethereum:%s?value=%s", addr, wei.String())
	dataURL, err := e.render(uri, "Contribution QR for "+label)
	if err != nil {
		return QRCodePayload{}, fmt.Errorf("QR Code Generation Failed: %w", err)
	}

	return QRCodePayload{
		Message: contributionMessage(addr, amountEth, label),
		QRCode:  dataURL,
	}, nil
}

// ContractQR renders a contract interaction request. data is hex call data
// and value is wei; both are optional.
func (e *Encoder) ContractQR(addr, data, value string) (QRCodePayload, error) {
	if !chain.IsValidAddress(addr) {
		return QRCodePayload{}, InvalidAddress(RoleContract, addr)
	}
	uri := "ethereum:" + addr
	var params []string
	if data != "" {
		params = append(params, "data="+data)
	}
	if value != "" {
		params = append(params, "value="+value)
	}
	if len(params) > 0 {
		uri += "?" + strings.Join(params, "&")
	}

	dataURL, err := e.render(uri, "Contract Interaction QR Code")
	if err != nil {
		return QRCodePayload{}, err
	}
	return QRCodePayload{
		Message: fmt.Sprintf("Scan this QR code to interact with the contract:\n\nContract Address: `%s`", addr),
		QRCode:  dataURL,
	}, nil
}

func contributionMessage(addr, amount, name string) string {
	return fmt.Sprintf(`📱 Scan to Contribute %[1]s ETH

🎯 **%[2]s**
💰 Amount: %[1]s ETH
📍 Contract: [%[3]s](%[4]s)

Scan with your mobile wallet and confirm the transaction to support this fundraiser!`,
		amount, name, chain.Short(addr), chain.ScanLink(addr, chain.LinkAddress))
}
