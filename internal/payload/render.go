package payload

import (
	"html/template"
	"regexp"
	"strings"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/fundraiser"
)

var (
	fullAddressPattern = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)
	ethAmountPattern   = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*ETH`)
)

// RenderHTML renders a parsed reply as an HTML fragment for the web client.
// Addresses get copy buttons, transaction hashes link to the explorer and a
// QR reply shows the image with a Coinbase Wallet deep link when the QR
// message names both an address and an ETH amount.
func RenderHTML(p Parsed) template.HTML {
	var b strings.Builder
	class := "message-content"
	if p.Error {
		class += " message-error"
	}
	b.WriteString(`<div class="` + class + `">`)
	b.WriteString(`<div class="message-text">`)
	writeSegments(&b, p.Segments)
	b.WriteString(`</div>`)
	if strings.HasPrefix(p.QRCode, "data:image/") {
		writeQR(&b, p)
	}
	b.WriteString(`</div>`)
	return template.HTML(b.String())
}

func writeSegments(b *strings.Builder, segs []Segment) {
	for _, s := range segs {
		v := template.HTMLEscapeString(s.Value)
		switch s.Kind {
		case SegmentURL:
			b.WriteString(`<a href="` + v + `" target="_blank" rel="noopener noreferrer">` + v + `</a>`)
		case SegmentBold:
			b.WriteString(`<strong>` + v + `</strong>`)
		case SegmentAddress:
			b.WriteString(`<span class="address"><code>` + v + `</code>`)
			writeCopyButton(b, v)
			b.WriteString(`</span>`)
		case SegmentTxHash:
			link := template.HTMLEscapeString(chain.ScanLink(s.Value, chain.LinkTx))
			b.WriteString(`<span class="tx-hash"><a href="` + link + `" target="_blank" rel="noopener noreferrer">` +
				template.HTMLEscapeString(chain.Short(s.Value)) + `</a>`)
			writeCopyButton(b, v)
			b.WriteString(`</span>`)
		default:
			b.WriteString(v)
		}
	}
}

func writeCopyButton(b *strings.Builder, escaped string) {
	b.WriteString(`<button type="button" class="copy" data-copy="` + escaped + `">Copy</button>`)
}

func writeQR(b *strings.Builder, p Parsed) {
	b.WriteString(`<div class="qr-code-container">`)
	b.WriteString(`<img class="qr-code-png" src="` + template.HTMLEscapeString(p.QRCode) + `" alt="Contribution QR Code">`)

	if p.QRMessage != "" && p.QRMessage != p.Text {
		b.WriteString(`<div class="qr-message">`)
		writeSegments(b, Tokenize(p.QRMessage))
		b.WriteString(`</div>`)
	}

	addr := fullAddressPattern.FindString(p.QRMessage)
	if addr != "" {
		if m := ethAmountPattern.FindStringSubmatch(p.QRMessage); m != nil {
			if link, err := fundraiser.CoinbaseWalletLink(addr, m[1], chain.ChainIDBaseSepolia); err == nil {
				amount := template.HTMLEscapeString(m[1])
				b.WriteString(`<a class="coinbase-wallet-link" href="` + template.HTMLEscapeString(link) +
					`" title="Contribute ` + amount + ` ETH via Coinbase Wallet">Contribute ` + amount + ` ETH via Coinbase Wallet ↗</a>`)
			}
		}
		v := template.HTMLEscapeString(addr)
		b.WriteString(`<div class="wallet-address"><span class="address-text">` + v + `</span>`)
		writeCopyButton(b, v)
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
}
