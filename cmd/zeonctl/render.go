package main

import (
	"fmt"
	"strings"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/ashureev/zeon-hybrid/internal/qr"
)

// renderText styles the inline entities of reply text for a terminal.
func renderText(text string) string {
	var b strings.Builder
	for _, s := range payload.Tokenize(text) {
		switch s.Kind {
		case payload.SegmentBold:
			b.WriteString(boldStyle.Render(s.Value))
		case payload.SegmentURL:
			b.WriteString(linkStyle.Render(s.Value))
		case payload.SegmentAddress:
			b.WriteString(addressStyle.Render(s.Value))
		case payload.SegmentTxHash:
			b.WriteString(addressStyle.Render(chain.Short(s.Value)) + " " +
				mutedStyle.Render("("+chain.ScanLink(s.Value, chain.LinkTx)+")"))
		default:
			b.WriteString(s.Value)
		}
	}
	return b.String()
}

// renderParsed renders a classified reply. The QR image itself is summarized
// since terminals cannot show it.
func renderParsed(p payload.Parsed) string {
	var b strings.Builder
	text := renderText(p.Text)
	if p.Error {
		text = errorStyle.Render(p.Text)
	}
	b.WriteString(text)

	if p.QRCode != "" {
		summary := "QR code"
		if img, err := qr.DecodeDataURL(p.QRCode); err == nil {
			summary = fmt.Sprintf("QR code (%d byte PNG)", len(img))
		}
		body := mutedStyle.Render("[" + summary + "]")
		if p.QRMessage != "" && p.QRMessage != p.Text {
			body = renderText(p.QRMessage) + "\n" + body
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(qrBoxStyle.Render(body))
	}
	if p.TransactionHash != "" {
		b.WriteString("\n" + infoStyle.Render("Transaction: ") + chain.ScanLink(p.TransactionHash, chain.LinkTx))
	}
	return b.String()
}
