// Package payload composes agent replies for the chat client and parses them
// back into renderable structure.
//
// Replies travel as a tagged Reply object. Older clients and stored
// transcripts still carry the hybrid string forms (plain text, JSON that may
// be encoded twice, markdown with an inline base64 image); Parse accepts all
// of them.
package payload

import (
	"encoding/json"
	"strings"
)

// Kind tags a Reply.
type Kind string

const (
	KindText  Kind = "text"
	KindQR    Kind = "qr"
	KindError Kind = "error"
)

// Reply is the canonical wire object for an agent reply.
type Reply struct {
	Kind            Kind   `json:"kind"`
	Text            string `json:"text"`
	QRCode          string `json:"qrCode,omitempty"`
	QRMessage       string `json:"qrMessage,omitempty"`
	TransactionHash string `json:"transactionHash,omitempty"`
}

// TextReply wraps plain text.
func TextReply(text string) Reply {
	return Reply{Kind: KindText, Text: text}
}

// ErrorReply wraps a user-facing failure message.
func ErrorReply(text string) Reply {
	return Reply{Kind: KindError, Text: text}
}

// QRReply wraps a QR payload. text is the surrounding reply and may be empty,
// in which case the QR message doubles as the text.
func QRReply(text string, qr QRCodePayload, txHash string) Reply {
	if text == "" {
		text = qr.Message
	}
	return Reply{
		Kind:            KindQR,
		Text:            text,
		QRCode:          qr.QRCode,
		QRMessage:       qr.Message,
		TransactionHash: txHash,
	}
}

// Encode serializes the reply. Marshalling a struct of strings cannot fail.
func (r Reply) Encode() string {
	b, _ := json.Marshal(r)
	return string(b)
}

// ReplyFor derives the canonical reply from any accepted reply form.
func ReplyFor(content string) Reply {
	return Parse(content).Reply()
}

// Reply converts a parse result to the canonical object.
func (p Parsed) Reply() Reply {
	switch {
	case p.QRCode != "":
		return Reply{
			Kind:            KindQR,
			Text:            p.Text,
			QRCode:          p.QRCode,
			QRMessage:       p.QRMessage,
			TransactionHash: p.TransactionHash,
		}
	case p.Error || strings.HasPrefix(strings.TrimSpace(p.Text), "❌"):
		return ErrorReply(p.Text)
	default:
		return TextReply(p.Text)
	}
}
