package payload

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Class is the shape a reply was recognised as.
type Class string

const (
	ClassText        Class = "text"
	ClassQRResponse  Class = "qr_response"
	ClassJSONMessage Class = "json_message"
	ClassMarkdownQR  Class = "markdown_qr"
)

// Parsed is the renderable structure extracted from a reply.
type Parsed struct {
	Class           Class
	Text            string
	QRCode          string
	QRMessage       string
	TransactionHash string
	Error           bool
	Segments        []Segment
	Raw             string
}

var markdownImagePattern = regexp.MustCompile(`!\[[^\]]*\]\((data:image/(?:svg\+xml|png);base64,[^)\s]+)\)`)

// wireObject is the union of every JSON reply shape seen on the wire.
type wireObject struct {
	Kind            string `json:"kind"`
	Text            string `json:"text"`
	Response        string `json:"response"`
	Message         string `json:"message"`
	QRCode          string `json:"qrCode"`
	QRMessage       string `json:"qrMessage"`
	TransactionHash string `json:"transactionHash"`
}

// Parse classifies content and tokenizes its display text. It never panics;
// unrecognised input is returned as plain text.
func Parse(content string) (p Parsed) {
	defer func() {
		if r := recover(); r != nil {
			p = Parsed{
				Class:    ClassText,
				Text:     content,
				Raw:      content,
				Segments: []Segment{{Kind: SegmentText, Value: content}},
			}
		}
	}()

	p = classify(content)
	p.Raw = content
	p.Segments = Tokenize(p.Text)
	return p
}

func classify(content string) Parsed {
	if obj, ok := decodeObject(strings.TrimSpace(content)); ok {
		if p, ok := fromObject(obj); ok {
			return p
		}
	}
	if p, ok := trailingQR(content); ok {
		return p
	}
	if p, ok := markdownQR(content); ok {
		return p
	}
	return Parsed{Class: ClassText, Text: content}
}

// decodeObject decodes s as a JSON object. A JSON string whose contents are
// themselves a JSON object is unwrapped once; some older backends encoded
// replies twice and stored transcripts still contain them.
func decodeObject(s string) (wireObject, bool) {
	if s == "" || (s[0] != '{' && s[0] != '"') {
		return wireObject{}, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return wireObject{}, false
	}
	if inner, ok := v.(string); ok {
		s = strings.TrimSpace(inner)
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return wireObject{}, false
		}
	}
	if _, ok := v.(map[string]any); !ok {
		return wireObject{}, false
	}
	var obj wireObject
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return wireObject{}, false
	}
	return obj, true
}

func fromObject(obj wireObject) (Parsed, bool) {
	switch Kind(obj.Kind) {
	case KindQR:
		if obj.QRCode == "" {
			break
		}
		msg := obj.QRMessage
		if msg == "" {
			msg = obj.Text
		}
		return Parsed{
			Class:           ClassQRResponse,
			Text:            obj.Text,
			QRCode:          normalizeQRCode(obj.QRCode),
			QRMessage:       msg,
			TransactionHash: obj.TransactionHash,
		}, true
	case KindText:
		return Parsed{Class: ClassText, Text: obj.Text}, true
	case KindError:
		return Parsed{Class: ClassText, Text: obj.Text, Error: true}, true
	}

	// Legacy shapes: {response, qrCode, qrMessage} and {qrCode, message}.
	if obj.QRCode != "" && (obj.Message != "" || obj.Response != "") {
		text := obj.Response
		if text == "" {
			text = obj.Message
		}
		msg := obj.QRMessage
		if msg == "" {
			msg = obj.Message
		}
		if msg == "" {
			msg = text
		}
		return Parsed{
			Class:           ClassQRResponse,
			Text:            text,
			QRCode:          normalizeQRCode(obj.QRCode),
			QRMessage:       msg,
			TransactionHash: obj.TransactionHash,
		}, true
	}
	if obj.Message != "" {
		return Parsed{Class: ClassJSONMessage, Text: obj.Message}, true
	}
	return Parsed{}, false
}

// trailingQR recognises a deploy confirmation followed by a QR JSON
// paragraph, the layout EncodeDeployResponse produces.
func trailingQR(content string) (Parsed, bool) {
	i := strings.LastIndex(content, "\n\n{")
	if i < 0 {
		return Parsed{}, false
	}
	obj, ok := decodeObject(strings.TrimSpace(content[i+2:]))
	if !ok || obj.QRCode == "" || obj.Message == "" {
		return Parsed{}, false
	}
	return Parsed{
		Class:           ClassQRResponse,
		Text:            content[:i],
		QRCode:          normalizeQRCode(obj.QRCode),
		QRMessage:       obj.Message,
		TransactionHash: obj.TransactionHash,
	}, true
}

func markdownQR(content string) (Parsed, bool) {
	m := markdownImagePattern.FindStringSubmatch(content)
	if m == nil {
		return Parsed{}, false
	}
	text := strings.TrimSpace(markdownImagePattern.ReplaceAllString(content, ""))
	return Parsed{
		Class:     ClassMarkdownQR,
		Text:      text,
		QRCode:    m[1],
		QRMessage: text,
	}, true
}

// normalizeQRCode accepts a data URL or bare base64 PNG data.
func normalizeQRCode(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		return s
	}
	return "data:image/png;base64," + s
}
