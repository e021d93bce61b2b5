package payload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderHTMLEscapesText(t *testing.T) {
	out := string(RenderHTML(Parse(`<script>alert("x")</script>`)))
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "&lt;script&gt;")
}

func TestRenderHTMLEntities(t *testing.T) {
	addr := "0x" + strings.Repeat("a", 40)
	hash := "0x" + strings.Repeat("b", 64)
	out := string(RenderHTML(Parse("*Done* " + addr + " " + hash)))

	require.Contains(t, out, "<strong>Done</strong>")
	require.Contains(t, out, `data-copy="`+addr+`"`)
	require.Contains(t, out, `href="https://sepolia.basescan.org/tx/`+hash+`"`)
	require.Contains(t, out, `data-copy="`+hash+`"`)
}

func TestRenderHTMLQRWithCoinbaseLink(t *testing.T) {
	p, err := (&Encoder{Render: func(string, string) ([]byte, error) { return []byte("png"), nil }}).
		QRPayload(contributionAddr, "0.05", "Roof")
	require.NoError(t, err)

	out := string(RenderHTML(Parse(QRReply("", p, "").Encode())))
	require.Contains(t, out, `<img class="qr-code-png" src="data:image/png;base64,`)
	require.Contains(t, out, "https://go.cb-w.com/dapp?cb_url=")
	require.Contains(t, out, "Contribute 0.05 ETH via Coinbase Wallet")
	require.Contains(t, out, `<span class="address-text">`+contributionAddr+`</span>`)
}

func TestRenderHTMLSkipsNonImageQR(t *testing.T) {
	out := string(RenderHTML(Parsed{Text: "x", QRCode: "javascript:alert(1)"}))
	require.NotContains(t, out, "<img")
}

func TestLaneOf(t *testing.T) {
	wallet := "0xAbC0000000000000000000000000000000000001"
	require.Equal(t, LaneSystem, LaneOf("system", wallet))
	require.Equal(t, LaneUser, LaneOf(strings.ToLower(wallet), wallet))
	require.Equal(t, LaneAgent, LaneOf("0xagent", wallet))
	require.Equal(t, LaneAgent, LaneOf("", ""))

	m := ChatMessage{SenderAddress: wallet}
	require.Equal(t, LaneUser, m.Lane(wallet))
}
