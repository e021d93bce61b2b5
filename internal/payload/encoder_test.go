package payload

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ----------------------------------------------------------------------------
// QRPayload
// ----------------------------------------------------------------------------

const contributionAddr = "0x111111111111111111111111111111111111aaaa"

func TestQRPayloadContribution(t *testing.T) {
	p, err := NewEncoder().QRPayload(contributionAddr, "0.05", "Roof Repair")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(p.QRCode, "data:image/png;base64,"))
	require.Contains(t, p.Message, "0.05 ETH")
	require.Contains(t, p.Message, "0x1111...aaaa")
	require.Contains(t, p.Message, "🎯 **Roof Repair**")
	require.Contains(t, p.Message, "https://sepolia.basescan.org/address/"+contributionAddr)
}

func TestQRPayloadEncodesWeiURI(t *testing.T) {
	var gotData, gotDesc string
	enc := &Encoder{Render: func(data, description string) ([]byte, error) {
		gotData, gotDesc = data, description
		return []byte{0x89, 'P', 'N', 'G'}, nil
	}}
	p, err := enc.QRPayload(contributionAddr, "0.05", "")
	require.NoError(t, err)
	require.Equal(t, "ethereum:"+contributionAddr+"?value=50000000000000000", gotData)
	require.Equal(t, "Contribution QR for Fundraiser", gotDesc)
	require.Equal(t, "data:image/png;base64,iVBORw==", p.QRCode)
}

func TestQRPayloadNeverRejectsValidAddresses(t *testing.T) {
	enc := &Encoder{Render: func(string, string) ([]byte, error) { return []byte("x"), nil }}
	for _, addr := range []string{
		"0x0000000000000000000000000000000000000000",
		"0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF",
		"0x7805B1557019e15BF3E6903d1bE02c2038da14D2",
		contributionAddr,
	} {
		_, err := enc.QRPayload(addr, "1", "x")
		require.NoError(t, err, addr)
	}
}

func TestQRPayloadRejectsInvalidAddresses(t *testing.T) {
	called := false
	enc := &Encoder{Render: func(string, string) ([]byte, error) {
		called = true
		return nil, nil
	}}
	for _, addr := range []string{
		"not-an-address",
		"",
		"111111111111111111111111111111111111aaaa",
		"0x11111111111111111111111111111111111aaaa",
		"0x1111111111111111111111111111111111111aaaa",
		"0x111111111111111111111111111111111111zzzz",
		"0x1111111111111111111111111111111111aaaa",
	} {
		_, err := enc.QRPayload(addr, "0.05", "x")
		require.ErrorIs(t, err, ErrInvalidAddress, addr)
		require.Contains(t, err.Error(), "Invalid Address")

		var perr *Error
		require.True(t, errors.As(err, &perr))
	}
	require.False(t, called)
}

func TestQRPayloadRejectsBadAmount(t *testing.T) {
	_, err := NewEncoder().QRPayload(contributionAddr, "lots", "x")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestQRPayloadRenderFailure(t *testing.T) {
	enc := &Encoder{Render: func(string, string) ([]byte, error) { return nil, errors.New("boom") }}
	_, err := enc.QRPayload(contributionAddr, "1", "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "QR Code Generation Failed")
}

func TestContractQR(t *testing.T) {
	var got string
	enc := &Encoder{Render: func(data, _ string) ([]byte, error) {
		got = data
		return []byte("x"), nil
	}}
	p, err := enc.ContractQR(contributionAddr, "0xd7bb99ba", "1000")
	require.NoError(t, err)
	require.Equal(t, "ethereum:"+contributionAddr+"?data=0xd7bb99ba&value=1000", got)
	require.Contains(t, p.Message, "`"+contributionAddr+"`")

	_, err = enc.ContractQR(contributionAddr, "", "")
	require.NoError(t, err)
	require.Equal(t, "ethereum:"+contributionAddr, got)
}

// ----------------------------------------------------------------------------
// EncodeDeployResponse
// ----------------------------------------------------------------------------

var (
	deployContract = "0x" + strings.Repeat("ab", 20)
	deployTx       = "0x" + strings.Repeat("cd", 32)
)

func TestEncodeDeployResponseWithQRObject(t *testing.T) {
	qr := QRCodePayload{Message: "📱 Scan to Contribute 0.05 ETH", QRCode: "data:image/png;base64,AAAA"}
	out := EncodeDeployResponse(deployContract, deployTx, "Roof", "1", AttachQR(qr))

	require.Contains(t, out, "🎉 *Roof* is Live!")
	require.Contains(t, out, "- Contract Address: "+deployContract)
	require.Contains(t, out, "https://sepolia.basescan.org/tx/"+deployTx)

	i := strings.LastIndex(out, "\n\n")
	var tail QRCodePayload
	require.NoError(t, json.Unmarshal([]byte(out[i+2:]), &tail))
	require.Equal(t, qr, tail)
}

func TestEncodeDeployResponseDecisionTable(t *testing.T) {
	validJSON := `{"message":"m","qrCode":"data:image/png;base64,AAAA"}`
	tests := []struct {
		name string
		qr   QRAttachment
		tail string
	}{
		{"qr json string passes through", AttachNote(validJSON), validJSON},
		{"json without qr fields", AttachNote(`{"error":"nope"}`), `{"error":"nope"}`},
		{"plain error note", AttachNote("QR failed"), "QR failed"},
		{"object missing fields", AttachQR(QRCodePayload{Message: "m"}), ""},
		{"nothing", QRAttachment{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EncodeDeployResponse(deployContract, deployTx, "Roof", "1", tt.qr)
			require.Contains(t, out, deployContract)
			require.Contains(t, out, chainShort(deployTx))
			if tt.tail == "" {
				require.True(t, strings.HasSuffix(out, "different contribution amounts!"))
				return
			}
			require.True(t, strings.HasSuffix(out, "\n\n"+tt.tail))
		})
	}
}

func TestEncodeDeployResponseKeepsConfirmationOnQRFailure(t *testing.T) {
	note := QRFallbackNote(deployContract, "0.05")
	out := EncodeDeployResponse(deployContract, deployTx, "", "1", AttachNote(note))
	require.Contains(t, out, "🎉 *Fundraiser* is Live!")
	require.Contains(t, out, deployContract)
	require.Contains(t, out, chainShort(deployTx))
	require.Contains(t, out, "QR Code generation failed")
}

func chainShort(s string) string { return s[:6] + "..." + s[len(s)-4:] }
