package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/fundraiser"
	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/ashureev/zeon-hybrid/internal/qr"
)

const (
	errQRFieldsRequired = "contractAddress, amountInEth, and fundraiserName are required"
	errQRInvalidAddress = "Invalid contract address format"
	errQRFailed         = "Failed to generate QR code"
)

// QRHandler serves contribution QR codes.
type QRHandler struct {
	encoder *payload.Encoder
	logger  *slog.Logger
}

// NewQRHandler creates a QRHandler. A nil encoder uses the default renderer.
func NewQRHandler(encoder *payload.Encoder, logger *slog.Logger) *QRHandler {
	if encoder == nil {
		encoder = payload.NewEncoder()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QRHandler{encoder: encoder, logger: logger}
}

// RegisterRoutes mounts GET and POST /api/qr-code.
func (h *QRHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/qr-code", h.HandleImage)
	r.Post("/api/qr-code", h.HandleGenerate)
}

type qrRequest struct {
	ContractAddress string `json:"contractAddress"`
	AmountInEth     string `json:"amountInEth"`
	FundraiserName  string `json:"fundraiserName"`
}

type qrMetadata struct {
	ContractAddress string    `json:"contractAddress"`
	AmountInEth     string    `json:"amountInEth"`
	FundraiserName  string    `json:"fundraiserName"`
	Timestamp       time.Time `json:"timestamp"`
}

type qrResponse struct {
	Message  string     `json:"message"`
	QRCode   string     `json:"qrCode"`
	Metadata qrMetadata `json:"metadata"`
}

// HandleGenerate renders a contribution QR and returns it as a data URL with
// the contribution message.
func (h *QRHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&raw); err != nil {
		Error(w, http.StatusBadRequest, errQRFieldsRequired)
		return
	}
	req := qrRequest{
		ContractAddress: stringField(raw, "contractAddress"),
		AmountInEth:     stringField(raw, "amountInEth"),
		FundraiserName:  stringField(raw, "fundraiserName"),
	}
	if req.ContractAddress == "" || req.AmountInEth == "" || req.FundraiserName == "" {
		Error(w, http.StatusBadRequest, errQRFieldsRequired)
		return
	}
	if !chain.IsValidAddress(req.ContractAddress) {
		Error(w, http.StatusBadRequest, errQRInvalidAddress)
		return
	}

	p, err := h.encoder.QRPayload(req.ContractAddress, req.AmountInEth, req.FundraiserName)
	if err != nil {
		h.logger.Error("qr generation failed", "contract", req.ContractAddress, "error", err)
		Error(w, http.StatusInternalServerError, errQRFailed)
		return
	}

	JSON(w, http.StatusOK, qrResponse{
		Message: p.Message,
		QRCode:  p.QRCode,
		Metadata: qrMetadata{
			ContractAddress: req.ContractAddress,
			AmountInEth:     req.AmountInEth,
			FundraiserName:  req.FundraiserName,
			Timestamp:       time.Now().UTC(),
		},
	})
}

// HandleImage serves the PNG referenced by fundraiser.QRCodeURL.
func (h *QRHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	addr := strings.TrimSpace(q.Get("walletAddress"))
	if addr == "" {
		addr = strings.TrimSpace(q.Get("contractAddress"))
	}
	amount := strings.TrimSpace(q.Get("amount"))
	if amount == "" {
		amount = fundraiser.SuggestedContribution(q.Get("goal"))
	}
	if !chain.IsValidAddress(addr) {
		Error(w, http.StatusBadRequest, errQRInvalidAddress)
		return
	}

	chainID := chain.ChainIDBaseSepolia
	if v := q.Get("chainId"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			chainID = n
		}
	}
	uri, err := fundraiser.PaymentURI(addr, amount, chainID)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid amount")
		return
	}

	name := q.Get("fundraiserName")
	if name == "" {
		name = fundraiser.DefaultName
	}
	img, err := qr.EncodeFor(uri, "Contribution QR for "+name)
	if err != nil {
		h.logger.Error("qr image failed", "address", addr, "error", err)
		Error(w, http.StatusInternalServerError, errQRFailed)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		h.logger.Debug("qr image write failed", "error", err)
	}
}

// stringField reads a string or number field from a decoded JSON body.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
