package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/zeon-hybrid/internal/chain"
	"github.com/ashureev/zeon-hybrid/internal/domain"
	"github.com/ashureev/zeon-hybrid/internal/fundraiser"
	"github.com/ashureev/zeon-hybrid/internal/store"
	"github.com/ashureev/zeon-hybrid/web"
)

const errInvalidFundraiserAddress = "Invalid wallet address format"

// FundraiserHandler serves fundraiser share pages and their JSON view.
type FundraiserHandler struct {
	repo      store.Repository
	shareBase string
	apiBase   string
	logger    *slog.Logger
	now       func() time.Time
}

// NewFundraiserHandler creates a FundraiserHandler. repo may be nil, in which
// case views are built from the link parameters alone. An empty apiBase is
// derived from each request.
func NewFundraiserHandler(repo store.Repository, shareBase, apiBase string, logger *slog.Logger) *FundraiserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FundraiserHandler{
		repo:      repo,
		shareBase: shareBase,
		apiBase:   apiBase,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterRoutes mounts the JSON and HTML fundraiser routes.
func (h *FundraiserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/fundraiser/{address}", h.HandleStatus)
	r.Get("/fundraiser/{address}", h.HandlePage)
}

// HandleStatus returns the fundraiser view as JSON.
func (h *FundraiserHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, view)
}

// HandlePage renders the fundraiser share page.
func (h *FundraiserHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.FundraiserPage(w, view); err != nil {
		h.logger.Error("render fundraiser page", "address", view.WalletAddress, "error", err)
	}
}

func (h *FundraiserHandler) view(w http.ResponseWriter, r *http.Request) (fundraiser.Status, bool) {
	addr := strings.TrimSpace(chi.URLParam(r, "address"))
	if !chain.IsValidAddress(addr) {
		Error(w, http.StatusBadRequest, errInvalidFundraiserAddress)
		return fundraiser.Status{}, false
	}

	query := r.URL.Query()
	if strings.Contains(r.URL.RawQuery, "%25") {
		if q, err := url.ParseQuery(fundraiser.RepairDoubleEncoded(r.URL.RawQuery)); err == nil {
			query = q
		}
	}

	known := h.lookup(r.Context(), addr)
	if known != nil {
		if query.Get("name") == "" && known.Name != "" {
			query.Set("name", known.Name)
		}
		if query.Get("goal") == "" && known.GoalEth != "" {
			query.Set("goal", known.GoalEth)
		}
	}

	view := fundraiser.NewStatus(fundraiser.FromRequest(addr, query), h.shareBase, h.apiBaseFor(r), h.now())
	if known != nil {
		view.Deployment = h.deployment(r.Context(), known)
	}
	return view, true
}

func (h *FundraiserHandler) lookup(ctx context.Context, addr string) *domain.Fundraiser {
	if h.repo == nil {
		return nil
	}
	f, err := h.repo.GetFundraiser(ctx, addr)
	if err != nil {
		h.logger.Warn("ledger lookup failed", "address", addr, "error", err)
		return nil
	}
	return f
}

func (h *FundraiserHandler) deployment(ctx context.Context, f *domain.Fundraiser) *fundraiser.Deployment {
	d := &fundraiser.Deployment{
		TxHash:      f.TxHash,
		Beneficiary: f.Beneficiary,
		DeployedAt:  f.CreatedAt,
	}
	tx, err := h.repo.GetTransaction(ctx, f.TxHash)
	if err != nil {
		h.logger.Warn("ledger transaction lookup failed", "tx_hash", f.TxHash, "error", err)
		return d
	}
	if tx != nil {
		d.Confirmed = tx.Status == domain.TxConfirmed
	}
	return d
}

func (h *FundraiserHandler) apiBaseFor(r *http.Request) string {
	if h.apiBase != "" {
		return h.apiBase
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
