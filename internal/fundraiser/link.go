// Package fundraiser builds and reads shareable fundraiser links and the
// values derived from them.
package fundraiser

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ashureev/zeon-hybrid/internal/chain"
)

const (
	DefaultBaseURL = "https://zeonai.xyz/fundraiser"
	DefaultName    = "Fundraiser"
	DefaultGoal    = "1"
	DefaultCurrent = "0"

	Network = "base-sepolia"
)

var ErrInvalidAddress = errors.New("invalid wallet address format, expected 0x followed by 40 hex characters")

// Params are the fundraiser fields carried in a share link.
type Params struct {
	WalletAddress  string `json:"walletAddress"`
	GoalAmount     string `json:"goalAmount"`
	FundraiserName string `json:"fundraiserName"`
	Description    string `json:"description,omitempty"`
	CurrentAmount  string `json:"currentAmount,omitempty"`
	Network        string `json:"network,omitempty"`
}

// Compose builds base/<address>?goal=&name=... Each value is percent-encoded
// exactly once; callers pass raw, unencoded strings.
func Compose(base string, p Params) (string, error) {
	if !chain.IsValidAddress(p.WalletAddress) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, p.WalletAddress)
	}
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + p.WalletAddress)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("goal", p.GoalAmount)
	set("name", p.FundraiserName)
	set("description", p.Description)
	set("current", p.CurrentAmount)
	set("network", p.Network)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Decompose reads a link produced by Compose. The address comes from the last
// path segment and query values are decoded once; absent fields get defaults.
func Decompose(rawURL string) (Params, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Params{}, fmt.Errorf("parse fundraiser url: %w", err)
	}
	addr := path.Base(u.Path)
	if !chain.IsValidAddress(addr) {
		return Params{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return FromRequest(addr, u.Query()), nil
}

// FromRequest assembles Params from a path address and decoded query values.
func FromRequest(address string, q url.Values) Params {
	p := Params{
		WalletAddress:  address,
		GoalAmount:     q.Get("goal"),
		FundraiserName: q.Get("name"),
		Description:    q.Get("description"),
		CurrentAmount:  q.Get("current"),
		Network:        q.Get("network"),
	}
	if p.GoalAmount == "" {
		p.GoalAmount = DefaultGoal
	}
	if p.FundraiserName == "" {
		p.FundraiserName = DefaultName
	}
	if p.CurrentAmount == "" {
		p.CurrentAmount = DefaultCurrent
	}
	return p
}

var doubleEncoded = strings.NewReplacer(
	"%2520", "%20",
	"%252F", "%2F",
	"%253A", "%3A",
	"%253F", "%3F",
	"%253D", "%3D",
	"%2526", "%26",
)

// RepairDoubleEncoded collapses the double-encoded escapes found in links
// shared by older builds. New links never need it.
func RepairDoubleEncoded(rawURL string) string {
	return doubleEncoded.Replace(rawURL)
}

// QRCodeURL returns the absolute URL of the QR image endpoint for a contribution.
func QRCodeURL(apiBase, addr, amount, name string) string {
	q := url.Values{}
	q.Set("walletAddress", addr)
	q.Set("amount", amount)
	q.Set("fundraiserName", name)
	q.Set("network", Network)
	q.Set("chainId", fmt.Sprint(chain.ChainIDBaseSepolia))
	return strings.TrimRight(apiBase, "/") + "/api/qr-code?" + q.Encode()
}

// PaymentURI is the EIP-681 request scanned by wallets. A zero chainID omits
// the chain suffix.
func PaymentURI(addr, amountEth string, chainID int64) (string, error) {
	wei, err := chain.ParseEther(amountEth)
	if err != nil {
		return "", err
	}
	if chainID == 0 {
		return fmt.Sprintf("ethereum:%s?value=%s", addr, wei.String()), nil
	}
	return fmt.Sprintf("ethereum:%s@%d?value=%s", addr, chainID, wei.String()), nil
}

// CoinbaseWalletLink wraps a payment request in a Coinbase Wallet deep link.
func CoinbaseWalletLink(addr, amountEth string, chainID int64) (string, error) {
	if !chain.IsValidAddress(addr) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	uri, err := PaymentURI(addr, amountEth, chainID)
	if err != nil {
		return "", err
	}
	return "https://go.cb-w.com/dapp?cb_url=" + url.QueryEscape(uri), nil
}
