package fundraiser

import (
	"time"

	"github.com/ashureev/zeon-hybrid/internal/chain"
)

// Contribution is a single contribution shown on the fundraiser page.
type Contribution struct {
	Address   string    `json:"address"`
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Deployment is what the ledger knows about a fundraiser this agent deployed.
type Deployment struct {
	TxHash      string    `json:"txHash"`
	Beneficiary string    `json:"beneficiary"`
	Confirmed   bool      `json:"confirmed"`
	DeployedAt  time.Time `json:"deployedAt"`
}

// Status is the JSON view served for a fundraiser. Contribution history is
// not tracked, so Contributors is always empty.
type Status struct {
	Params
	Progress     float64        `json:"progress"`
	Contributors []Contribution `json:"contributors"`
	ShareURL     string         `json:"shareUrl"`
	QRCodeURL    string         `json:"qrCodeUrl"`
	ExplorerURL  string         `json:"explorerUrl"`
	ChainID      int64          `json:"chainId"`
	Deployment   *Deployment    `json:"deployment,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// NewStatus builds the view for p. shareBase and apiBase may be empty.
func NewStatus(p Params, shareBase, apiBase string, now time.Time) Status {
	if p.Network == "" {
		p.Network = Network
	}
	share, err := Compose(shareBase, p)
	if err != nil {
		share = ""
	}
	return Status{
		Params:       p,
		Progress:     Progress(p),
		Contributors: []Contribution{},
		ShareURL:     share,
		QRCodeURL:    QRCodeURL(apiBase, p.WalletAddress, SuggestedContribution(p.GoalAmount), p.FundraiserName),
		ExplorerURL:  chain.ScanLink(p.WalletAddress, chain.LinkAddress),
		ChainID:      chain.ChainIDBaseSepolia,
		Timestamp:    now.UTC(),
	}
}
