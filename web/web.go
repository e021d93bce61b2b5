// Package web embeds the server-rendered HTML pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/ashureev/zeon-hybrid/internal/fundraiser"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).ParseFS(templateFS, "templates/*.html"))

// fundraiserPage is the data behind templates/fundraiser.html.
type fundraiserPage struct {
	fundraiser.Status
	Suggested    string
	CoinbaseLink string
}

// FundraiserPage renders the share page for a fundraiser view.
func FundraiserPage(w io.Writer, view fundraiser.Status) error {
	data := fundraiserPage{
		Status:    view,
		Suggested: fundraiser.SuggestedContribution(view.GoalAmount),
	}
	if link, err := fundraiser.CoinbaseWalletLink(view.WalletAddress, data.Suggested, view.ChainID); err == nil {
		data.CoinbaseLink = link
	}
	if err := pages.ExecuteTemplate(w, "fundraiser.html", data); err != nil {
		return fmt.Errorf("render fundraiser page: %w", err)
	}
	return nil
}
