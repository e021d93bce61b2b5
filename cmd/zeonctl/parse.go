package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ashureev/zeon-hybrid/internal/payload"
)

func newParseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Classify a raw agent reply read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			p := payload.Parse(string(raw))
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(p.Reply())
			}
			fmt.Fprintln(out, mutedStyle.Render("class: "+string(p.Class)))
			fmt.Fprintln(out, renderParsed(p))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the canonical reply object")
	return cmd
}
