package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashureev/zeon-hybrid/internal/payload"
	"github.com/ashureev/zeon-hybrid/internal/qr"
)

func newQRCmd() *cobra.Command {
	var amount, name, outPath string

	cmd := &cobra.Command{
		Use:   "qr <contract-address>",
		Short: "Render a contribution QR code",
		Long: `Render the contribution QR code the agent would send for a fundraiser.

With --out the PNG is written to a file; otherwise the data URL is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := payload.NewEncoder().QRPayload(args[0], amount, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, qrBoxStyle.Render(renderText(p.Message)))
			if outPath == "" {
				fmt.Fprintln(out, p.QRCode)
				return nil
			}
			img, err := qr.DecodeDataURL(p.QRCode)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, img, 0644); err != nil { //nolint:gosec // QR images are public.
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintln(out, successStyle.Render("✅ QR code written to "+outPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "0.01", "Contribution amount in ETH")
	cmd.Flags().StringVar(&name, "name", "", "Fundraiser name")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the PNG to this file")
	return cmd
}
