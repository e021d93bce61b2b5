package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashureev/zeon-hybrid/internal/fundraiser"
)

func newLinkCmd() *cobra.Command {
	var p fundraiser.Params
	var base string
	var decode bool

	cmd := &cobra.Command{
		Use:   "link <address|url>",
		Short: "Compose or decode a fundraiser share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if decode {
				got, err := fundraiser.Decompose(fundraiser.RepairDoubleEncoded(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintln(out, infoStyle.Render("Address:  ")+addressStyle.Render(got.WalletAddress))
				fmt.Fprintln(out, infoStyle.Render("Name:     ")+got.FundraiserName)
				fmt.Fprintln(out, infoStyle.Render("Goal:     ")+got.GoalAmount+" ETH")
				fmt.Fprintln(out, infoStyle.Render("Current:  ")+got.CurrentAmount+" ETH")
				fmt.Fprintf(out, "%s%.1f%%\n", infoStyle.Render("Progress: "), fundraiser.Progress(got))
				if got.Description != "" {
					fmt.Fprintln(out, infoStyle.Render("About:    ")+got.Description)
				}
				return nil
			}

			p.WalletAddress = args[0]
			if p.Network == "" {
				p.Network = fundraiser.Network
			}
			link, err := fundraiser.Compose(base, p)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, link)
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", fundraiser.DefaultBaseURL, "Share link base URL")
	cmd.Flags().StringVar(&p.GoalAmount, "goal", fundraiser.DefaultGoal, "Goal in ETH")
	cmd.Flags().StringVar(&p.FundraiserName, "name", fundraiser.DefaultName, "Fundraiser name")
	cmd.Flags().StringVar(&p.Description, "description", "", "Short description")
	cmd.Flags().StringVar(&p.CurrentAmount, "current", "", "Amount raised so far in ETH")
	cmd.Flags().BoolVar(&decode, "decode", false, "Decode a share link instead of composing one")
	return cmd
}
