package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashureev/zeon-hybrid/internal/identity"
	"github.com/ashureev/zeon-hybrid/internal/payload"
)

type chatResult struct {
	Response string         `json:"response"`
	Reply    *payload.Reply `json:"reply"`
	Error    string         `json:"error"`
	Metadata struct {
		ProcessingTime int64  `json:"processingTime"`
		SessionID      string `json:"sessionId"`
	} `json:"metadata"`
}

// sendChat posts one message to a running server.
func sendChat(ctx context.Context, client *http.Client, server, sessionID, wallet, message string) (*chatResult, error) {
	body, err := json.Marshal(map[string]string{"message": message, "sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if wallet != "" {
		req.Header.Set(identity.WalletHeaderName, wallet)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	var out chatResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error == "" {
			out.Error = resp.Status
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, out.Error)
	}
	return &out, nil
}

func newChatCmd() *cobra.Command {
	var server, sessionID, wallet string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a message to a running server and render the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := sendChat(ctx, &http.Client{}, server, sessionID, wallet, strings.Join(args, " "))
			if err != nil {
				return err
			}

			p := payload.Parse(res.Response)
			if res.Reply != nil {
				// The tagged reply is authoritative when the server sends it.
				p = payload.Parse(res.Reply.Encode())
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderParsed(p))
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("session %s · %dms", res.Metadata.SessionID, res.Metadata.ProcessingTime)))
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:10000", "Server base URL")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (a new one is generated when empty)")
	cmd.Flags().StringVar(&wallet, "wallet", "", "Connected wallet address")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "Request timeout")
	return cmd
}
