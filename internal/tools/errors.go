package tools

import (
	"errors"
	"strings"

	"github.com/ashureev/zeon-hybrid/internal/payload"
)

// Upstream failures are classified by message because RPC nodes and the
// signer report them as plain strings.

func isInsufficientFunds(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "insufficient funds")
}

// userMessage returns the user-facing text of a validation error, if err is one.
func userMessage(err error) (string, bool) {
	var perr *payload.Error
	if errors.As(err, &perr) {
		return perr.Message, true
	}
	return "", false
}
