package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/zeon-hybrid/internal/llm"
)

// ErrorCode classifies service failures.
type ErrorCode string

const (
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeNotReady      ErrorCode = "NOT_READY"
	CodeUpstreamError ErrorCode = "UPSTREAM_ERROR"
	CodeRateLimited   ErrorCode = "RATE_LIMITED"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// Error is a classified service failure.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the code of a classified error, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ErrNotReady is returned while the agent is still initializing.
var ErrNotReady = newError(CodeNotReady, "agent is initializing", nil)

// Reply templates for failed turns.
const (
	msgAuthError       = "❌ Authentication error with AI service. Please check the API configuration."
	msgInsufficient    = "❌ Insufficient funds! Please make sure you have enough ETH in your wallet for this transaction. You can get testnet ETH from the Base Sepolia faucet."
	msgInvalidAddress  = "❌ Invalid address format! Please provide a valid Ethereum address (starting with 0x) or ENS name."
	msgNetworkError    = "❌ Network error! Please check your connection and try again."
	msgGenericTemplate = "❌ Sorry, I encountered an error: %s. Please try again or rephrase your request."
	msgTechnical       = "❌ Sorry, I'm having technical difficulties. Please try again in a moment!"
)

// failureMessage turns a processing error into the reply shown to the user.
// Classification is by substring, checked in order.
func failureMessage(err error) string {
	if err == nil {
		return msgTechnical
	}
	var status *llm.HTTPStatusError
	if errors.As(err, &status) && status.StatusCode == 401 {
		return msgAuthError
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "401"):
		return msgAuthError
	case strings.Contains(lower, "insufficient funds"):
		return msgInsufficient
	case strings.Contains(lower, "invalid address"):
		return msgInvalidAddress
	case strings.Contains(lower, "network"):
		return msgNetworkError
	default:
		return fmt.Sprintf(msgGenericTemplate, msg)
	}
}
