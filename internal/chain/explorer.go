// Package chain wraps the Base Sepolia JSON-RPC endpoint, the agent wallet and
// the fundraiser contract behind a single process-wide provider.
package chain

import (
	"regexp"
)

// ExplorerURL is the block explorer used for every link the agent emits.
const ExplorerURL = "https://sepolia.basescan.org"

// ChainIDBaseSepolia is the EIP-155 chain id of Base Sepolia.
const ChainIDBaseSepolia int64 = 84532

// LinkKind selects the explorer page a hash points at.
type LinkKind string

const (
	LinkTx      LinkKind = "tx"
	LinkAddress LinkKind = "address"
	LinkToken   LinkKind = "token"
)

var (
	addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	txHashPattern  = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
)

// ScanLink returns the explorer URL for hash. Unknown kinds fall back to the
// explorer search page.
func ScanLink(hash string, kind LinkKind) string {
	switch kind {
	case LinkTx, LinkAddress, LinkToken:
		return ExplorerURL + "/" + string(kind) + "/" + hash
	default:
		return ExplorerURL + "/search?q=" + hash
	}
}

// IsValidAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// IsValidTxHash reports whether s is a 0x-prefixed 32-byte hex hash.
func IsValidTxHash(s string) bool {
	return txHashPattern.MatchString(s)
}

// Short abbreviates a hex string to its first six and last four characters,
// e.g. 0x1234...abcd. Values too short to abbreviate are returned unchanged.
func Short(hex string) string {
	if len(hex) <= 10 {
		return hex
	}
	return hex[:6] + "..." + hex[len(hex)-4:]
}
