package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

const etherDecimals = 18

// ErrInvalidAmount is returned when a decimal ETH amount cannot be scaled to wei.
var ErrInvalidAmount = errors.New("invalid ETH amount")

// ParseEther converts a decimal ETH string such as "0.05" into wei using
// exact 18-decimal fixed-point scaling. Negative values, exponents and more
// than 18 fractional digits are rejected.
func ParseEther(amount string) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if hasDot && whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (hasDot && frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if len(frac) > etherDecimals {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, amount, etherDecimals)
	}

	digits := whole + frac + strings.Repeat("0", etherDecimals-len(frac))
	wei, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return wei, nil
}

// FormatEther renders wei as a decimal ETH string with trailing zeros trimmed
// and at least one fractional digit ("1.0", "0.05").
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}
	sign := ""
	v := new(big.Int).Set(wei)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}

	q, r := new(big.Int).QuoRem(v, big.NewInt(params.Ether), new(big.Int))
	frac := r.String()
	frac = strings.Repeat("0", etherDecimals-len(frac)) + frac
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		frac = "0"
	}
	return sign + q.String() + "." + frac
}

// BumpGasPrice scales price by percent/100 using integer arithmetic, matching
// the priority multipliers used for deploys (150) and transfers (120).
func BumpGasPrice(price *big.Int, percent int64) *big.Int {
	if price == nil {
		return nil
	}
	out := new(big.Int).Mul(price, big.NewInt(percent))
	return out.Quo(out, big.NewInt(100))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
