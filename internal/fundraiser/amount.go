package fundraiser

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// USDPerETH is the fixed rate used when a goal is stated in dollars.
const USDPerETH = 2000

var ErrAmountNotFound = errors.New("no amount found")

// AmountError reports free text with no recognisable amount. Its message is
// written for the end user.
type AmountError struct {
	Input string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf(`Could not parse amount from: "%s". Please specify the amount clearly (e.g., "0.1 ETH" or "100 USDC worth of ETH").`, e.Input)
}

func (e *AmountError) Unwrap() error { return ErrAmountNotFound }

// Patterns are tried in order; the first match wins.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:usdc|usd|dollars?)\s*(?:worth|of|in)\s*(?:eth)?`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*eth`),
	regexp.MustCompile(`(?i)worth\s*(\d+(?:\.\d+)?)\s*(?:usdc|usd|dollars?)`),
	regexp.MustCompile(`(?i)fundraiser\s*(?:for|worth|of)\s*(\d+(?:\.\d+)?)\s*(?:usdc|usd|dollars?)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:usdc|usd|dollars?)`),
}

// ParseAmount extracts an ETH amount from free text such as "0.5 ETH" or
// "100 USDC worth of ETH". Dollar amounts convert at USDPerETH and are
// rendered with six decimals.
func ParseAmount(input string) (string, error) {
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if MentionsUSD(input) {
			return strconv.FormatFloat(amount/USDPerETH, 'f', 6, 64), nil
		}
		return strconv.FormatFloat(amount, 'f', -1, 64), nil
	}
	return "", &AmountError{Input: input}
}

// MentionsUSD reports whether s names a dollar-denominated amount.
func MentionsUSD(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "usd") || strings.Contains(lower, "dollar")
}

// SuggestedContribution is 5% of the goal clamped to [0.001, 0.1] ETH.
func SuggestedContribution(goal string) string {
	g, err := strconv.ParseFloat(strings.TrimSpace(goal), 64)
	if err != nil || g < 0 {
		g = 0
	}
	v := math.Max(0.001, math.Min(0.1, g*0.05))
	v = math.Round(v*1e6) / 1e6
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Progress returns current/goal as a percentage capped at 100. Unparseable or
// non-positive goals yield 0.
func Progress(p Params) float64 {
	goal, err := strconv.ParseFloat(p.GoalAmount, 64)
	if err != nil || goal <= 0 {
		return 0
	}
	cur, err := strconv.ParseFloat(p.CurrentAmount, 64)
	if err != nil || cur <= 0 {
		return 0
	}
	return math.Min(cur/goal*100, 100)
}
