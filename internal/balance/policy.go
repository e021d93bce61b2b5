package balance

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_policy.yaml
var defaultPolicyYAML []byte

// Rule maps a keyword to whether a message containing it spends gas.
type Rule struct {
	Keyword       string `yaml:"keyword"`
	RequiresFunds bool   `yaml:"requires_funds"`
}

// Policy decides which chat messages need a funded agent wallet. Matching
// is a case-insensitive substring search; the first matching rule wins.
type Policy struct {
	Default bool   `yaml:"default"`
	Rules   []Rule `yaml:"rules"`
}

// DefaultPolicy returns the embedded rule table.
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultPolicyYAML)
	if err != nil {
		panic(fmt.Sprintf("balance: embedded policy: %v", err))
	}
	return p
}

// LoadPolicy reads a YAML rule table from path. An empty path yields the
// embedded default.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path.
	if err != nil {
		return nil, fmt.Errorf("read balance policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML rule table.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode balance policy: %w", err)
	}
	for i := range p.Rules {
		p.Rules[i].Keyword = strings.ToLower(strings.TrimSpace(p.Rules[i].Keyword))
		if p.Rules[i].Keyword == "" {
			return nil, errors.New("balance policy: rule with empty keyword")
		}
	}
	return &p, nil
}

// RequiresFunds reports whether message asks for an on-chain write.
func (p *Policy) RequiresFunds(message string) bool {
	if p == nil {
		return false
	}
	lower := strings.ToLower(message)
	for _, r := range p.Rules {
		if strings.Contains(lower, r.Keyword) {
			return r.RequiresFunds
		}
	}
	return p.Default
}
