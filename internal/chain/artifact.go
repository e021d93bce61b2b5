package chain

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

//go:embed crowdfund.abi.json
var crowdFundABI []byte

// ErrNoBytecode is returned when a deploy is attempted without a compiled artifact.
var ErrNoBytecode = errors.New("contract bytecode not loaded")

// Artifact is the subset of a Hardhat build artifact the provider needs.
type Artifact struct {
	ContractName string
	ABI          abi.ABI
	Bytecode     []byte
}

type hardhatArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// LoadArtifact reads a Hardhat artifact from path. An empty path or a missing
// file yields the embedded CrowdFund ABI with no bytecode, which still allows
// read-only contract calls.
func LoadArtifact(path string) (*Artifact, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			return ParseArtifact(data)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read artifact %s: %w", path, err)
		}
	}
	parsed, err := abi.JSON(bytes.NewReader(crowdFundABI))
	if err != nil {
		return nil, fmt.Errorf("parse embedded abi: %w", err)
	}
	return &Artifact{ContractName: "CrowdFund", ABI: parsed}, nil
}

// ParseArtifact decodes Hardhat artifact JSON.
func ParseArtifact(data []byte) (*Artifact, error) {
	var raw hardhatArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(raw.ABI) == 0 {
		return nil, errors.New("artifact has no abi")
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("parse artifact abi: %w", err)
	}

	art := &Artifact{ContractName: raw.ContractName, ABI: parsed}
	code := strings.TrimSpace(raw.Bytecode)
	if code != "" && code != "0x" {
		art.Bytecode = common.FromHex(code)
	}
	return art, nil
}

// CanDeploy reports whether the artifact carries creation bytecode.
func (a *Artifact) CanDeploy() bool {
	return a != nil && len(a.Bytecode) > 0
}
