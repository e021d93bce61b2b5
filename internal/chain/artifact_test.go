package chain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadArtifactFallsBackToEmbeddedABI(t *testing.T) {
	art, err := LoadArtifact(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	require.Equal(t, "CrowdFund", art.ContractName)
	require.False(t, art.CanDeploy())
	require.Contains(t, art.ABI.Methods, "getContributors")
	require.Contains(t, art.ABI.Methods, "isFundraiserActive")
	require.Len(t, art.ABI.Constructor.Inputs, 3)
}

func TestLoadArtifactFromHardhatFile(t *testing.T) {
	data := `{
		"contractName": "CrowdFund",
		"abi": [{"inputs": [], "name": "isFundraiserActive", "outputs": [{"name": "", "type": "bool"}], "stateMutability": "view", "type": "function"}],
		"bytecode": "0x6080604052"
	}`
	path := filepath.Join(t.TempDir(), "CrowdFund.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	art, err := LoadArtifact(path)
	require.NoError(t, err)
	require.True(t, art.CanDeploy())
	require.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, art.Bytecode)
}

func TestParseArtifactErrors(t *testing.T) {
	_, err := ParseArtifact([]byte("not json"))
	require.Error(t, err)

	_, err = ParseArtifact([]byte(`{"contractName":"X"}`))
	require.Error(t, err)

	art, err := ParseArtifact([]byte(`{"abi":[],"bytecode":"0x"}`))
	require.NoError(t, err)
	require.False(t, art.CanDeploy())
}
