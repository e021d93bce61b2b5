package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.05", "50000000000000000"},
		{".5", "500000000000000000"},
		{"2.", "2000000000000000000"},
		{"+0.000000000000000001", "1"},
		{" 10.25 ", "10250000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEther(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseEtherRejects(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "1e18", ".", "1.2.3", "0.0000000000000000001"} {
		_, err := ParseEther(in)
		require.ErrorIs(t, err, ErrInvalidAmount, "input %q", in)
	}
}

func TestFormatEther(t *testing.T) {
	require.Equal(t, "1.0", FormatEther(big.NewInt(1_000_000_000_000_000_000)))
	require.Equal(t, "0.05", FormatEther(big.NewInt(50_000_000_000_000_000)))
	require.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
	require.Equal(t, "0.0", FormatEther(nil))
	require.Equal(t, "-1.5", FormatEther(big.NewInt(-1_500_000_000_000_000_000)))

	wei, err := ParseEther("123.456")
	require.NoError(t, err)
	require.Equal(t, "123.456", FormatEther(wei))
}

func TestBumpGasPrice(t *testing.T) {
	require.Equal(t, int64(150), BumpGasPrice(big.NewInt(100), 150).Int64())
	require.Equal(t, int64(1200000000), BumpGasPrice(big.NewInt(1_000_000_000), 120).Int64())
	require.Nil(t, BumpGasPrice(nil, 150))
}
