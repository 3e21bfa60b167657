package cmd

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in      string
		wei     string
		wantErr bool
	}{
		{"", "0", false},
		{"1", "1000000000000000000", false},
		{"0.01", "10000000000000000", false},
		{"0.000000000000000001", "1", false},
		{"0.0000000000000000001", "", true},
		{"-1", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			wei, err := parseEther(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wei, wei.String())
		})
	}
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "0.01", formatEther(big.NewInt(10_000_000_000_000_000)))
	assert.Equal(t, "0", formatEther(nil))
	assert.Equal(t, "0", formatEther(big.NewInt(0)))
}

func TestParseCalls(t *testing.T) {
	to := []string{
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
	}

	calls, err := parseCalls(to, []string{"0.5"}, []string{"", "deadbeef"})
	require.NoError(t, err)
	require.Len(t, calls, 2)

	assert.Equal(t, common.HexToAddress(to[0]), calls[0].To)
	assert.Equal(t, "500000000000000000", calls[0].Value.String())
	assert.Empty(t, calls[0].Data)

	assert.Equal(t, 0, calls[1].Value.Sign())
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, calls[1].Data)
}

func TestParseCallsErrors(t *testing.T) {
	addr := "0x1111111111111111111111111111111111111111"

	tests := []struct {
		name   string
		to     []string
		values []string
		data   []string
	}{
		{"no target", nil, nil, nil},
		{"bad target", []string{"0x12"}, nil, nil},
		{"too many values", []string{addr}, []string{"1", "2"}, nil},
		{"bad value", []string{addr}, []string{"one"}, nil},
		{"bad data", []string{addr}, nil, []string{"0xzz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCalls(tt.to, tt.values, tt.data)
			require.Error(t, err)
		})
	}
}

func TestParseHash(t *testing.T) {
	h, ok := parseHash("0xab" + strings.Repeat("00", 31))
	require.True(t, ok)
	assert.Equal(t, byte(0xab), h[0])

	_, ok = parseHash("01HZX3Y8Q6M1V9T2K4R5N7P0AB")
	assert.False(t, ok)
}
