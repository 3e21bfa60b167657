package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/preset/mevboost"
)

const etherDecimals = 18

// parseEther converts a decimal ether amount such as "0.01" to wei.
func parseEther(v string) (*big.Int, error) {
	if v == "" {
		return big.NewInt(0), nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("invalid ether amount %q: %w", v, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative ether amount %q", v)
	}
	wei := d.Shift(etherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("ether amount %q has more than %d decimals", v, etherDecimals)
	}
	return wei.BigInt(), nil
}

func formatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -etherDecimals).String()
}

// parseCalls zips the --to, --value and --data flags. Missing values and data
// default to zero and empty.
func parseCalls(to, values, data []string) ([]mevboost.Call, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("at least one --to is required")
	}
	if len(values) > len(to) || len(data) > len(to) {
		return nil, fmt.Errorf("got %d targets but %d values and %d data", len(to), len(values), len(data))
	}

	for _, addr := range to {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid target address %q", addr)
		}
	}

	var err error
	calls := lo.Map(to, func(addr string, i int) mevboost.Call {
		call := mevboost.Call{To: common.HexToAddress(addr), Value: big.NewInt(0), Data: []byte{}}
		if i < len(values) {
			v, e := parseEther(values[i])
			if e != nil && err == nil {
				err = e
			}
			call.Value = v
		}
		if i < len(data) && data[i] != "" {
			raw := data[i]
			if !strings.HasPrefix(raw, "0x") {
				raw = "0x" + raw
			}
			b, e := hexutil.Decode(raw)
			if e != nil && err == nil {
				err = fmt.Errorf("invalid call data %q: %w", data[i], e)
			}
			call.Data = b
		}
		return call
	})
	if err != nil {
		return nil, err
	}
	return calls, nil
}

// parseHash accepts a 32 byte hex hash.
func parseHash(v string) (common.Hash, bool) {
	b, err := hexutil.Decode(v)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, false
	}
	return common.BytesToHash(b), true
}
