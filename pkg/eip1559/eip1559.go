package eip1559

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// TipBufferPercent is added on top of the node's suggested tip.
var TipBufferPercent int64 = 13

// FeeSuggester is the part of ethclient.Client needed to price an operation.
type FeeSuggester interface {
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// SuggestFee returns maxFeePerGas and maxPriorityFeePerGas for the next block.
func SuggestFee(ctx context.Context, client FeeSuggester) (*big.Int, *big.Int, error) {
	// Estimate base fee for the next block
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	if header.BaseFee == nil {
		// Legacy (pre-EIP-1559) chain, both fields carry the gas price
		gasPrice, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, nil, err
		}
		return gasPrice, new(big.Int).Set(gasPrice), nil
	}

	// Get suggested gas tip cap (maxPriorityFeePerGas)
	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, err
	}

	buffer := new(big.Int).Div(tipCap, big.NewInt(100))
	buffer.Mul(buffer, big.NewInt(TipBufferPercent))
	maxPriorityFeePerGas := new(big.Int).Add(tipCap, buffer)

	// maxFeePerGas = 2 * baseFee + maxPriorityFeePerGas keeps the op valid while the
	// base fee doubles
	maxFeePerGas := new(big.Int).Add(
		new(big.Int).Mul(header.BaseFee, big.NewInt(2)),
		maxPriorityFeePerGas,
	)

	return maxFeePerGas, maxPriorityFeePerGas, nil
}
