package middleware

import (
	"context"
	"fmt"

	"github.com/AvaProtocol/mevboost-aa/pkg/eip1559"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/builder"
)

// GasPrice sets maxFeePerGas and maxPriorityFeePerGas from the node's fee market.
func GasPrice(client eip1559.FeeSuggester) builder.Middleware {
	return func(ctx context.Context, uoc *builder.UserOpContext) error {
		maxFeePerGas, maxPriorityFeePerGas, err := eip1559.SuggestFee(ctx, client)
		if err != nil {
			return fmt.Errorf("suggest fee: %w", err)
		}

		uoc.Op.MaxFeePerGas = maxFeePerGas
		uoc.Op.MaxPriorityFeePerGas = maxPriorityFeePerGas
		return nil
	}
}
