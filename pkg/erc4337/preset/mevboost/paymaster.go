package mevboost

import (
	"context"
	"errors"
	"math/big"

	"github.com/allegro/bigcache/v3"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa/paymaster"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
)

// postOpGas reads MAX_GAS_OF_POST once per settlement contract. The value is
// a contract constant so a cached copy never goes stale.
type postOpGas struct {
	paymaster *paymaster.MEVBoostPaymaster
	cache     *bigcache.BigCache
}

func (p *postOpGas) Address() common.Address {
	return p.paymaster.Address()
}

func (p *postOpGas) cacheKey() string {
	return "max_gas_of_post:" + p.paymaster.Address().Hex()
}

func (p *postOpGas) MaxGasOfPost(ctx context.Context) (*big.Int, error) {
	if p.cache != nil {
		cached, err := p.cache.Get(p.cacheKey())
		if err == nil {
			return new(big.Int).SetBytes(cached), nil
		}
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, err
		}
	}

	overhead, err := p.paymaster.MAXGASOFPOST(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(p.cacheKey(), overhead.Bytes()); err != nil {
			return nil, err
		}
	}
	return overhead, nil
}

// toPaymasterOp converts op to the tuple getMEVPayInfo takes.
func toPaymasterOp(op *userop.UserOperation) paymaster.UserOperation {
	op = op.Clone()
	return paymaster.UserOperation{
		Sender:               op.Sender,
		Nonce:                orZero(op.Nonce),
		InitCode:             orEmpty(op.InitCode),
		CallData:             orEmpty(op.CallData),
		CallGasLimit:         orZero(op.CallGasLimit),
		VerificationGasLimit: orZero(op.VerificationGasLimit),
		PreVerificationGas:   orZero(op.PreVerificationGas),
		MaxFeePerGas:         orZero(op.MaxFeePerGas),
		MaxPriorityFeePerGas: orZero(op.MaxPriorityFeePerGas),
		PaymasterAndData:     orEmpty(op.PaymasterAndData),
		Signature:            orEmpty(op.Signature),
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func orEmpty(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
