// Package builder assembles user operations through an ordered middleware pipeline.
package builder

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
)

var (
	DEFAULT_CALL_GAS_LIMIT         = big.NewInt(35000)
	DEFAULT_VERIFICATION_GAS_LIMIT = big.NewInt(70000)
	DEFAULT_PREVERIFICATION_GAS    = big.NewInt(21000)
)

// DefaultUserOp returns the operation a fresh builder starts from.
func DefaultUserOp() *userop.UserOperation {
	return &userop.UserOperation{
		Nonce:                big.NewInt(0),
		InitCode:             []byte{},
		CallData:             []byte{},
		CallGasLimit:         new(big.Int).Set(DEFAULT_CALL_GAS_LIMIT),
		VerificationGasLimit: new(big.Int).Set(DEFAULT_VERIFICATION_GAS_LIMIT),
		PreVerificationGas:   new(big.Int).Set(DEFAULT_PREVERIFICATION_GAS),
		MaxFeePerGas:         big.NewInt(0),
		MaxPriorityFeePerGas: big.NewInt(0),
		PaymasterAndData:     []byte{},
		Signature:            []byte{},
	}
}

// UserOperationBuilder keeps a default operation, the operation being built and
// the middleware run on BuildOp in registration order.
type UserOperationBuilder struct {
	defaultOp  *userop.UserOperation
	currOp     *userop.UserOperation
	middleware []Middleware
}

func NewUserOperationBuilder() *UserOperationBuilder {
	return &UserOperationBuilder{
		defaultOp: DefaultUserOp(),
		currOp:    DefaultUserOp(),
	}
}

// UseDefaults overrides the default and current values of every field set in
// partial. Nil fields are left untouched; a zero address sender is ignored.
func (b *UserOperationBuilder) UseDefaults(partial *userop.UserOperation) *UserOperationBuilder {
	merge(b.defaultOp, partial)
	merge(b.currOp, partial)
	return b
}

func merge(dst, src *userop.UserOperation) {
	if src.Sender != (common.Address{}) {
		dst.Sender = src.Sender
	}
	if src.Nonce != nil {
		dst.Nonce = new(big.Int).Set(src.Nonce)
	}
	if src.InitCode != nil {
		dst.InitCode = common.CopyBytes(src.InitCode)
	}
	if src.CallData != nil {
		dst.CallData = common.CopyBytes(src.CallData)
	}
	if src.CallGasLimit != nil {
		dst.CallGasLimit = new(big.Int).Set(src.CallGasLimit)
	}
	if src.VerificationGasLimit != nil {
		dst.VerificationGasLimit = new(big.Int).Set(src.VerificationGasLimit)
	}
	if src.PreVerificationGas != nil {
		dst.PreVerificationGas = new(big.Int).Set(src.PreVerificationGas)
	}
	if src.MaxFeePerGas != nil {
		dst.MaxFeePerGas = new(big.Int).Set(src.MaxFeePerGas)
	}
	if src.MaxPriorityFeePerGas != nil {
		dst.MaxPriorityFeePerGas = new(big.Int).Set(src.MaxPriorityFeePerGas)
	}
	if src.PaymasterAndData != nil {
		dst.PaymasterAndData = common.CopyBytes(src.PaymasterAndData)
	}
	if src.Signature != nil {
		dst.Signature = common.CopyBytes(src.Signature)
	}
}

// UseMiddleware appends fn to the pipeline.
func (b *UserOperationBuilder) UseMiddleware(fn Middleware) *UserOperationBuilder {
	b.middleware = append(b.middleware, fn)
	return b
}

func (b *UserOperationBuilder) ResetMiddleware() *UserOperationBuilder {
	b.middleware = nil
	return b
}

func (b *UserOperationBuilder) SetCallData(callData []byte) *UserOperationBuilder {
	b.currOp.CallData = common.CopyBytes(callData)
	return b
}

func (b *UserOperationBuilder) SetPaymasterAndData(paymasterAndData []byte) *UserOperationBuilder {
	b.currOp.PaymasterAndData = common.CopyBytes(paymasterAndData)
	return b
}

func (b *UserOperationBuilder) SetSignature(signature []byte) *UserOperationBuilder {
	b.currOp.Signature = common.CopyBytes(signature)
	return b
}

// SetOp replaces the current operation.
func (b *UserOperationBuilder) SetOp(op *userop.UserOperation) *UserOperationBuilder {
	b.currOp = op.Clone()
	return b
}

func (b *UserOperationBuilder) GetSender() common.Address {
	return b.currOp.Sender
}

func (b *UserOperationBuilder) GetCallData() []byte {
	return common.CopyBytes(b.currOp.CallData)
}

// GetOp returns a copy of the current operation.
func (b *UserOperationBuilder) GetOp() *userop.UserOperation {
	return b.currOp.Clone()
}

// BuildOp runs every middleware on a copy of the current operation. On success
// the result becomes the current operation; on failure the current operation
// is left as it was.
func (b *UserOperationBuilder) BuildOp(ctx context.Context, entryPoint common.Address, chainID *big.Int) (*userop.UserOperation, error) {
	uoc := &UserOpContext{
		Op:         b.currOp.Clone(),
		EntryPoint: entryPoint,
		ChainID:    new(big.Int).Set(chainID),
	}

	for i, fn := range b.middleware {
		if err := fn(ctx, uoc); err != nil {
			return nil, fmt.Errorf("middleware %d: %w", i, err)
		}
	}

	b.currOp = uoc.Op
	return b.currOp.Clone(), nil
}

// ResetOp restores the current operation to the defaults.
func (b *UserOperationBuilder) ResetOp() *UserOperationBuilder {
	b.currOp = b.defaultOp.Clone()
	return b
}
