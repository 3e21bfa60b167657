package mevboost

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/boostop"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
)

// SendResult identifies a submitted operation on both settlement paths.
type SendResult struct {
	UserOpHash common.Hash
	// BoostOpHash is zero for a plain operation.
	BoostOpHash common.Hash
	Op          *userop.UserOperation
}

func (r *SendResult) IsBoost() bool {
	return r.BoostOpHash != (common.Hash{})
}

// SendOp submits op to the bundler as is.
func (a *Account) SendOp(ctx context.Context, op *userop.UserOperation) (*SendResult, error) {
	if a.bundler == nil {
		return nil, fmt.Errorf("%w: bundler", ErrConfiguration)
	}

	hash, err := a.bundler.SendUserOperation(ctx, *op, a.entryPoint.Address())
	if err != nil {
		a.metrics.IncOpsSubmitted("failed")
		return nil, fmt.Errorf("eth_sendUserOperation: %w", err)
	}
	a.metrics.IncOpsSubmitted("sent")

	if local := a.UserOpHash(op); local != hash {
		a.logger.Warn("bundler returned a different user op hash", "bundler", hash.Hex(), "local", local.Hex())
	}

	result := &SendResult{UserOpHash: hash, Op: op}
	if boostop.IsBoostOp(op) {
		result.BoostOpHash = a.BoostOpHash(op)
	}

	a.logger.Info("user operation submitted",
		"userOpHash", result.UserOpHash.Hex(),
		"boostOpHash", result.BoostOpHash.Hex(),
		"sender", op.Sender.Hex(),
		"nonce", op.Nonce)
	return result, nil
}

// Send builds the current operation, submits it and resets the builder for
// the next one.
func (a *Account) Send(ctx context.Context) (*SendResult, error) {
	op, err := a.BuildOp(ctx)
	if err != nil {
		return nil, err
	}

	result, err := a.SendOp(ctx, op)
	if err != nil {
		return nil, err
	}
	a.ResetOp()
	return result, nil
}
