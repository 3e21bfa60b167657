package builder

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
)

// UserOpContext is handed to every middleware of a build.
type UserOpContext struct {
	Op         *userop.UserOperation
	EntryPoint common.Address
	ChainID    *big.Int
}

func (c *UserOpContext) GetUserOpHash() common.Hash {
	return c.Op.GetUserOpHash(c.EntryPoint, c.ChainID)
}

func (c *UserOpContext) GetBoostOpHash() common.Hash {
	return c.Op.GetBoostOpHash(c.EntryPoint, c.ChainID)
}

// Middleware mutates the operation in place. Returning an error aborts the build.
type Middleware func(ctx context.Context, uoc *UserOpContext) error
