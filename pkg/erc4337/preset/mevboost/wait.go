package mevboost

import (
	"context"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa"
	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa/paymaster"
)

const (
	DefaultWaitTimeout  = 30 * time.Second
	DefaultWaitInterval = 5 * time.Second

	// blocks behind the head a wait starts searching from
	waitLookbackBlocks = 100
)

// Wait polls the entry point for the UserOperationEvent of userOpHash until
// timeout elapses. It returns nil and no error on timeout. Zero durations use
// DefaultWaitTimeout and DefaultWaitInterval.
func (a *Account) Wait(ctx context.Context, userOpHash common.Hash, timeout, interval time.Duration) (*aa.EntryPointUserOperationEvent, error) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	query := ethereum.FilterQuery{
		Addresses: []common.Address{a.entryPoint.Address()},
		Topics:    [][]common.Hash{{a.entryPoint.UserOperationEventID()}, {userOpHash}},
	}
	log, err := a.pollLogs(ctx, "normal", query, time.Now().Add(timeout), interval)
	if err != nil || log == nil {
		return nil, err
	}
	return a.entryPoint.ParseUserOperationEvent(*log)
}

// BoostWait polls the settlement contract for the SettleUserOp event of
// boostOpHash until deadline, a unix time in seconds such as the operation's
// selfSponsoredAfter. A zero deadline waits DefaultWaitTimeout. It returns nil
// and no error when the deadline passes.
func (a *Account) BoostWait(ctx context.Context, boostOpHash common.Hash, deadline uint64, interval time.Duration) (*paymaster.MEVBoostPaymasterSettleUserOp, error) {
	end := time.Now().Add(DefaultWaitTimeout)
	if deadline != 0 {
		end = time.Unix(int64(deadline), 0)
	}

	query := ethereum.FilterQuery{
		Addresses: []common.Address{a.paymaster.Address()},
		Topics:    [][]common.Hash{{a.paymaster.SettleUserOpEventID()}, nil, {boostOpHash}},
	}
	log, err := a.pollLogs(ctx, "boost", query, end, interval)
	if err != nil || log == nil {
		return nil, err
	}
	return a.paymaster.ParseSettleUserOp(*log)
}

// pollLogs queries from a block snapshotted at start until a log matches or
// end passes. The last query runs at end, or right away when end is already
// past. A failed query is logged and retried on the next tick.
func (a *Account) pollLogs(ctx context.Context, path string, query ethereum.FilterQuery, end time.Time, interval time.Duration) (*types.Log, error) {
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	head, err := a.client.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}
	var fromBlock uint64
	if head > waitLookbackBlocks {
		fromBlock = head - waitLookbackBlocks
	}
	query.FromBlock = new(big.Int).SetUint64(fromBlock)

	// query at least once, even when end has already passed
	for attempt := 1; ; attempt++ {
		logs, err := a.client.FilterLogs(ctx, query)
		if err != nil {
			a.logger.Warn("settlement poll failed", "path", path, "attempt", attempt, "error", err)
		} else if len(logs) > 0 {
			a.logger.Info("settlement found", "path", path, "attempt", attempt, "tx", logs[0].TxHash.Hex())
			a.metrics.IncWaits(path, "found")
			return &logs[0], nil
		} else {
			a.logger.Debug("settlement not found yet", "path", path, "attempt", attempt, "fromBlock", fromBlock)
		}

		remaining := time.Until(end)
		if remaining <= 0 {
			break
		}

		timer := time.NewTimer(min(interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	a.metrics.IncWaits(path, "timeout")
	return nil, nil
}
