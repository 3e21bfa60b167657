package mevboost

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/mevboost-aa/core/testutil"
)

func TestWait(t *testing.T) {
	h := newHarness(t)
	a := h.account(t)
	hash := common.HexToHash("0xabc1")
	h.backend.AddLog(h.userOperationLog(t, hash, 950))

	event, err := a.Wait(context.Background(), hash, time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, hash, common.Hash(event.UserOpHash))
	assert.Equal(t, testutil.SenderAddress, event.Sender)
	assert.True(t, event.Success)
	assert.Equal(t, int64(21000), event.ActualGasCost.Int64())

	require.Len(t, h.backend.Queries, 1)
	assert.Equal(t, int64(900), h.backend.Queries[0].FromBlock.Int64())
}

func TestWaitTimeout(t *testing.T) {
	h := newHarness(t)
	a := h.account(t)
	hash := common.HexToHash("0xabc1")

	// older than the lookback window
	h.backend.AddLog(h.userOperationLog(t, hash, 850))
	h.backend.AddLog(h.userOperationLog(t, common.HexToHash("0xabc2"), 950))

	start := time.Now()
	event, err := a.Wait(context.Background(), hash, 60*time.Millisecond, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, event)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Greater(t, h.backend.QueryCount(), 1)
}

func TestWaitLookbackFloor(t *testing.T) {
	h := newHarness(t)
	h.backend.SetHead(40, 1_700_000_000)
	a := h.account(t)
	hash := common.HexToHash("0xabc1")
	h.backend.AddLog(h.userOperationLog(t, hash, 0))

	event, err := a.Wait(context.Background(), hash, time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, int64(0), h.backend.Queries[0].FromBlock.Int64())
}

func TestWaitFindsLateEvent(t *testing.T) {
	h := newHarness(t)
	a := h.account(t)
	hash := common.HexToHash("0xabc1")

	late := h.userOperationLog(t, hash, 1001)
	go func() {
		time.Sleep(30 * time.Millisecond)
		h.backend.AddLog(late)
	}()

	event, err := a.Wait(context.Background(), hash, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, uint64(1001), event.Raw.BlockNumber)
}

func TestWaitCancelled(t *testing.T) {
	h := newHarness(t)
	a := h.account(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	event, err := a.Wait(ctx, common.HexToHash("0xabc1"), time.Minute, 10*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, event)
}

func TestBoostWait(t *testing.T) {
	h := newHarness(t)
	a := h.account(t)
	boostHash := common.HexToHash("0xb005")
	h.backend.AddLog(h.settleLog(t, boostHash, big.NewInt(5000), 990))

	deadline := uint64(time.Now().Add(time.Second).Unix()) + 1
	event, err := a.BoostWait(context.Background(), boostHash, deadline, 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, boostHash, common.Hash(event.BoostUserOpHash))
	assert.Equal(t, h.searcher.Address(), event.Provider)
	assert.Equal(t, int64(5000), event.Amount.Int64())
}

func TestBoostWaitDeadlinePassed(t *testing.T) {
	tests := []struct {
		name  string
		found bool
	}{
		{"settled before the deadline", true},
		{"not settled", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			a := h.account(t)
			boostHash := common.HexToHash("0xb005")
			if tt.found {
				h.backend.AddLog(h.settleLog(t, boostHash, big.NewInt(5000), 990))
			}

			event, err := a.BoostWait(context.Background(), boostHash, uint64(time.Now().Add(-time.Minute).Unix()), 10*time.Millisecond)
			require.NoError(t, err)
			assert.Equal(t, 1, h.backend.QueryCount())
			if !tt.found {
				assert.Nil(t, event)
				return
			}
			require.NotNil(t, event)
			assert.Equal(t, boostHash, common.Hash(event.BoostUserOpHash))
		})
	}
}

func TestWaitStopsAtTimeout(t *testing.T) {
	h := newHarness(t)
	a := h.account(t)

	start := time.Now()
	event, err := a.Wait(context.Background(), common.HexToHash("0xabc1"), 30*time.Millisecond, time.Minute)
	require.NoError(t, err)
	assert.Nil(t, event)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 2, h.backend.QueryCount())
}

// A filled operation settles through the settlement contract only, so exactly
// one of the two waits finds it.
func TestWaitPathsAreExclusive(t *testing.T) {
	h := newHarness(t)
	h.nonce = big.NewInt(1)
	a, _ := buildBoostOp(t, h, 1_700_000_600)

	filled, err := a.FillBoostOp(context.Background(), true, nil)
	require.NoError(t, err)
	h.backend.AddLog(h.settleLog(t, a.BoostOpHash(filled), big.NewInt(123_456), 1001))

	normal, err := a.Wait(context.Background(), a.UserOpHash(filled), 50*time.Millisecond, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, normal)

	boost, err := a.BoostWait(context.Background(), a.BoostOpHash(filled), uint64(time.Now().Unix())+2, 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, boost)
	assert.Equal(t, a.BoostOpHash(filled), common.Hash(boost.BoostUserOpHash))
}
