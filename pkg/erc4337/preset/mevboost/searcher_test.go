package mevboost

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/signer"
	"github.com/AvaProtocol/mevboost-aa/core/testutil"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/boostop"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
)

func buildBoostOp(t *testing.T, h *harness, selfSponsoredAfter int64) (*Account, *userop.UserOperation) {
	a := h.account(t)
	config := boostop.MEVConfig{MinAmount: big.NewInt(1000), SelfSponsoredAfter: big.NewInt(selfSponsoredAfter)}
	require.NoError(t, a.BoostExecute(config, recipient, big.NewInt(1), nil))

	op, err := a.BuildOp(context.Background())
	require.NoError(t, err)
	return a, op
}

func newTestSearcher(t *testing.T, h *harness) *Searcher {
	s, err := NewSearcher(context.Background(), h.searcher, h.backend, h.options())
	require.NoError(t, err)
	return s
}

func TestFill(t *testing.T) {
	tests := []struct {
		name           string
		amount         *big.Int
		requireSuccess bool
		want           int64
	}{
		{name: "suggested amount", requireSuccess: true, want: 123_456},
		{name: "explicit amount", amount: big.NewInt(777), requireSuccess: true, want: 777},
		{name: "no success required", requireSuccess: false, want: 123_456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.nonce = big.NewInt(1)
			a, op := buildBoostOp(t, h, 1_700_000_600)
			original := op.Clone()

			filled, err := newTestSearcher(t, h).Fill(context.Background(), op, tt.requireSuccess, tt.amount)
			require.NoError(t, err)
			assert.Equal(t, original, op)

			pmd, err := boostop.DecodePaymasterAndData(filled.PaymasterAndData)
			require.NoError(t, err)
			assert.Equal(t, testutil.MEVBoostPaymasterAddress, pmd.Paymaster)
			assert.Equal(t, h.searcher.Address(), pmd.MEVPayInfo.Provider)
			assert.Equal(t, a.BoostOpHash(op), common.Hash(pmd.MEVPayInfo.BoostUserOpHash))
			assert.Equal(t, tt.want, pmd.MEVPayInfo.Amount.Int64())
			assert.Equal(t, tt.requireSuccess, pmd.MEVPayInfo.RequireSuccess)

			digest, err := boostop.MEVPayInfoDigest(pmd.MEVPayInfo, testutil.MEVBoostPaymasterAddress, big.NewInt(testChainID))
			require.NoError(t, err)
			provider, err := signer.RecoverSigner(digest, pmd.Signature)
			require.NoError(t, err)
			assert.Equal(t, h.searcher.Address(), provider)

			// the owner signature survives the fill
			assert.Equal(t, a.BoostOpHash(op), a.BoostOpHash(filled))
			assert.NotEqual(t, a.UserOpHash(op), a.UserOpHash(filled))
			owner, err := signer.RecoverSigner(signer.EIP191Hash(a.BoostOpHash(filled).Bytes()), filled.Signature)
			require.NoError(t, err)
			assert.Equal(t, h.owner.Address(), owner)
		})
	}
}

func TestFillDeadlinePassed(t *testing.T) {
	for _, deadline := range []int64{1_700_000_000, 1_600_000_000} {
		h := newHarness(t)
		h.nonce = big.NewInt(1)
		_, op := buildBoostOp(t, h, deadline)
		original := op.Clone()

		filled, err := newTestSearcher(t, h).Fill(context.Background(), op, true, nil)
		require.ErrorIs(t, err, ErrDeadlinePassed)
		assert.Nil(t, filled)
		assert.Contains(t, err.Error(), "do not need to fill")
		assert.Equal(t, original, op)

		var deadlineErr *DeadlinePassedError
		require.True(t, errors.As(err, &deadlineErr))
		assert.Equal(t, deadline, deadlineErr.SelfSponsoredAfter.Int64())
		assert.Equal(t, uint64(1_700_000_000), deadlineErr.BlockTimestamp)
	}
}

func TestFillInsufficientBalance(t *testing.T) {
	h := newHarness(t)
	h.nonce = big.NewInt(1)
	h.balance = big.NewInt(500)
	_, op := buildBoostOp(t, h, 1_700_000_600)
	original := op.Clone()

	s := newTestSearcher(t, h)
	_, err := s.Fill(context.Background(), op, true, nil)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, original, op)

	var balanceErr *InsufficientBalanceError
	require.True(t, errors.As(err, &balanceErr))
	assert.Equal(t, int64(500), balanceErr.Balance.Int64())
	assert.Equal(t, int64(123_456), balanceErr.Amount.Int64())

	// an amount within the deposit still fills
	_, err = s.Fill(context.Background(), op, true, big.NewInt(500))
	require.NoError(t, err)

	balance, err := s.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance.Int64())
}

func TestFillRejectsPlainOperation(t *testing.T) {
	h := newHarness(t)
	h.nonce = big.NewInt(1)
	a := h.account(t)
	require.NoError(t, a.Execute(recipient, big.NewInt(1), nil))
	op, err := a.BuildOp(context.Background())
	require.NoError(t, err)

	_, err = newTestSearcher(t, h).Fill(context.Background(), op, true, nil)
	require.ErrorIs(t, err, boostop.ErrNotBoostOperation)
}

func TestAccountFillBoostOp(t *testing.T) {
	h := newHarness(t)
	h.nonce = big.NewInt(1)
	a, _ := buildBoostOp(t, h, 1_700_000_600)

	filled, err := a.FillBoostOp(context.Background(), true, nil)
	require.NoError(t, err)
	assert.Equal(t, filled.PaymasterAndData, a.GetOp().PaymasterAndData)

	pmd, err := boostop.DecodePaymasterAndData(a.GetOp().PaymasterAndData)
	require.NoError(t, err)
	assert.Equal(t, h.owner.Address(), pmd.MEVPayInfo.Provider)
}

func TestNewSearcherRequiresPaymaster(t *testing.T) {
	h := newHarness(t)
	opts := h.options()
	opts.MEVBoostPaymaster = common.Address{}

	_, err := NewSearcher(context.Background(), h.searcher, h.backend, opts)
	require.ErrorIs(t, err, ErrConfiguration)
}
