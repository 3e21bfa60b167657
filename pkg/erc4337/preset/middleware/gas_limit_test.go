package middleware

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa"
	"github.com/AvaProtocol/mevboost-aa/core/testutil"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/boostop"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/builder"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/bundler"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
)

var testChainID = big.NewInt(11155111)

type fakePaymaster struct {
	overhead *big.Int
	err      error
}

func (p *fakePaymaster) Address() common.Address {
	return testutil.MEVBoostPaymasterAddress
}

func (p *fakePaymaster) MaxGasOfPost(ctx context.Context) (*big.Int, error) {
	return p.overhead, p.err
}

// recordingEstimator returns fixed limits and remembers the operation it simulated.
type recordingEstimator struct {
	seen *userop.UserOperation
	err  error
}

func (r *recordingEstimator) estimate(ctx context.Context, op *userop.UserOperation, entryPoint common.Address) (*bundler.GasEstimation, error) {
	r.seen = op.Clone()
	if r.err != nil {
		return nil, r.err
	}
	return &bundler.GasEstimation{
		PreVerificationGas:   big.NewInt(99999),
		VerificationGasLimit: big.NewInt(999999),
		CallGasLimit:         big.NewInt(999999),
	}, nil
}

func plainOp(t *testing.T, nonce int64) *userop.UserOperation {
	callData, err := aa.PackExecute(common.HexToAddress("0x1111111111111111111111111111111111111111"), big.NewInt(1), nil)
	require.NoError(t, err)

	op := builder.DefaultUserOp()
	op.Sender = testutil.SenderAddress
	op.Nonce = big.NewInt(nonce)
	op.CallData = callData
	return op
}

func boostOp(t *testing.T, nonce int64) *userop.UserOperation {
	callData, err := aa.PackBoostExecute(boostop.MEVConfig{
		MinAmount:          big.NewInt(1_000_000),
		SelfSponsoredAfter: big.NewInt(1_900_000_000),
	}, common.HexToAddress("0x1111111111111111111111111111111111111111"), big.NewInt(1), nil)
	require.NoError(t, err)

	op := plainOp(t, nonce)
	op.CallData = callData
	return op
}

func run(t *testing.T, mw builder.Middleware, op *userop.UserOperation) error {
	return mw(context.Background(), &builder.UserOpContext{
		Op:         op,
		EntryPoint: testutil.EntryPointAddress,
		ChainID:    testChainID,
	})
}

func TestEstimatePlainOperationKeepsBaseEstimate(t *testing.T) {
	backend := testutil.NewFakeBackend(testChainID.Int64())
	base := &recordingEstimator{}
	pm := &fakePaymaster{overhead: big.NewInt(50000)}

	op := plainOp(t, 3)
	original := op.Clone()
	require.NoError(t, run(t, EstimateUserOperationGas(backend, pm, base.estimate, WithMargin(MarginAlways, nil, nil)), op))

	assert.Equal(t, int64(99999), op.PreVerificationGas.Int64())
	assert.Equal(t, int64(999999), op.VerificationGasLimit.Int64())
	assert.Equal(t, int64(999999), op.CallGasLimit.Int64())
	assert.Equal(t, original, base.seen)
}

func TestEstimateAddsCreationGasToSimulationOnly(t *testing.T) {
	backend := testutil.NewFakeBackend(testChainID.Int64())
	backend.SetGasEstimate(300_000)
	base := &recordingEstimator{}

	initCode, err := aa.GetInitCode(testutil.FactoryAddress, testutil.SenderAddress, testutil.MEVBoostPaymasterAddress, big.NewInt(0))
	require.NoError(t, err)

	op := plainOp(t, 0)
	op.InitCode = initCode
	require.NoError(t, run(t, EstimateUserOperationGas(backend, &fakePaymaster{}, base.estimate), op))

	assert.Equal(t, new(big.Int).Add(builder.DEFAULT_VERIFICATION_GAS_LIMIT, big.NewInt(300_000)), base.seen.VerificationGasLimit)
	assert.Equal(t, int64(999999), op.VerificationGasLimit.Int64())
}

func TestEstimateBoostOperation(t *testing.T) {
	tests := []struct {
		name         string
		opts         []EstimateOption
		overhead     int64
		verification int64
		preVerif     int64
	}{
		{
			name:         "zero deadline adds overhead",
			overhead:     50000,
			verification: 999999 + 50000,
			preVerif:     99999,
		},
		{
			name:         "zero deadline with margin always",
			opts:         []EstimateOption{WithMargin(MarginAlways, nil, nil)},
			overhead:     50000,
			verification: 1097726,
			preVerif:     104544,
		},
		{
			name:         "synthetic keeps base above overhead",
			opts:         []EstimateOption{WithStrategy(StrategySyntheticPayInfo)},
			overhead:     50000,
			verification: 1045453,
			preVerif:     104544,
		},
		{
			name:         "synthetic raises to overhead",
			opts:         []EstimateOption{WithStrategy(StrategySyntheticPayInfo)},
			overhead:     2_000_000,
			verification: 2090909,
			preVerif:     104544,
		},
		{
			name:         "synthetic without margin",
			opts:         []EstimateOption{WithStrategy(StrategySyntheticPayInfo), WithMargin(MarginNever, nil, nil)},
			overhead:     50000,
			verification: 999999,
			preVerif:     99999,
		},
		{
			name:         "custom margin",
			opts:         []EstimateOption{WithMargin(MarginAlways, big.NewInt(2), big.NewInt(1))},
			overhead:     1,
			verification: 2_000_000,
			preVerif:     199998,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := testutil.NewFakeBackend(testChainID.Int64())
			base := &recordingEstimator{}
			pm := &fakePaymaster{overhead: big.NewInt(tt.overhead)}

			op := boostOp(t, 1)
			require.NoError(t, run(t, EstimateUserOperationGas(backend, pm, base.estimate, tt.opts...), op))

			assert.Equal(t, tt.verification, op.VerificationGasLimit.Int64())
			assert.Equal(t, tt.preVerif, op.PreVerificationGas.Int64())
			assert.Equal(t, int64(999999), op.CallGasLimit.Int64())
			assert.GreaterOrEqual(t, op.VerificationGasLimit.Int64(), tt.overhead)
		})
	}
}

func TestZeroDeadlineSimulation(t *testing.T) {
	backend := testutil.NewFakeBackend(testChainID.Int64())
	base := &recordingEstimator{}

	op := boostOp(t, 1)
	original := op.Clone()
	require.NoError(t, run(t, EstimateUserOperationGas(backend, &fakePaymaster{overhead: big.NewInt(1)}, base.estimate), op))

	simulated, err := boostop.GetBoostOpInfo(base.seen)
	require.NoError(t, err)
	assert.Equal(t, int64(0), simulated.MEVConfig.SelfSponsoredAfter.Int64())
	assert.Equal(t, int64(1_000_000), simulated.MEVConfig.MinAmount.Int64())

	// the returned operation keeps the caller's deadline
	assert.Equal(t, original.CallData, op.CallData)
	assert.Empty(t, op.PaymasterAndData)
}

func TestSyntheticPayInfoSimulation(t *testing.T) {
	backend := testutil.NewFakeBackend(testChainID.Int64())
	base := &recordingEstimator{}

	op := boostOp(t, 1)
	mw := EstimateUserOperationGas(backend, &fakePaymaster{overhead: big.NewInt(1)}, base.estimate, WithStrategy(StrategySyntheticPayInfo))
	require.NoError(t, run(t, mw, op))

	assert.Equal(t, SimulationCallGasLimit, base.seen.CallGasLimit)
	assert.Equal(t, SimulationVerificationGasLimit, base.seen.VerificationGasLimit)
	assert.Equal(t, SimulationPreVerificationGas, base.seen.PreVerificationGas)
	assert.Equal(t, op.CallData, base.seen.CallData)

	pmd, err := boostop.DecodePaymasterAndData(base.seen.PaymasterAndData)
	require.NoError(t, err)
	assert.Equal(t, testutil.MEVBoostPaymasterAddress, pmd.Paymaster)
	assert.Equal(t, testutil.SenderAddress, pmd.MEVPayInfo.Provider)
	assert.Equal(t, int64(0), pmd.MEVPayInfo.Amount.Int64())
	assert.True(t, pmd.MEVPayInfo.RequireSuccess)
	assert.Equal(t, base.seen.GetBoostOpHash(testutil.EntryPointAddress, testChainID), common.Hash(pmd.MEVPayInfo.BoostUserOpHash))
	assert.Equal(t, aa.DummySignature, pmd.Signature)

	assert.Empty(t, op.PaymasterAndData)
}

func TestEstimateErrors(t *testing.T) {
	rpcErr := errors.New("connection refused")

	t.Run("overhead fetch", func(t *testing.T) {
		base := &recordingEstimator{}
		mw := EstimateUserOperationGas(testutil.NewFakeBackend(1), &fakePaymaster{err: rpcErr}, base.estimate)
		err := run(t, mw, boostOp(t, 1))
		require.ErrorIs(t, err, rpcErr)
		assert.Nil(t, base.seen)
	})

	t.Run("base estimator", func(t *testing.T) {
		base := &recordingEstimator{err: rpcErr}
		mw := EstimateUserOperationGas(testutil.NewFakeBackend(1), &fakePaymaster{overhead: big.NewInt(1)}, base.estimate)
		op := plainOp(t, 1)
		require.ErrorIs(t, run(t, mw, op), rpcErr)
		assert.Equal(t, builder.DEFAULT_CALL_GAS_LIMIT, op.CallGasLimit)
	})

	t.Run("incomplete estimate", func(t *testing.T) {
		tests := []struct {
			name string
			est  *bundler.GasEstimation
		}{
			{"nil estimation", nil},
			{"missing call gas", &bundler.GasEstimation{PreVerificationGas: big.NewInt(1), VerificationGasLimit: big.NewInt(1)}},
			{"missing verification gas", &bundler.GasEstimation{PreVerificationGas: big.NewInt(1), CallGasLimit: big.NewInt(1)}},
			{"missing pre-verification gas", &bundler.GasEstimation{VerificationGasLimit: big.NewInt(1), CallGasLimit: big.NewInt(1)}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				base := func(ctx context.Context, op *userop.UserOperation, entryPoint common.Address) (*bundler.GasEstimation, error) {
					return tt.est, nil
				}
				mw := EstimateUserOperationGas(testutil.NewFakeBackend(1), &fakePaymaster{overhead: big.NewInt(1)}, base)
				op := boostOp(t, 1)
				require.ErrorIs(t, run(t, mw, op), ErrIncompleteEstimate)
				assert.Equal(t, builder.DEFAULT_CALL_GAS_LIMIT, op.CallGasLimit)
			})
		}
	})

	t.Run("margin below one", func(t *testing.T) {
		base := &recordingEstimator{}
		mw := EstimateUserOperationGas(testutil.NewFakeBackend(1), &fakePaymaster{overhead: big.NewInt(1)}, base.estimate,
			WithMargin(MarginAlways, big.NewInt(100), big.NewInt(110)))
		assert.ErrorContains(t, run(t, mw, boostOp(t, 1)), "invalid gas margin")
	})
}
