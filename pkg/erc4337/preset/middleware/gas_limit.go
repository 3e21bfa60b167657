// Package middleware provides the build steps of a MEV boost account:
// gas pricing, gas estimation and the owner signature.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/boostop"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/builder"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/bundler"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/mevboost-aa/pkg/logger"
)

// ErrIncompleteEstimate is returned when the base estimator leaves a gas
// field unset.
var ErrIncompleteEstimate = errors.New("incomplete gas estimation")

// SimulationStrategy selects how a boost operation is presented to the base
// estimator.
type SimulationStrategy int

const (
	// StrategyZeroDeadline zeroes selfSponsoredAfter in the simulated call data
	// so the owner pays, then adds the settlement contract's postOp overhead.
	StrategyZeroDeadline SimulationStrategy = iota
	// StrategySyntheticPayInfo attaches a zero amount pay info from the sender so
	// the sponsored branch is simulated.
	StrategySyntheticPayInfo
)

// MarginPolicy selects when the gas margin is applied to a boost operation.
type MarginPolicy int

const (
	MarginSyntheticOnly MarginPolicy = iota
	MarginAlways
	MarginNever
)

var (
	DefaultMarginNumerator   = big.NewInt(115)
	DefaultMarginDenominator = big.NewInt(110)

	// placeholder limits for the synthetic simulation copy
	SimulationCallGasLimit         = big.NewInt(1_000_000)
	SimulationVerificationGasLimit = big.NewInt(1_000_000)
	SimulationPreVerificationGas   = big.NewInt(100_000)
)

// BaseEstimator returns the gas limits of op as simulated by a bundler or an
// equivalent service.
type BaseEstimator func(ctx context.Context, op *userop.UserOperation, entryPoint common.Address) (*bundler.GasEstimation, error)

// UserOpGasEstimator is implemented by bundler.BundlerClient.
type UserOpGasEstimator interface {
	EstimateUserOperationGas(ctx context.Context, op userop.UserOperation, entryPoint common.Address) (*bundler.GasEstimation, error)
}

// BundlerEstimator adapts a bundler client to a BaseEstimator.
func BundlerEstimator(b UserOpGasEstimator) BaseEstimator {
	return func(ctx context.Context, op *userop.UserOperation, entryPoint common.Address) (*bundler.GasEstimation, error) {
		return b.EstimateUserOperationGas(ctx, *op, entryPoint)
	}
}

// BoostPaymaster is the settlement contract as seen by gas estimation.
type BoostPaymaster interface {
	Address() common.Address
	// MaxGasOfPost returns the contract's fixed postOp overhead.
	MaxGasOfPost(ctx context.Context) (*big.Int, error)
}

type EstimateOptions struct {
	Strategy          SimulationStrategy
	Margin            MarginPolicy
	MarginNumerator   *big.Int
	MarginDenominator *big.Int
	Logger            logger.Logger
}

type EstimateOption func(*EstimateOptions)

func WithStrategy(strategy SimulationStrategy) EstimateOption {
	return func(o *EstimateOptions) {
		o.Strategy = strategy
	}
}

// WithMargin sets when and by how much verificationGasLimit and
// preVerificationGas of a boost operation are scaled. Nil ratios keep 115/110.
func WithMargin(policy MarginPolicy, numerator, denominator *big.Int) EstimateOption {
	return func(o *EstimateOptions) {
		o.Margin = policy
		if numerator != nil {
			o.MarginNumerator = numerator
		}
		if denominator != nil {
			o.MarginDenominator = denominator
		}
	}
}

func WithLogger(lgr logger.Logger) EstimateOption {
	return func(o *EstimateOptions) {
		o.Logger = lgr
	}
}

func (o *EstimateOptions) applyMargin() bool {
	switch o.Margin {
	case MarginAlways:
		return true
	case MarginSyntheticOnly:
		return o.Strategy == StrategySyntheticPayInfo
	}
	return false
}

// EstimateUserOperationGas fills preVerificationGas, verificationGasLimit and
// callGasLimit. A plain operation gets the base estimate unchanged. A boost
// operation is simulated per the configured strategy and its
// verificationGasLimit never ends below the base estimate or the settlement
// contract's postOp overhead.
func EstimateUserOperationGas(creation ethereum.GasEstimator, paymaster BoostPaymaster, base BaseEstimator, opts ...EstimateOption) builder.Middleware {
	o := &EstimateOptions{
		Strategy:          StrategyZeroDeadline,
		Margin:            MarginSyntheticOnly,
		MarginNumerator:   DefaultMarginNumerator,
		MarginDenominator: DefaultMarginDenominator,
	}
	for _, opt := range opts {
		opt(o)
	}
	lgr := logger.EnsureLogger(o.Logger)

	return func(ctx context.Context, uoc *builder.UserOpContext) error {
		op := uoc.Op
		sim := op.Clone()

		// the account is deployed inside this operation
		if op.Nonce == nil || op.Nonce.Sign() == 0 {
			if len(op.InitCode) > 0 {
				gas, err := aa.EstimateCreationGas(ctx, creation, op.InitCode)
				if err != nil {
					return fmt.Errorf("estimate creation gas: %w", err)
				}
				sim.VerificationGasLimit = new(big.Int).Add(orZero(sim.VerificationGasLimit), new(big.Int).SetUint64(gas))
			}
		}

		boosted, err := prepareBoostSimulation(sim, uoc, paymaster.Address(), o.Strategy)
		if err != nil {
			return err
		}

		var overhead *big.Int
		if boosted {
			if overhead, err = paymaster.MaxGasOfPost(ctx); err != nil {
				return fmt.Errorf("MAX_GAS_OF_POST: %w", err)
			}
		}

		est, err := base(ctx, sim, uoc.EntryPoint)
		if err != nil {
			return err
		}
		if est == nil || est.PreVerificationGas == nil || est.VerificationGasLimit == nil || est.CallGasLimit == nil {
			return ErrIncompleteEstimate
		}

		op.PreVerificationGas = new(big.Int).Set(est.PreVerificationGas)
		op.VerificationGasLimit = new(big.Int).Set(est.VerificationGasLimit)
		op.CallGasLimit = new(big.Int).Set(est.CallGasLimit)
		if !boosted {
			return nil
		}

		if o.Strategy == StrategySyntheticPayInfo {
			// the sponsored branch was simulated, postOp only needs its own floor
			if op.VerificationGasLimit.Cmp(overhead) < 0 {
				op.VerificationGasLimit = new(big.Int).Set(overhead)
			}
		} else {
			op.VerificationGasLimit.Add(op.VerificationGasLimit, overhead)
		}

		if o.applyMargin() {
			if o.MarginDenominator.Sign() <= 0 || o.MarginNumerator.Cmp(o.MarginDenominator) < 0 {
				return fmt.Errorf("invalid gas margin %s/%s", o.MarginNumerator, o.MarginDenominator)
			}
			op.VerificationGasLimit = scale(op.VerificationGasLimit, o.MarginNumerator, o.MarginDenominator)
			op.PreVerificationGas = scale(op.PreVerificationGas, o.MarginNumerator, o.MarginDenominator)
		}

		lgr.Debug("boost operation gas estimated",
			"postOpOverhead", overhead,
			"verificationGasLimit", op.VerificationGasLimit,
			"preVerificationGas", op.PreVerificationGas,
			"callGasLimit", op.CallGasLimit)
		return nil
	}
}

// prepareBoostSimulation rewrites sim for the chosen strategy. It reports
// false, leaving sim untouched, when the call data is not a boost call.
func prepareBoostSimulation(sim *userop.UserOperation, uoc *builder.UserOpContext, paymaster common.Address, strategy SimulationStrategy) (bool, error) {
	_, err := boostop.GetBoostOpInfo(sim)
	if errors.Is(err, boostop.ErrNotBoostOperation) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if strategy == StrategySyntheticPayInfo {
		sim.CallGasLimit = maxBig(sim.CallGasLimit, SimulationCallGasLimit)
		sim.VerificationGasLimit = maxBig(sim.VerificationGasLimit, SimulationVerificationGasLimit)
		sim.PreVerificationGas = maxBig(sim.PreVerificationGas, SimulationPreVerificationGas)

		pmd, err := boostop.EncodePaymasterAndData(paymaster, boostop.MEVPayInfo{
			Provider:        sim.Sender,
			BoostUserOpHash: sim.GetBoostOpHash(uoc.EntryPoint, uoc.ChainID),
			Amount:          new(big.Int),
			RequireSuccess:  true,
		}, aa.DummySignature)
		if err != nil {
			return false, err
		}
		sim.PaymasterAndData = pmd
		return true, nil
	}

	callData, err := boostop.WithSelfSponsoredAfter(sim.CallData, new(big.Int))
	if err != nil {
		return false, err
	}
	sim.CallData = callData
	return true, nil
}

func scale(v, numerator, denominator *big.Int) *big.Int {
	out := new(big.Int).Mul(v, numerator)
	return out.Div(out, denominator)
}

func maxBig(a, b *big.Int) *big.Int {
	if a == nil || a.Cmp(b) < 0 {
		return new(big.Int).Set(b)
	}
	return new(big.Int).Set(a)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
