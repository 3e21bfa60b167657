package mevboost

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa"
	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa/paymaster"
	"github.com/AvaProtocol/mevboost-aa/core/chainio/signer"
	"github.com/AvaProtocol/mevboost-aa/metrics"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/boostop"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/mevboost-aa/pkg/logger"
)

// Searcher pays the fee of boost operations from its deposit at the
// settlement contract.
type Searcher struct {
	signer     signer.Signer
	client     bind.ContractBackend
	paymaster  *paymaster.MEVBoostPaymaster
	entryPoint common.Address
	chainID    *big.Int

	logger  logger.Logger
	metrics metrics.MetricsGenerator
}

// NewSearcher returns a searcher for the settlement contract in opts. Only
// EntryPoint, MEVBoostPaymaster, Logger and Metrics are read.
func NewSearcher(ctx context.Context, s signer.Signer, client EthClient, opts *Options) (*Searcher, error) {
	if opts == nil {
		opts = &Options{}
	}

	paymasterAddr := orAddress(opts.MEVBoostPaymaster, aa.MEVBoostPaymasterAddress)
	if paymasterAddr == (common.Address{}) {
		return nil, fmt.Errorf("%w: mevBoostPaymaster", ErrConfiguration)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	pm, err := paymaster.NewMEVBoostPaymaster(paymasterAddr, client)
	if err != nil {
		return nil, err
	}

	return newSearcher(s, client, pm, orAddress(opts.EntryPoint, aa.EntrypointAddress), chainID,
		logger.EnsureLogger(opts.Logger), metrics.EnsureMetrics(opts.Metrics)), nil
}

func newSearcher(s signer.Signer, client bind.ContractBackend, pm *paymaster.MEVBoostPaymaster, entryPoint common.Address, chainID *big.Int, lgr logger.Logger, m metrics.MetricsGenerator) *Searcher {
	return &Searcher{
		signer:     s,
		client:     client,
		paymaster:  pm,
		entryPoint: entryPoint,
		chainID:    chainID,
		logger:     lgr,
		metrics:    m,
	}
}

func (s *Searcher) Address() common.Address {
	return s.signer.Address()
}

// Balance is the searcher's deposit at the settlement contract.
func (s *Searcher) Balance(ctx context.Context) (*big.Int, error) {
	return s.paymaster.Balances(&bind.CallOpts{Context: ctx}, s.signer.Address())
}

// Fill returns a copy of op carrying a signed payment commitment in
// paymasterAndData. A nil amount pays what the settlement contract suggests.
//
// Fill fails with a *DeadlinePassedError when selfSponsoredAfter is not after
// the latest block time, and with an *InsufficientBalanceError when the deposit
// cannot cover amount. op is never modified and its signature stays valid since
// the boost hash ignores paymasterAndData.
func (s *Searcher) Fill(ctx context.Context, op *userop.UserOperation, requireSuccess bool, amount *big.Int) (*userop.UserOperation, error) {
	filled, err := s.fill(ctx, op, requireSuccess, amount)
	if err != nil {
		s.metrics.IncFills("failed")
		return nil, err
	}
	s.metrics.IncFills("filled")
	return filled, nil
}

func (s *Searcher) fill(ctx context.Context, op *userop.UserOperation, requireSuccess bool, amount *big.Int) (*userop.UserOperation, error) {
	info, err := boostop.GetBoostOpInfo(op)
	if err != nil {
		return nil, err
	}

	now, err := blockTimestamp(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("latest block: %w", err)
	}
	deadline := info.MEVConfig.SelfSponsoredAfter
	if deadline.Cmp(new(big.Int).SetUint64(now)) <= 0 {
		return nil, &DeadlinePassedError{SelfSponsoredAfter: new(big.Int).Set(deadline), BlockTimestamp: now}
	}

	callOpts := &bind.CallOpts{Context: ctx}
	searcher := s.signer.Address()

	payInfo, err := s.paymaster.GetMEVPayInfo(callOpts, searcher, requireSuccess, toPaymasterOp(op))
	if err != nil {
		return nil, fmt.Errorf("getMEVPayInfo: %w", err)
	}
	if expected := op.GetBoostOpHash(s.entryPoint, s.chainID); common.Hash(payInfo.BoostUserOpHash) != expected {
		s.logger.Warn("settlement contract boost hash differs from local boost hash",
			"contract", common.Hash(payInfo.BoostUserOpHash).Hex(),
			"local", expected.Hex(),
			"entryPoint", s.entryPoint.Hex())
	}

	if amount == nil {
		amount = payInfo.Amount
	}
	balance, err := s.paymaster.Balances(callOpts, searcher)
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}
	if amount.Cmp(balance) > 0 {
		return nil, &InsufficientBalanceError{Searcher: searcher, Balance: balance, Amount: new(big.Int).Set(amount)}
	}

	commitment := boostop.MEVPayInfo{
		Provider:        payInfo.Provider,
		BoostUserOpHash: payInfo.BoostUserOpHash,
		Amount:          new(big.Int).Set(amount),
		RequireSuccess:  requireSuccess,
	}
	signature, err := s.signer.SignTypedData(boostop.MEVPayInfoTypedData(commitment, s.paymaster.Address(), s.chainID))
	if err != nil {
		return nil, fmt.Errorf("sign MEVPayInfo: %w", err)
	}

	paymasterAndData, err := boostop.EncodePaymasterAndData(s.paymaster.Address(), commitment, signature)
	if err != nil {
		return nil, err
	}

	s.logger.Info("boost operation filled",
		"boostOpHash", common.Hash(commitment.BoostUserOpHash).Hex(),
		"searcher", searcher.Hex(),
		"amount", amount,
		"balance", balance,
		"requireSuccess", requireSuccess)

	filled := op.Clone()
	filled.PaymasterAndData = paymasterAndData
	return filled, nil
}

// FillBoostOp fills the current operation with the account's own signer as
// searcher and stores the result in the builder.
func (a *Account) FillBoostOp(ctx context.Context, requireSuccess bool, amount *big.Int) (*userop.UserOperation, error) {
	filled, err := a.searcher.Fill(ctx, a.GetOp(), requireSuccess, amount)
	if err != nil {
		return nil, err
	}
	a.SetPaymasterAndData(filled.PaymasterAndData)
	return filled, nil
}
