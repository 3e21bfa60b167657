// Package mevboost builds, signs, fills and tracks user operations of a MEV
// boost account.
//
// An Account is a UserOperationBuilder whose pipeline resolves the nonce and
// init code, prices gas, estimates limits for both settlement paths and signs
// with the owner key. A Searcher attaches a signed payment commitment to a
// boost operation before its self sponsorship deadline.
package mevboost

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/samber/lo"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa"
	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa/mevboostaccount"
	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa/paymaster"
	"github.com/AvaProtocol/mevboost-aa/core/chainio/signer"
	"github.com/AvaProtocol/mevboost-aa/metrics"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/boostop"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/builder"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/bundler"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/preset/middleware"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/mevboost-aa/pkg/logger"
)

// EthClient is the node API an account needs. *ethclient.Client satisfies it.
type EthClient interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Bundler is the subset of bundler.BundlerClient an account calls.
type Bundler interface {
	EstimateUserOperationGas(ctx context.Context, op userop.UserOperation, entryPoint common.Address) (*bundler.GasEstimation, error)
	SendUserOperation(ctx context.Context, op userop.UserOperation, entryPoint common.Address) (common.Hash, error)
}

type Options struct {
	// Zero addresses fall back to the defaults in package aa.
	EntryPoint        common.Address
	Factory           common.Address
	MEVBoostPaymaster common.Address

	// OverrideBundlerRpc is dialed by Dial for bundler calls instead of the node URL.
	OverrideBundlerRpc string

	// PaymasterMiddleware replaces gas estimation entirely.
	PaymasterMiddleware builder.Middleware
	// BaseEstimateUserOpGas replaces the bundler as the base estimator.
	BaseEstimateUserOpGas middleware.BaseEstimator
	Estimate              []middleware.EstimateOption

	Salt *big.Int

	// Cache holds contract constants. Init creates one when nil.
	Cache   *bigcache.BigCache
	Logger  logger.Logger
	Metrics metrics.MetricsGenerator
}

// Call is one call executed by the account.
type Call struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

type Account struct {
	*builder.UserOperationBuilder

	signer   signer.Signer
	client   EthClient
	bundler  Bundler
	chainID  *big.Int
	initCode []byte
	sender   common.Address

	entryPoint *aa.EntryPoint
	factory    *aa.MEVBoostAccountFactory
	proxy      *mevboostaccount.MEVBoostAccountCaller
	paymaster  *paymaster.MEVBoostPaymaster
	searcher   *Searcher

	cache      *bigcache.BigCache
	ownedCache bool
	closers    []func()

	logger  logger.Logger
	metrics metrics.MetricsGenerator
}

// Dial connects to rpcURL, and to OverrideBundlerRpc for bundler calls when
// set, then runs Init.
func Dial(ctx context.Context, s signer.Signer, rpcURL string, opts *Options) (*Account, error) {
	if opts == nil {
		opts = &Options{}
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	bundlerURL := rpcURL
	if opts.OverrideBundlerRpc != "" {
		bundlerURL = opts.OverrideBundlerRpc
	}
	bundlerClient, err := bundler.NewBundlerClient(bundlerURL, opts.Logger)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("dial bundler %s: %w", bundlerURL, err)
	}

	account, err := Init(ctx, s, client, bundlerClient, opts)
	if err != nil {
		bundlerClient.Close()
		client.Close()
		return nil, err
	}
	account.closers = append(account.closers, bundlerClient.Close, client.Close)
	return account, nil
}

// Init derives the account address of s and assembles the build pipeline.
//
// The factory and settlement contract addresses are required; ErrConfiguration
// is returned when either resolves to the zero address. bundlerClient may be
// nil when opts supplies an estimator, in which case Send is unavailable.
func Init(ctx context.Context, s signer.Signer, client EthClient, bundlerClient Bundler, opts *Options) (*Account, error) {
	if opts == nil {
		opts = &Options{}
	}

	entryPointAddr := orAddress(opts.EntryPoint, aa.EntrypointAddress)
	factoryAddr := orAddress(opts.Factory, aa.FactoryAddress)
	paymasterAddr := orAddress(opts.MEVBoostPaymaster, aa.MEVBoostPaymasterAddress)
	if factoryAddr == (common.Address{}) {
		return nil, fmt.Errorf("%w: factory", ErrConfiguration)
	}
	if paymasterAddr == (common.Address{}) {
		return nil, fmt.Errorf("%w: mevBoostPaymaster", ErrConfiguration)
	}
	if bundlerClient == nil && opts.BaseEstimateUserOpGas == nil && opts.PaymasterMiddleware == nil {
		return nil, fmt.Errorf("%w: bundler", ErrConfiguration)
	}

	lgr := logger.EnsureLogger(opts.Logger)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	entryPoint, err := aa.NewEntryPoint(entryPointAddr, client)
	if err != nil {
		return nil, err
	}
	factory, err := aa.NewMEVBoostAccountFactory(factoryAddr, client)
	if err != nil {
		return nil, err
	}
	pm, err := paymaster.NewMEVBoostPaymaster(paymasterAddr, client)
	if err != nil {
		return nil, err
	}

	salt := opts.Salt
	if salt == nil {
		salt = big.NewInt(0)
	}
	initCode, err := aa.GetInitCode(factoryAddr, s.Address(), paymasterAddr, salt)
	if err != nil {
		return nil, err
	}

	result, err := aa.SimulateSenderAddress(ctx, client, entryPointAddr, initCode)
	if err != nil {
		return nil, fmt.Errorf("derive sender address: %w", err)
	}
	proxy, err := mevboostaccount.NewMEVBoostAccountCaller(result.Sender, client)
	if err != nil {
		return nil, err
	}

	cache, ownedCache := opts.Cache, false
	if cache == nil {
		config := bigcache.DefaultConfig(time.Hour)
		config.Verbose = false
		config.HardMaxCacheSize = 1
		if cache, err = bigcache.New(ctx, config); err != nil {
			return nil, err
		}
		ownedCache = true
	}

	a := &Account{
		UserOperationBuilder: builder.NewUserOperationBuilder(),
		signer:               s,
		client:               client,
		bundler:              bundlerClient,
		chainID:              chainID,
		initCode:             initCode,
		sender:               result.Sender,
		entryPoint:           entryPoint,
		factory:              factory,
		proxy:                proxy,
		paymaster:            pm,
		cache:                cache,
		ownedCache:           ownedCache,
		logger:               lgr,
		metrics:              metrics.EnsureMetrics(opts.Metrics),
	}
	a.searcher = newSearcher(s, client, pm, entryPointAddr, chainID, lgr, a.metrics)

	a.UseDefaults(&userop.UserOperation{
		Sender:    result.Sender,
		Signature: aa.DummySignature,
	}).
		UseMiddleware(a.resolveAccount).
		UseMiddleware(middleware.GasPrice(client))

	if opts.PaymasterMiddleware != nil {
		a.UseMiddleware(opts.PaymasterMiddleware)
	} else {
		base := opts.BaseEstimateUserOpGas
		if base == nil {
			base = middleware.BundlerEstimator(bundlerClient)
		}
		estimateOpts := append([]middleware.EstimateOption{middleware.WithLogger(lgr)}, opts.Estimate...)
		a.UseMiddleware(middleware.EstimateUserOperationGas(client, &postOpGas{paymaster: pm, cache: cache}, base, estimateOpts...))
	}
	a.UseMiddleware(middleware.EOASignature(s))

	lgr.Debug("mevboost account initialized",
		"sender", result.Sender.Hex(),
		"owner", s.Address().Hex(),
		"factory", factoryAddr.Hex(),
		"paymaster", paymasterAddr.Hex(),
		"initCodeLength", len(initCode))

	return a, nil
}

func (a *Account) resolveAccount(ctx context.Context, uoc *builder.UserOpContext) error {
	nonce, err := a.entryPoint.GetNonce(&bind.CallOpts{Context: ctx}, uoc.Op.Sender, big.NewInt(0))
	if err != nil {
		return fmt.Errorf("get nonce: %w", err)
	}

	uoc.Op.Nonce = nonce
	if nonce.Sign() == 0 {
		uoc.Op.InitCode = common.CopyBytes(a.initCode)
	} else {
		uoc.Op.InitCode = []byte{}
	}
	return nil
}

// Close releases the cache created by Init and the clients created by Dial.
func (a *Account) Close() {
	if a.ownedCache {
		a.cache.Close()
	}
	for _, c := range a.closers {
		c()
	}
}

// BuildOp runs the pipeline on the current operation and returns the signed result.
func (a *Account) BuildOp(ctx context.Context) (*userop.UserOperation, error) {
	op, err := a.UserOperationBuilder.BuildOp(ctx, a.entryPoint.Address(), a.chainID)
	if err != nil {
		return nil, err
	}

	kind := "plain"
	if boostop.IsBoostOp(op) {
		kind = "boost"
	}
	a.metrics.IncOpsBuilt(kind)
	return op, nil
}

func (a *Account) Execute(to common.Address, value *big.Int, data []byte) error {
	callData, err := aa.PackExecute(to, value, data)
	if err != nil {
		return err
	}
	a.SetCallData(callData)
	return nil
}

func (a *Account) ExecuteBatch(to []common.Address, value []*big.Int, data [][]byte) error {
	if err := checkBatch(to, value, data); err != nil {
		return err
	}
	callData, err := aa.PackExecuteBatch(to, value, data)
	if err != nil {
		return err
	}
	a.SetCallData(callData)
	return nil
}

// BoostExecute sets a single call that a searcher may sponsor until
// config.SelfSponsoredAfter.
func (a *Account) BoostExecute(config boostop.MEVConfig, to common.Address, value *big.Int, data []byte) error {
	callData, err := aa.PackBoostExecute(config, to, value, data)
	if err != nil {
		return err
	}
	a.SetCallData(callData)
	return nil
}

func (a *Account) BoostExecuteBatch(config boostop.MEVConfig, to []common.Address, value []*big.Int, data [][]byte) error {
	if err := checkBatch(to, value, data); err != nil {
		return err
	}
	callData, err := aa.PackBoostExecuteBatch(config, to, value, data)
	if err != nil {
		return err
	}
	a.SetCallData(callData)
	return nil
}

// SetCalls picks the single or batch entry point from the number of calls, and
// the boost variant when config is not nil.
func (a *Account) SetCalls(calls []Call, config *boostop.MEVConfig) error {
	callData, err := EncodeCalls(calls, config)
	if err != nil {
		return err
	}
	a.SetCallData(callData)
	return nil
}

func EncodeCalls(calls []Call, config *boostop.MEVConfig) ([]byte, error) {
	switch {
	case len(calls) == 0:
		return nil, fmt.Errorf("no calls to execute")
	case len(calls) == 1 && config == nil:
		return aa.PackExecute(calls[0].To, calls[0].Value, calls[0].Data)
	case len(calls) == 1:
		return aa.PackBoostExecute(*config, calls[0].To, calls[0].Value, calls[0].Data)
	}

	to, value, data := splitCalls(calls)
	if config == nil {
		return aa.PackExecuteBatch(to, value, data)
	}
	return aa.PackBoostExecuteBatch(*config, to, value, data)
}

func splitCalls(calls []Call) ([]common.Address, []*big.Int, [][]byte) {
	to := lo.Map(calls, func(c Call, _ int) common.Address { return c.To })
	value := lo.Map(calls, func(c Call, _ int) *big.Int { return c.Value })
	data := lo.Map(calls, func(c Call, _ int) []byte { return c.Data })
	return to, value, data
}

func checkBatch(to []common.Address, value []*big.Int, data [][]byte) error {
	if len(to) == 0 {
		return fmt.Errorf("no calls to execute")
	}
	if len(data) != len(to) || (len(value) != 0 && len(value) != len(to)) {
		return fmt.Errorf("batch length mismatch: %d targets, %d values, %d call data", len(to), len(value), len(data))
	}
	return nil
}

func (a *Account) Sender() common.Address {
	return a.sender
}

func (a *Account) InitCode() []byte {
	return common.CopyBytes(a.initCode)
}

func (a *Account) EntryPoint() common.Address {
	return a.entryPoint.Address()
}

func (a *Account) MEVBoostPaymaster() common.Address {
	return a.paymaster.Address()
}

func (a *Account) ChainID() *big.Int {
	return new(big.Int).Set(a.chainID)
}

// Searcher returns a searcher filling with the account's own signer.
func (a *Account) Searcher() *Searcher {
	return a.searcher
}

// Nonce reads the entry point nonce with key 0. It is 0 until the account is deployed.
func (a *Account) Nonce(ctx context.Context) (*big.Int, error) {
	return a.entryPoint.GetNonce(&bind.CallOpts{Context: ctx}, a.sender, big.NewInt(0))
}

// Owner returns the signer address before deployment and the on-chain owner after.
func (a *Account) Owner(ctx context.Context) (common.Address, error) {
	nonce, err := a.Nonce(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if nonce.Sign() == 0 {
		return a.signer.Address(), nil
	}
	return a.proxy.Owner(&bind.CallOpts{Context: ctx})
}

// CounterfactualAddress asks the factory for the account address. It matches
// Sender when the factory and entry point agree.
func (a *Account) CounterfactualAddress(ctx context.Context, salt *big.Int) (common.Address, error) {
	if salt == nil {
		salt = big.NewInt(0)
	}
	return a.factory.GetAddress(&bind.CallOpts{Context: ctx}, a.signer.Address(), a.paymaster.Address(), salt)
}

func (a *Account) UserOpHash(op *userop.UserOperation) common.Hash {
	return op.GetUserOpHash(a.entryPoint.Address(), a.chainID)
}

func (a *Account) BoostOpHash(op *userop.UserOperation) common.Hash {
	return op.GetBoostOpHash(a.entryPoint.Address(), a.chainID)
}

func (a *Account) IsBoostOp(op *userop.UserOperation) bool {
	return boostop.IsBoostOp(op)
}

func (a *Account) GetBoostOpInfo(op *userop.UserOperation) (*boostop.BoostOpInfo, error) {
	return boostop.GetBoostOpInfo(op)
}

// BlockTimeStamp returns the timestamp of the latest block.
func (a *Account) BlockTimeStamp(ctx context.Context) (uint64, error) {
	return blockTimestamp(ctx, a.client)
}

func blockTimestamp(ctx context.Context, client bind.ContractBackend) (uint64, error) {
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Time, nil
}

func orAddress(addr, fallback common.Address) common.Address {
	if addr == (common.Address{}) {
		return fallback
	}
	return addr
}
