package aa

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa/mevboostaccount"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/samber/lo"
)

// ErrSimulation is returned when the getSenderAddress call does not revert
// with a SenderAddressResult payload.
var ErrSimulation = errors.New("sender address simulation failed")

var (
	defaultSalt = big.NewInt(0)

	factoryABI    = mustABI(MEVBoostAccountFactoryMetaData)
	entryPointABI = mustABI(EntryPointMetaData)
	accountABI    = mustABI(mevboostaccount.MEVBoostAccountMetaData)
)

func mustABI(meta *bind.MetaData) *abi.ABI {
	parsed, err := meta.GetAbi()
	if err != nil {
		panic(fmt.Errorf("invalid ABI: %w", err))
	}
	return parsed
}

// AccountABI returns the parsed MEVBoostAccount ABI.
func AccountABI() *abi.ABI {
	return accountABI
}

// GetInitCode returns the factory address followed by the createAccount call
// that deploys the owner's account bound to the given settlement contract.
func GetInitCode(factory, owner, mevBoostPaymaster common.Address, salt *big.Int) ([]byte, error) {
	if salt == nil {
		salt = defaultSalt
	}

	calldata, err := factoryABI.Pack("createAccount", owner, mevBoostPaymaster, salt)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, common.AddressLength+len(calldata))
	data = append(data, factory.Bytes()...)
	return append(data, calldata...), nil
}

// SenderAddressResult is the payload of the EntryPoint's getSenderAddress revert.
type SenderAddressResult struct {
	Sender common.Address
}

// SimulateSenderAddress runs getSenderAddress(initCode) as a static call and
// decodes the counterfactual account address from the revert it always ends with.
//
// A call that succeeds, or reverts with anything other than SenderAddressResult,
// yields an error matching ErrSimulation. In the latter case the call error is
// wrapped as well so its revert data stays reachable with errors.As.
func SimulateSenderAddress(ctx context.Context, caller ethereum.ContractCaller, entryPoint common.Address, initCode []byte) (*SenderAddressResult, error) {
	data, err := entryPointABI.Pack("getSenderAddress", initCode)
	if err != nil {
		return nil, err
	}

	_, callErr := caller.CallContract(ctx, ethereum.CallMsg{To: &entryPoint, Data: data}, nil)
	if callErr == nil {
		return nil, fmt.Errorf("%w: getSenderAddress: unexpected result", ErrSimulation)
	}

	revert, ok := RevertData(callErr)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrSimulation, callErr)
	}

	sender, err := DecodeSenderAddressResult(revert)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSimulation, callErr)
	}

	return &SenderAddressResult{Sender: sender}, nil
}

// DecodeSenderAddressResult decodes SenderAddressResult(address) revert data.
func DecodeSenderAddressResult(revert []byte) (common.Address, error) {
	abiErr := entryPointABI.Errors["SenderAddressResult"]
	out, err := abiErr.Unpack(revert)
	if err != nil {
		return common.Address{}, err
	}

	values, ok := out.([]interface{})
	if !ok || len(values) != 1 {
		return common.Address{}, fmt.Errorf("malformed SenderAddressResult")
	}
	sender, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("malformed SenderAddressResult")
	}
	return sender, nil
}

// RevertData extracts the revert payload carried by a JSON-RPC execution error.
func RevertData(err error) ([]byte, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil, false
	}

	switch data := dataErr.ErrorData().(type) {
	case string:
		revert, err := hexutil.Decode(data)
		if err != nil {
			return nil, false
		}
		return revert, true
	case []byte:
		return data, true
	}
	return nil, false
}

// EstimateCreationGas estimates the gas of the deployment call encoded in initCode.
func EstimateCreationGas(ctx context.Context, estimator ethereum.GasEstimator, initCode []byte) (uint64, error) {
	if len(initCode) < common.AddressLength {
		return 0, fmt.Errorf("init code too short: %d bytes", len(initCode))
	}

	factory := common.BytesToAddress(initCode[:common.AddressLength])
	return estimator.EstimateGas(ctx, ethereum.CallMsg{
		To:   &factory,
		Data: initCode[common.AddressLength:],
	})
}

// PackExecute generates the calldata of a single call.
func PackExecute(dest common.Address, value *big.Int, calldata []byte) ([]byte, error) {
	return accountABI.Pack("execute", dest, orZero(value), orEmpty(calldata))
}

// PackExecuteBatch generates the calldata of a batch of calls.
func PackExecuteBatch(dest []common.Address, value []*big.Int, calldata [][]byte) ([]byte, error) {
	return accountABI.Pack("executeBatch", dest, zeroValues(value), emptyCalls(calldata))
}

// PackBoostExecute generates the calldata of a single call that a searcher may sponsor.
func PackBoostExecute(config mevboostaccount.IMEVBoostAccountMEVConfig, dest common.Address, value *big.Int, calldata []byte) ([]byte, error) {
	return accountABI.Pack("boostExecute", normalizeConfig(config), dest, orZero(value), orEmpty(calldata))
}

// PackBoostExecuteBatch generates the calldata of a batch of calls that a searcher may sponsor.
func PackBoostExecuteBatch(config mevboostaccount.IMEVBoostAccountMEVConfig, dest []common.Address, value []*big.Int, calldata [][]byte) ([]byte, error) {
	return accountABI.Pack("boostExecuteBatch", normalizeConfig(config), dest, zeroValues(value), emptyCalls(calldata))
}

func normalizeConfig(config mevboostaccount.IMEVBoostAccountMEVConfig) mevboostaccount.IMEVBoostAccountMEVConfig {
	return mevboostaccount.IMEVBoostAccountMEVConfig{
		MinAmount:          orZero(config.MinAmount),
		SelfSponsoredAfter: orZero(config.SelfSponsoredAfter),
	}
}

func zeroValues(values []*big.Int) []*big.Int {
	return lo.Map(values, func(v *big.Int, _ int) *big.Int {
		return orZero(v)
	})
}

func emptyCalls(calls [][]byte) [][]byte {
	return lo.Map(calls, func(c []byte, _ int) []byte {
		return orEmpty(c)
	})
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func orEmpty(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
