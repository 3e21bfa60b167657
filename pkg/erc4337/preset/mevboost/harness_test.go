package mevboost

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa"
	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa/paymaster"
	"github.com/AvaProtocol/mevboost-aa/core/chainio/signer"
	"github.com/AvaProtocol/mevboost-aa/core/testutil"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/bundler"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
)

const (
	testChainID  = 11155111
	testOverhead = 50_000
)

type fakeBundler struct {
	estimated []*userop.UserOperation
	sent      []*userop.UserOperation
}

func (f *fakeBundler) EstimateUserOperationGas(ctx context.Context, op userop.UserOperation, entryPoint common.Address) (*bundler.GasEstimation, error) {
	f.estimated = append(f.estimated, op.Clone())
	return &bundler.GasEstimation{
		PreVerificationGas:   big.NewInt(99999),
		VerificationGasLimit: big.NewInt(999999),
		CallGasLimit:         big.NewInt(999999),
	}, nil
}

func (f *fakeBundler) SendUserOperation(ctx context.Context, op userop.UserOperation, entryPoint common.Address) (common.Hash, error) {
	f.sent = append(f.sent, op.Clone())
	return op.GetUserOpHash(entryPoint, big.NewInt(testChainID)), nil
}

// harness is a chain with the entry point, factory, settlement contract and a
// deployed account answering the calls an account makes.
type harness struct {
	backend  *testutil.FakeBackend
	bundler  *fakeBundler
	owner    *signer.PrivateKeySigner
	searcher *signer.PrivateKeySigner

	nonce         *big.Int
	balance       *big.Int
	suggested     *big.Int
	overheadCalls int

	entryPointABI *abi.ABI
	paymasterABI  *abi.ABI
}

func mustParse(t *testing.T, meta *bind.MetaData) *abi.ABI {
	parsed, err := meta.GetAbi()
	require.NoError(t, err)
	return parsed
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		backend:   testutil.NewFakeBackend(testChainID),
		bundler:   &fakeBundler{},
		owner:     signer.NewPrivateKeySigner(testutil.OwnerKey()),
		searcher:  signer.NewPrivateKeySigner(testutil.SearcherKey()),
		nonce:     big.NewInt(0),
		balance:   big.NewInt(1_000_000_000),
		suggested: big.NewInt(123_456),
	}
	h.entryPointABI = mustParse(t, aa.EntryPointMetaData)
	h.paymasterABI = mustParse(t, paymaster.MEVBoostPaymasterMetaData)
	factoryABI := mustParse(t, aa.MEVBoostAccountFactoryMetaData)

	abiErr := h.entryPointABI.Errors["SenderAddressResult"]
	packed, err := abiErr.Inputs.Pack(testutil.SenderAddress)
	require.NoError(t, err)
	senderRevert := append(common.CopyBytes(abiErr.ID[:4]), packed...)

	h.backend.Handle(testutil.EntryPointAddress, h.entryPointABI, "getSenderAddress", func([]interface{}) ([]interface{}, error) {
		return nil, &testutil.RevertError{Data: senderRevert}
	})
	h.backend.Handle(testutil.EntryPointAddress, h.entryPointABI, "getNonce", func(args []interface{}) ([]interface{}, error) {
		return []interface{}{h.nonce}, nil
	})

	h.backend.Handle(testutil.MEVBoostPaymasterAddress, h.paymasterABI, "MAX_GAS_OF_POST", func([]interface{}) ([]interface{}, error) {
		h.overheadCalls++
		return []interface{}{big.NewInt(testOverhead)}, nil
	})
	h.backend.Handle(testutil.MEVBoostPaymasterAddress, h.paymasterABI, "balances", func([]interface{}) ([]interface{}, error) {
		return []interface{}{h.balance}, nil
	})
	h.backend.Handle(testutil.MEVBoostPaymasterAddress, h.paymasterABI, "getMEVPayInfo", func(args []interface{}) ([]interface{}, error) {
		in := abi.ConvertType(args[2], new(paymaster.UserOperation)).(*paymaster.UserOperation)
		op := &userop.UserOperation{
			Sender:               in.Sender,
			Nonce:                in.Nonce,
			InitCode:             in.InitCode,
			CallData:             in.CallData,
			CallGasLimit:         in.CallGasLimit,
			VerificationGasLimit: in.VerificationGasLimit,
			PreVerificationGas:   in.PreVerificationGas,
			MaxFeePerGas:         in.MaxFeePerGas,
			MaxPriorityFeePerGas: in.MaxPriorityFeePerGas,
			PaymasterAndData:     in.PaymasterAndData,
			Signature:            in.Signature,
		}
		return []interface{}{paymaster.IMEVBoostPaymasterMEVPayInfo{
			Provider:        args[0].(common.Address),
			BoostUserOpHash: op.GetBoostOpHash(testutil.EntryPointAddress, big.NewInt(testChainID)),
			Amount:          h.suggested,
			RequireSuccess:  args[1].(bool),
		}}, nil
	})

	h.backend.Returns(testutil.SenderAddress, aa.AccountABI(), "owner", common.HexToAddress("0x00000000000000000000000000000000000000aa"))
	h.backend.Returns(testutil.FactoryAddress, factoryABI, "getAddress", testutil.SenderAddress)
	return h
}

func (h *harness) options() *Options {
	return &Options{
		EntryPoint:        testutil.EntryPointAddress,
		Factory:           testutil.FactoryAddress,
		MEVBoostPaymaster: testutil.MEVBoostPaymasterAddress,
		Cache:             testutil.GetDefaultCache(),
		Logger:            testutil.GetLogger(),
	}
}

func (h *harness) account(t *testing.T) *Account {
	a, err := Init(context.Background(), h.owner, h.backend, h.bundler, h.options())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func (h *harness) userOperationLog(t *testing.T, userOpHash common.Hash, block uint64) types.Log {
	event := h.entryPointABI.Events["UserOperationEvent"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(1), true, big.NewInt(21000), big.NewInt(7000))
	require.NoError(t, err)

	return types.Log{
		Address: testutil.EntryPointAddress,
		Topics: []common.Hash{
			event.ID,
			userOpHash,
			common.BytesToHash(testutil.SenderAddress.Bytes()),
			common.BytesToHash(testutil.MEVBoostPaymasterAddress.Bytes()),
		},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.HexToHash("0x01"),
	}
}

func (h *harness) settleLog(t *testing.T, boostOpHash common.Hash, amount *big.Int, block uint64) types.Log {
	event := h.paymasterABI.Events["SettleUserOp"]
	data, err := event.Inputs.NonIndexed().Pack(amount)
	require.NoError(t, err)

	return types.Log{
		Address: testutil.MEVBoostPaymasterAddress,
		Topics: []common.Hash{
			event.ID,
			common.BytesToHash(h.searcher.Address().Bytes()),
			boostOpHash,
		},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.HexToHash("0x02"),
	}
}
