package testutil

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// CallHandler answers a contract call with the method's decoded arguments.
// The returned values are packed with the method's outputs.
type CallHandler func(args []interface{}) ([]interface{}, error)

type handler struct {
	method abi.Method
	fn     CallHandler
}

// RevertError mimics the error a node returns for a reverted eth_call.
type RevertError struct {
	Data []byte
}

func (e *RevertError) Error() string          { return "execution reverted" }
func (e *RevertError) ErrorCode() int         { return 3 }
func (e *RevertError) ErrorData() interface{} { return hexutil.Encode(e.Data) }

// FakeBackend is an in-memory chain answering contract calls by selector,
// serving logs and reporting a configurable head block.
type FakeBackend struct {
	mu sync.Mutex

	chainID  *big.Int
	head     *types.Header
	tipCap   *big.Int
	gasPrice *big.Int
	gas      uint64

	handlers map[common.Address]map[[4]byte]handler
	logs     []types.Log

	Calls   []ethereum.CallMsg
	Queries []ethereum.FilterQuery
}

func NewFakeBackend(chainID int64) *FakeBackend {
	return &FakeBackend{
		chainID: big.NewInt(chainID),
		head: &types.Header{
			Number:  big.NewInt(1000),
			Time:    1_700_000_000,
			BaseFee: big.NewInt(1_000_000_000),
		},
		tipCap:   big.NewInt(1_000_000_000),
		gasPrice: big.NewInt(3_000_000_000),
		gas:      250_000,
		handlers: make(map[common.Address]map[[4]byte]handler),
	}
}

// Handle registers fn for calls of method on the contract at addr.
func (b *FakeBackend) Handle(addr common.Address, parsed *abi.ABI, method string, fn CallHandler) {
	m, ok := parsed.Methods[method]
	if !ok {
		panic(fmt.Sprintf("unknown method %s", method))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[addr] == nil {
		b.handlers[addr] = make(map[[4]byte]handler)
	}
	var id [4]byte
	copy(id[:], m.ID)
	b.handlers[addr][id] = handler{method: m, fn: fn}
}

// Returns registers a handler with fixed outputs.
func (b *FakeBackend) Returns(addr common.Address, parsed *abi.ABI, method string, outputs ...interface{}) {
	b.Handle(addr, parsed, method, func([]interface{}) ([]interface{}, error) {
		return outputs, nil
	})
}

func (b *FakeBackend) SetHead(number uint64, timestamp uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head.Number = new(big.Int).SetUint64(number)
	b.head.Time = timestamp
}

func (b *FakeBackend) SetBaseFee(baseFee *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head.BaseFee = baseFee
}

func (b *FakeBackend) SetTipCap(tip *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tipCap = tip
}

func (b *FakeBackend) SetGasEstimate(gas uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gas = gas
}

func (b *FakeBackend) AddLog(log types.Log) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs = append(b.logs, log)
}

func (b *FakeBackend) QueryCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Queries)
}

func (b *FakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	b.Calls = append(b.Calls, call)
	if call.To == nil || len(call.Data) < 4 {
		b.mu.Unlock()
		return nil, errors.New("invalid call")
	}
	var id [4]byte
	copy(id[:], call.Data[:4])
	h, ok := b.handlers[*call.To][id]
	b.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no handler for %s selector %x", call.To.Hex(), id)
	}

	args, err := h.method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}

	out, err := h.fn(args)
	if err != nil {
		return nil, err
	}
	return h.method.Outputs.Pack(out...)
}

func (b *FakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[contract]; ok {
		return []byte{0x60, 0x80}, nil
	}
	return nil, nil
}

func (b *FakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return types.CopyHeader(b.head), nil
}

func (b *FakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head.Number.Uint64(), nil
}

func (b *FakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *FakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.CodeAt(ctx, account, nil)
}

func (b *FakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 0, nil
}

func (b *FakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.gasPrice), nil
}

func (b *FakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.tipCap), nil
}

func (b *FakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gas, nil
}

func (b *FakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return errors.New("fake backend does not accept transactions")
}

func (b *FakeBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Queries = append(b.Queries, q)

	var result []types.Log
	for _, l := range b.logs {
		if matchLog(l, q) {
			result = append(result, l)
		}
	}
	return result, nil
}

func (b *FakeBackend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func matchLog(l types.Log, q ethereum.FilterQuery) bool {
	if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
		return false
	}
	if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
		return false
	}
	if len(q.Addresses) > 0 {
		found := false
		for _, a := range q.Addresses {
			if a == l.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(q.Topics) > len(l.Topics) {
		return false
	}
	for i, alternatives := range q.Topics {
		if len(alternatives) == 0 {
			continue
		}
		found := false
		for _, t := range alternatives {
			if t == l.Topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
