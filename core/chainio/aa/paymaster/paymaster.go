// Package paymaster binds the MEVBoostPaymaster settlement contract.
package paymaster

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// UserOperation is a Go binding around the v0.6 UserOperation struct.
type UserOperation struct {
	Sender               common.Address
	Nonce                *big.Int
	InitCode             []byte
	CallData             []byte
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	PaymasterAndData     []byte
	Signature            []byte
}

// IMEVBoostPaymasterMEVPayInfo is a Go binding around the MEVPayInfo struct.
type IMEVBoostPaymasterMEVPayInfo struct {
	Provider        common.Address
	BoostUserOpHash [32]byte
	Amount          *big.Int
	RequireSuccess  bool
}

const userOperationComponents = `[{"internalType":"address","name":"sender","type":"address"},{"internalType":"uint256","name":"nonce","type":"uint256"},{"internalType":"bytes","name":"initCode","type":"bytes"},{"internalType":"bytes","name":"callData","type":"bytes"},{"internalType":"uint256","name":"callGasLimit","type":"uint256"},{"internalType":"uint256","name":"verificationGasLimit","type":"uint256"},{"internalType":"uint256","name":"preVerificationGas","type":"uint256"},{"internalType":"uint256","name":"maxFeePerGas","type":"uint256"},{"internalType":"uint256","name":"maxPriorityFeePerGas","type":"uint256"},{"internalType":"bytes","name":"paymasterAndData","type":"bytes"},{"internalType":"bytes","name":"signature","type":"bytes"}]`

const mevPayInfoComponents = `[{"internalType":"address","name":"provider","type":"address"},{"internalType":"bytes32","name":"boostUserOpHash","type":"bytes32"},{"internalType":"uint256","name":"amount","type":"uint256"},{"internalType":"bool","name":"requireSuccess","type":"bool"}]`

// MEVBoostPaymasterMetaData contains the ABI of the settlement contract.
var MEVBoostPaymasterMetaData = &bind.MetaData{
	ABI: `[
	{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"provider","type":"address"},{"indexed":true,"internalType":"bytes32","name":"boostUserOpHash","type":"bytes32"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"}],"name":"SettleUserOp","type":"event"},
	{"inputs":[],"name":"MAX_GAS_OF_POST","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"","type":"address"}],"name":"balances","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"provider","type":"address"},{"internalType":"bool","name":"requireSuccess","type":"bool"},{"components":` + userOperationComponents + `,"internalType":"struct UserOperation","name":"userOp","type":"tuple"}],"name":"getMEVPayInfo","outputs":[{"components":` + mevPayInfoComponents + `,"internalType":"struct IMEVBoostPaymaster.MEVPayInfo","name":"mevPayInfo","type":"tuple"}],"stateMutability":"view","type":"function"}
]`,
}

// MEVBoostPaymaster is a read-only binding around the settlement contract.
type MEVBoostPaymaster struct {
	address  common.Address
	abi      *abi.ABI
	contract *bind.BoundContract
}

// MEVBoostPaymasterSettleUserOp represents a SettleUserOp event raised by the settlement contract.
type MEVBoostPaymasterSettleUserOp struct {
	Provider        common.Address
	BoostUserOpHash [32]byte
	Amount          *big.Int
	Raw             types.Log
}

func NewMEVBoostPaymaster(address common.Address, backend bind.ContractBackend) (*MEVBoostPaymaster, error) {
	parsed, err := MEVBoostPaymasterMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	contract := bind.NewBoundContract(address, *parsed, backend, backend, backend)
	return &MEVBoostPaymaster{address: address, abi: parsed, contract: contract}, nil
}

func (p *MEVBoostPaymaster) Address() common.Address {
	return p.address
}

// MAXGASOFPOST is a free data retrieval call binding the contract method MAX_GAS_OF_POST.
//
// Solidity: function MAX_GAS_OF_POST() view returns(uint256)
func (p *MEVBoostPaymaster) MAXGASOFPOST(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := p.contract.Call(opts, &out, "MAX_GAS_OF_POST"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Balances is a free data retrieval call binding the contract method balances.
//
// Solidity: function balances(address) view returns(uint256)
func (p *MEVBoostPaymaster) Balances(opts *bind.CallOpts, provider common.Address) (*big.Int, error) {
	var out []interface{}
	if err := p.contract.Call(opts, &out, "balances", provider); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// GetMEVPayInfo is a free data retrieval call binding the contract method getMEVPayInfo.
//
// Solidity: function getMEVPayInfo(address provider, bool requireSuccess, UserOperation userOp) view returns((address,bytes32,uint256,bool) mevPayInfo)
func (p *MEVBoostPaymaster) GetMEVPayInfo(opts *bind.CallOpts, provider common.Address, requireSuccess bool, userOp UserOperation) (IMEVBoostPaymasterMEVPayInfo, error) {
	var out []interface{}
	if err := p.contract.Call(opts, &out, "getMEVPayInfo", provider, requireSuccess, userOp); err != nil {
		return IMEVBoostPaymasterMEVPayInfo{}, err
	}
	return *abi.ConvertType(out[0], new(IMEVBoostPaymasterMEVPayInfo)).(*IMEVBoostPaymasterMEVPayInfo), nil
}

// SettleUserOpEventID is topic0 of SettleUserOp.
func (p *MEVBoostPaymaster) SettleUserOpEventID() common.Hash {
	return p.abi.Events["SettleUserOp"].ID
}

// ParseSettleUserOp is a log parse operation binding the contract event SettleUserOp.
func (p *MEVBoostPaymaster) ParseSettleUserOp(log types.Log) (*MEVBoostPaymasterSettleUserOp, error) {
	event := new(MEVBoostPaymasterSettleUserOp)
	if err := p.contract.UnpackLog(event, "SettleUserOp", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}
