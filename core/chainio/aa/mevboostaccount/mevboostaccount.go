// Package mevboostaccount binds the MEVBoostAccount smart account.
package mevboostaccount

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// IMEVBoostAccountMEVConfig is a Go binding around the MEVConfig struct.
type IMEVBoostAccountMEVConfig struct {
	MinAmount          *big.Int
	SelfSponsoredAfter *big.Int
}

// MEVBoostAccountMetaData contains all meta data concerning the MEVBoostAccount contract.
var MEVBoostAccountMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[{"components":[{"internalType":"uint256","name":"minAmount","type":"uint256"},{"internalType":"uint48","name":"selfSponsoredAfter","type":"uint48"}],"internalType":"struct IMEVBoostAccount.MEVConfig","name":"mevConfig","type":"tuple"},{"internalType":"address","name":"dest","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"func","type":"bytes"}],"name":"boostExecute","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"components":[{"internalType":"uint256","name":"minAmount","type":"uint256"},{"internalType":"uint48","name":"selfSponsoredAfter","type":"uint48"}],"internalType":"struct IMEVBoostAccount.MEVConfig","name":"mevConfig","type":"tuple"},{"internalType":"address[]","name":"dest","type":"address[]"},{"internalType":"uint256[]","name":"value","type":"uint256[]"},{"internalType":"bytes[]","name":"func","type":"bytes[]"}],"name":"boostExecuteBatch","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"dest","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"func","type":"bytes"}],"name":"execute","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address[]","name":"dest","type":"address[]"},{"internalType":"uint256[]","name":"value","type":"uint256[]"},{"internalType":"bytes[]","name":"func","type":"bytes[]"}],"name":"executeBatch","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"getNonce","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"mevBoostPaymaster","outputs":[{"internalType":"contract MEVBoostPaymaster","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`,
}

// MEVBoostAccountCaller is a read-only binding to the contract.
type MEVBoostAccountCaller struct {
	contract *bind.BoundContract
}

func NewMEVBoostAccountCaller(address common.Address, caller bind.ContractCaller) (*MEVBoostAccountCaller, error) {
	parsed, err := MEVBoostAccountMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return &MEVBoostAccountCaller{contract: bind.NewBoundContract(address, *parsed, caller, nil, nil)}, nil
}

// GetNonce is a free data retrieval call binding the contract method 0xd087d288.
//
// Solidity: function getNonce() view returns(uint256)
func (c *MEVBoostAccountCaller) GetNonce(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, "getNonce"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Owner is a free data retrieval call binding the contract method 0x8da5cb5b.
//
// Solidity: function owner() view returns(address)
func (c *MEVBoostAccountCaller) Owner(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, "owner"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// MevBoostPaymaster is a free data retrieval call binding the contract method mevBoostPaymaster.
//
// Solidity: function mevBoostPaymaster() view returns(address)
func (c *MEVBoostAccountCaller) MevBoostPaymaster(opts *bind.CallOpts) (common.Address, error) {
	var out []interface{}
	if err := c.contract.Call(opts, &out, "mevBoostPaymaster"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}
