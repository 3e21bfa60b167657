package aa

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// MEVBoostAccountFactoryMetaData contains the ABI of the account factory.
var MEVBoostAccountFactoryMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"mevBoostPaymaster","type":"address"},{"internalType":"uint256","name":"salt","type":"uint256"}],"name":"createAccount","outputs":[{"internalType":"contract MEVBoostAccount","name":"ret","type":"address"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"mevBoostPaymaster","type":"address"},{"internalType":"uint256","name":"salt","type":"uint256"}],"name":"getAddress","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`,
}

// MEVBoostAccountFactory is a read-only binding around the account factory.
type MEVBoostAccountFactory struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewMEVBoostAccountFactory(address common.Address, caller bind.ContractCaller) (*MEVBoostAccountFactory, error) {
	parsed, err := MEVBoostAccountFactoryMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	contract := bind.NewBoundContract(address, *parsed, caller, nil, nil)
	return &MEVBoostAccountFactory{address: address, contract: contract}, nil
}

func (f *MEVBoostAccountFactory) Address() common.Address {
	return f.address
}

// GetAddress is a free data retrieval call binding the contract method getAddress.
//
// Solidity: function getAddress(address owner, address mevBoostPaymaster, uint256 salt) view returns(address)
func (f *MEVBoostAccountFactory) GetAddress(opts *bind.CallOpts, owner common.Address, mevBoostPaymaster common.Address, salt *big.Int) (common.Address, error) {
	var out []interface{}
	err := f.contract.Call(opts, &out, "getAddress", owner, mevBoostPaymaster, salt)
	if err != nil {
		return common.Address{}, err
	}

	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}
