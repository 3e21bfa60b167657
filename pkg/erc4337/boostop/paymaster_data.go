package boostop

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa/paymaster"
)

type MEVPayInfo = paymaster.IMEVBoostPaymasterMEVPayInfo

const (
	typedDataDomainName    = "MEVBoostPaymaster"
	typedDataDomainVersion = "v0"
)

var payInfoArgs abi.Arguments

func init() {
	tuple, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "provider", Type: "address"},
		{Name: "boostUserOpHash", Type: "bytes32"},
		{Name: "amount", Type: "uint256"},
		{Name: "requireSuccess", Type: "bool"},
	})
	if err != nil {
		panic(err)
	}
	bytesT, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	payInfoArgs = abi.Arguments{{Name: "mevPayInfo", Type: tuple}, {Name: "signature", Type: bytesT}}
}

// PaymasterData is the decoded paymasterAndData of a filled boost operation.
type PaymasterData struct {
	Paymaster  common.Address
	MEVPayInfo MEVPayInfo
	Signature  []byte
}

// EncodePaymasterAndData returns paymaster ++ abi.encode(mevPayInfo, signature).
func EncodePaymasterAndData(paymasterAddr common.Address, info MEVPayInfo, signature []byte) ([]byte, error) {
	if info.Amount == nil {
		info.Amount = new(big.Int)
	}
	if signature == nil {
		signature = []byte{}
	}

	payload, err := payInfoArgs.Pack(info, signature)
	if err != nil {
		return nil, err
	}
	return append(common.CopyBytes(paymasterAddr.Bytes()), payload...), nil
}

// DecodePaymasterAndData is the inverse of EncodePaymasterAndData.
func DecodePaymasterAndData(paymasterAndData []byte) (*PaymasterData, error) {
	if len(paymasterAndData) <= common.AddressLength {
		return nil, fmt.Errorf("paymasterAndData too short: %d bytes", len(paymasterAndData))
	}

	values, err := payInfoArgs.Unpack(paymasterAndData[common.AddressLength:])
	if err != nil {
		return nil, err
	}

	signature, ok := values[1].([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected signature type %T", values[1])
	}

	return &PaymasterData{
		Paymaster:  common.BytesToAddress(paymasterAndData[:common.AddressLength]),
		MEVPayInfo: *abi.ConvertType(values[0], new(MEVPayInfo)).(*MEVPayInfo),
		Signature:  signature,
	}, nil
}

// MEVPayInfoTypedData is the EIP-712 message a searcher signs, bound to the
// settlement contract and chain.
func MEVPayInfoTypedData(info MEVPayInfo, paymasterAddr common.Address, chainID *big.Int) apitypes.TypedData {
	amount := info.Amount
	if amount == nil {
		amount = new(big.Int)
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"MEVPayInfo": {
				{Name: "provider", Type: "address"},
				{Name: "boostUserOpHash", Type: "bytes32"},
				{Name: "amount", Type: "uint256"},
				{Name: "requireSuccess", Type: "bool"},
			},
		},
		PrimaryType: "MEVPayInfo",
		Domain: apitypes.TypedDataDomain{
			Name:              typedDataDomainName,
			Version:           typedDataDomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(chainID)),
			VerifyingContract: paymasterAddr.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"provider":        info.Provider.Hex(),
			"boostUserOpHash": hexutil.Encode(info.BoostUserOpHash[:]),
			"amount":          (*math.HexOrDecimal256)(new(big.Int).Set(amount)),
			"requireSuccess":  info.RequireSuccess,
		},
	}
}

// MEVPayInfoDigest is the EIP-712 digest of MEVPayInfoTypedData.
func MEVPayInfoDigest(info MEVPayInfo, paymasterAddr common.Address, chainID *big.Int) (common.Hash, error) {
	hash, _, err := apitypes.TypedDataAndHash(MEVPayInfoTypedData(info, paymasterAddr, chainID))
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(hash), nil
}
