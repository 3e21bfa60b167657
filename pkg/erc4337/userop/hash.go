package userop

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

var (
	// EmptyBytesHash is keccak256 of zero bytes. It stands in for the
	// paymasterAndData term of the boost hash.
	EmptyBytesHash = crypto.Keccak256Hash([]byte{})

	address, _ = abi.NewType("address", "", nil)
	uint256, _ = abi.NewType("uint256", "", nil)
	bytes32, _ = abi.NewType("bytes32", "", nil)

	packedOpArgs = abi.Arguments{
		{Name: "sender", Type: address},
		{Name: "nonce", Type: uint256},
		{Name: "hashInitCode", Type: bytes32},
		{Name: "hashCallData", Type: bytes32},
		{Name: "callGasLimit", Type: uint256},
		{Name: "verificationGasLimit", Type: uint256},
		{Name: "preVerificationGas", Type: uint256},
		{Name: "maxFeePerGas", Type: uint256},
		{Name: "maxPriorityFeePerGas", Type: uint256},
		{Name: "hashPaymasterAndData", Type: bytes32},
	}

	opHashArgs = abi.Arguments{
		{Name: "userOpHash", Type: bytes32},
		{Name: "entryPoint", Type: address},
		{Name: "chainId", Type: uint256},
	}
)

// PackForSignature abi encodes every field except the signature. The dynamic
// fields are replaced by their keccak256 digest and paymasterAndData is replaced
// by paymasterDigest.
func (op *UserOperation) PackForSignature(paymasterDigest common.Hash) []byte {
	packed, err := packedOpArgs.Pack(
		op.Sender,
		orZero(op.Nonce),
		crypto.Keccak256Hash(op.InitCode),
		crypto.Keccak256Hash(op.CallData),
		orZero(op.CallGasLimit),
		orZero(op.VerificationGasLimit),
		orZero(op.PreVerificationGas),
		orZero(op.MaxFeePerGas),
		orZero(op.MaxPriorityFeePerGas),
		paymasterDigest,
	)
	if err != nil {
		// all arguments are fixed size and typed above
		panic(err)
	}
	return packed
}

// HashWithPaymasterDigest computes the entry point style digest of op with the
// paymasterAndData term fixed to paymasterDigest. Passing a sentinel lets a
// signer commit to an operation before its paymaster payload is known.
func (op *UserOperation) HashWithPaymasterDigest(paymasterDigest common.Hash, entryPoint common.Address, chainID *big.Int) common.Hash {
	inner := keccak(op.PackForSignature(paymasterDigest))

	outer, err := opHashArgs.Pack(inner, entryPoint, orZero(chainID))
	if err != nil {
		panic(err)
	}
	return keccak(outer)
}

// GetUserOpHash returns the hash the entry point emits in UserOperationEvent.
func (op *UserOperation) GetUserOpHash(entryPoint common.Address, chainID *big.Int) common.Hash {
	return op.HashWithPaymasterDigest(crypto.Keccak256Hash(op.PaymasterAndData), entryPoint, chainID)
}

// GetBoostOpHash returns the hash an owner signs for a boost operation. It
// ignores paymasterAndData so the signature survives a searcher filling it in.
func (op *UserOperation) GetBoostOpHash(entryPoint common.Address, chainID *big.Int) common.Hash {
	return op.HashWithPaymasterDigest(EmptyBytesHash, entryPoint, chainID)
}

func keccak(data []byte) common.Hash {
	var h common.Hash
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	d.Sum(h[:0])
	return h
}
