package aa

import (
	"github.com/ethereum/go-ethereum/common"
)

var (
	// EntrypointAddress is the canonical EntryPoint v0.6 deployment.
	EntrypointAddress = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

	// The factory and settlement contract have no canonical deployment and
	// stay zero until configured.
	FactoryAddress           common.Address
	MEVBoostPaymasterAddress common.Address

	// DummySignature is a well formed 65 byte ECDSA signature that lets a bundler
	// run validation during gas estimation before the real signature exists.
	DummySignature = common.FromHex("0xfffffffffffffffffffffffffffffff0000000000000000000000000000000007aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1c")
)

func SetFactoryAddress(address common.Address) {
	FactoryAddress = address
}

func SetEntrypointAddress(address common.Address) {
	EntrypointAddress = address
}

func SetMEVBoostPaymasterAddress(address common.Address) {
	MEVBoostPaymasterAddress = address
}
