package testutil

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/allegro/bigcache/v3"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// well known anvil/hardhat development keys
	ownerKeyHex    = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	searcherKeyHex = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

var (
	EntryPointAddress        = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")
	FactoryAddress           = common.HexToAddress("0x9406Cc6185a346906296840746125a0E44976454")
	MEVBoostPaymasterAddress = common.HexToAddress("0xB985af5f96EF2722DC99aEBA573520903B86505e")
	SenderAddress            = common.HexToAddress("0x7c3a76086588230c7B3f4839A4c1F5BBafcd57C6")
)

func mustKey(hex string) *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA(hex)
	if err != nil {
		panic(err)
	}
	return key
}

// OwnerKey is the key that owns the test account.
func OwnerKey() *ecdsa.PrivateKey {
	return mustKey(ownerKeyHex)
}

// SearcherKey is the key of a searcher filling boost operations.
func SearcherKey() *ecdsa.PrivateKey {
	return mustKey(searcherKeyHex)
}

func GetLogger() sdklogging.Logger {
	logger, err := sdklogging.NewZapLogger("development")
	if err != nil {
		panic(err)
	}
	return logger
}

func GetDefaultCache() *bigcache.BigCache {
	config := bigcache.DefaultConfig(10 * time.Minute)
	config.Verbose = false
	config.HardMaxCacheSize = 16

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		panic(fmt.Errorf("error get default cache for test"))
	}
	return cache
}
