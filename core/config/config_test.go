package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/preset/middleware"
)

const validYaml = `
eth_rpc_url: https://sepolia.drpc.org
bundler_url: https://bundler.example.org/rpc
owner_private_key: "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
factory_address: "0x9406Cc6185a346906296840746125a0E44976454"
mevboost_paymaster_address: "0xB985af5f96EF2722DC99aEBA573520903B86505e"
salt: "7"
environment: production
estimation:
  strategy: synthetic_pay_info
  margin_policy: always
  margin_numerator: 12
  margin_denominator: 10
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func applyOptions(opts []middleware.EstimateOption) *middleware.EstimateOptions {
	o := &middleware.EstimateOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func TestNewConfig(t *testing.T) {
	c, err := NewConfig(writeConfig(t, validYaml))
	require.NoError(t, err)

	assert.Equal(t, "https://sepolia.drpc.org", c.EthRpcUrl)
	assert.Equal(t, "https://bundler.example.org/rpc", c.BundlerUrl)
	assert.Equal(t, aa.EntrypointAddress, c.EntryPointAddress)
	assert.Equal(t, common.HexToAddress("0x9406Cc6185a346906296840746125a0E44976454"), c.FactoryAddress)
	assert.Equal(t, int64(7), c.Salt.Int64())
	assert.Equal(t, DefaultJournalPath, c.JournalPath)
	assert.NotNil(t, c.Logger)
	assert.NotNil(t, c.OwnerKey)

	o := applyOptions(c.Estimation)
	assert.Equal(t, middleware.StrategySyntheticPayInfo, o.Strategy)
	assert.Equal(t, middleware.MarginAlways, o.Margin)
	assert.Equal(t, int64(12), o.MarginNumerator.Int64())
	assert.Equal(t, int64(10), o.MarginDenominator.Int64())

	opts := c.AccountOptions()
	assert.Equal(t, c.BundlerUrl, opts.OverrideBundlerRpc)
	assert.Equal(t, c.MEVBoostPaymasterAddress, opts.MEVBoostPaymaster)
	assert.Len(t, opts.Estimate, 2)
}

func TestNewConfigDefaults(t *testing.T) {
	c, err := FromRaw(&ConfigRaw{
		EthRpcUrl:                "http://localhost:8545",
		OwnerPrivateKey:          "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		EntrypointAddress:        "0x0000000071727De22E5E9d8BAf0edAc6f37da032",
		FactoryAddress:           "0x9406Cc6185a346906296840746125a0E44976454",
		MEVBoostPaymasterAddress: "0xB985af5f96EF2722DC99aEBA573520903B86505e",
		JournalPath:              "/var/lib/mevboost",
	})
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032"), c.EntryPointAddress)
	assert.Equal(t, "/var/lib/mevboost", c.JournalPath)
	assert.Equal(t, 0, c.Salt.Cmp(big.NewInt(0)))

	o := applyOptions(c.Estimation)
	assert.Equal(t, middleware.StrategyZeroDeadline, o.Strategy)
	assert.Equal(t, middleware.MarginSyntheticOnly, o.Margin)
	assert.Nil(t, o.MarginNumerator)
}

func TestConfigValidation(t *testing.T) {
	valid := func() *ConfigRaw {
		return &ConfigRaw{
			EthRpcUrl:                "http://localhost:8545",
			OwnerPrivateKey:          "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
			FactoryAddress:           "0x9406Cc6185a346906296840746125a0E44976454",
			MEVBoostPaymasterAddress: "0xB985af5f96EF2722DC99aEBA573520903B86505e",
		}
	}

	tests := []struct {
		name   string
		mutate func(r *ConfigRaw)
	}{
		{"missing rpc", func(r *ConfigRaw) { r.EthRpcUrl = "" }},
		{"bad key", func(r *ConfigRaw) { r.OwnerPrivateKey = "0x1234" }},
		{"missing factory", func(r *ConfigRaw) { r.FactoryAddress = "" }},
		{"bad paymaster", func(r *ConfigRaw) { r.MEVBoostPaymasterAddress = "0xnothex" }},
		{"bad salt", func(r *ConfigRaw) { r.Salt = "abc" }},
		{"bad environment", func(r *ConfigRaw) { r.Environment = "staging" }},
		{"bad strategy", func(r *ConfigRaw) { r.Estimation.Strategy = "guess" }},
		{"bad policy", func(r *ConfigRaw) { r.Estimation.MarginPolicy = "sometimes" }},
		{"numerator only", func(r *ConfigRaw) { r.Estimation.MarginNumerator = 3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := valid()
			tt.mutate(raw)
			_, err := FromRaw(raw)
			require.Error(t, err)
		})
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestExplorerTxURL(t *testing.T) {
	tx := common.HexToHash("0x01")
	assert.Equal(t, "https://sepolia.etherscan.io/tx/"+tx.Hex(), ExplorerTxURL(big.NewInt(11155111), tx))
	assert.Empty(t, ExplorerTxURL(big.NewInt(31337), tx))
	assert.Empty(t, ExplorerTxURL(nil, tx))
}
