package config

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/preset/mevboost"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/preset/middleware"
)

// Config is the resolved CLI configuration.
type Config struct {
	Logger sdklogging.Logger

	EthRpcUrl  string
	BundlerUrl string
	OwnerKey   *ecdsa.PrivateKey

	EntryPointAddress        common.Address
	FactoryAddress           common.Address
	MEVBoostPaymasterAddress common.Address
	Salt                     *big.Int

	JournalPath               string
	EigenMetricsIpPortAddress string

	Estimation []middleware.EstimateOption
}

// These are read from configPath
type ConfigRaw struct {
	EthRpcUrl                 string              `yaml:"eth_rpc_url" validate:"required,url"`
	BundlerUrl                string              `yaml:"bundler_url" validate:"omitempty,url"`
	OwnerPrivateKey           string              `yaml:"owner_private_key" validate:"required,private_key"`
	EntrypointAddress         string              `yaml:"entrypoint_address" validate:"omitempty,eth_address"`
	FactoryAddress            string              `yaml:"factory_address" validate:"required,eth_address"`
	MEVBoostPaymasterAddress  string              `yaml:"mevboost_paymaster_address" validate:"required,eth_address"`
	Salt                      string              `yaml:"salt" validate:"omitempty,number"`
	Environment               sdklogging.LogLevel `yaml:"environment" validate:"omitempty,oneof=development production"`
	JournalPath               string              `yaml:"journal_path"`
	EigenMetricsIpPortAddress string              `yaml:"eigen_metrics_ip_port_address" validate:"omitempty,hostname_port"`
	Estimation                EstimationRaw       `yaml:"estimation"`
}

type EstimationRaw struct {
	Strategy          string `yaml:"strategy" validate:"omitempty,oneof=zero_deadline synthetic_pay_info"`
	MarginPolicy      string `yaml:"margin_policy" validate:"omitempty,oneof=synthetic_only always never"`
	MarginNumerator   int64  `yaml:"margin_numerator" validate:"omitempty,gt=0"`
	MarginDenominator int64  `yaml:"margin_denominator" validate:"omitempty,gt=0"`
}

const DefaultJournalPath = "/tmp/mevboost-journal"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("eth_address", func(fl validator.FieldLevel) bool {
		return common.IsHexAddress(fl.Field().String())
	})
	v.RegisterValidation("private_key", func(fl validator.FieldLevel) bool {
		_, err := crypto.HexToECDSA(strings.TrimPrefix(fl.Field().String(), "0x"))
		return err == nil
	})
	return v
}

// NewConfig reads and validates the yaml file at configFilePath.
func NewConfig(configFilePath string) (*Config, error) {
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw ConfigRaw
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return FromRaw(&raw)
}

func FromRaw(raw *ConfigRaw) (*Config, error) {
	if err := validate.Struct(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if raw.Environment == "" {
		raw.Environment = sdklogging.Development
	}
	logger, err := sdklogging.NewZapLogger(raw.Environment)
	if err != nil {
		return nil, err
	}

	ownerKey, err := crypto.HexToECDSA(strings.TrimPrefix(raw.OwnerPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("cannot parse owner private key: %w", err)
	}

	salt := big.NewInt(0)
	if raw.Salt != "" {
		if _, ok := salt.SetString(raw.Salt, 10); !ok {
			return nil, fmt.Errorf("invalid salt %q", raw.Salt)
		}
	}

	estimation, err := raw.Estimation.options()
	if err != nil {
		return nil, err
	}

	c := &Config{
		Logger:                    logger,
		EthRpcUrl:                 raw.EthRpcUrl,
		BundlerUrl:                raw.BundlerUrl,
		OwnerKey:                  ownerKey,
		EntryPointAddress:         aa.EntrypointAddress,
		FactoryAddress:            common.HexToAddress(raw.FactoryAddress),
		MEVBoostPaymasterAddress:  common.HexToAddress(raw.MEVBoostPaymasterAddress),
		Salt:                      salt,
		JournalPath:               raw.JournalPath,
		EigenMetricsIpPortAddress: raw.EigenMetricsIpPortAddress,
		Estimation:                estimation,
	}
	if raw.EntrypointAddress != "" {
		c.EntryPointAddress = common.HexToAddress(raw.EntrypointAddress)
	}
	if c.JournalPath == "" {
		c.JournalPath = DefaultJournalPath
	}

	return c, nil
}

func (e EstimationRaw) options() ([]middleware.EstimateOption, error) {
	var opts []middleware.EstimateOption

	switch e.Strategy {
	case "", "zero_deadline":
		opts = append(opts, middleware.WithStrategy(middleware.StrategyZeroDeadline))
	case "synthetic_pay_info":
		opts = append(opts, middleware.WithStrategy(middleware.StrategySyntheticPayInfo))
	default:
		return nil, fmt.Errorf("unknown estimation strategy %q", e.Strategy)
	}

	policy := middleware.MarginSyntheticOnly
	switch e.MarginPolicy {
	case "", "synthetic_only":
	case "always":
		policy = middleware.MarginAlways
	case "never":
		policy = middleware.MarginNever
	default:
		return nil, fmt.Errorf("unknown margin policy %q", e.MarginPolicy)
	}

	var num, den *big.Int
	if (e.MarginNumerator > 0) != (e.MarginDenominator > 0) {
		return nil, fmt.Errorf("margin_numerator and margin_denominator must be set together")
	}
	if e.MarginNumerator > 0 {
		num = big.NewInt(e.MarginNumerator)
		den = big.NewInt(e.MarginDenominator)
	}
	opts = append(opts, middleware.WithMargin(policy, num, den))

	return opts, nil
}

// AccountOptions maps the config onto the options of mevboost.Init.
func (c *Config) AccountOptions() *mevboost.Options {
	return &mevboost.Options{
		EntryPoint:         c.EntryPointAddress,
		Factory:            c.FactoryAddress,
		MEVBoostPaymaster:  c.MEVBoostPaymasterAddress,
		OverrideBundlerRpc: c.BundlerUrl,
		Salt:               c.Salt,
		Estimate:           c.Estimation,
		Logger:             c.Logger,
	}
}
