package bundler

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/mapstructure"
)

type GasEstimation struct {
	PreVerificationGas   *big.Int
	VerificationGasLimit *big.Int
	CallGasLimit         *big.Int
}

// bundlers disagree on the name of the verification field and on quantity
// encoding, so fields are decoded loosely and normalized afterwards
type gasEstimationResult struct {
	PreVerificationGas   interface{} `mapstructure:"preVerificationGas"`
	VerificationGasLimit interface{} `mapstructure:"verificationGasLimit"`
	VerificationGas      interface{} `mapstructure:"verificationGas"`
	CallGasLimit         interface{} `mapstructure:"callGasLimit"`
}

func decodeGasEstimation(raw map[string]interface{}) (*GasEstimation, error) {
	var result gasEstimationResult
	if err := mapstructure.Decode(raw, &result); err != nil {
		return nil, err
	}

	verification := result.VerificationGasLimit
	if verification == nil {
		verification = result.VerificationGas
	}

	est := &GasEstimation{}
	var err error
	if est.PreVerificationGas, err = parseQuantity("preVerificationGas", result.PreVerificationGas); err != nil {
		return nil, err
	}
	if est.VerificationGasLimit, err = parseQuantity("verificationGasLimit", verification); err != nil {
		return nil, err
	}
	if est.CallGasLimit, err = parseQuantity("callGasLimit", result.CallGasLimit); err != nil {
		return nil, err
	}
	return est, nil
}

// parseQuantity accepts 0x-prefixed hex, decimal strings and JSON numbers.
func parseQuantity(field string, v interface{}) (*big.Int, error) {
	switch value := v.(type) {
	case nil:
		return nil, fmt.Errorf("missing %s", field)
	case string:
		var (
			n  *big.Int
			ok bool
		)
		if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
			n, ok = new(big.Int).SetString(value[2:], 16)
		} else {
			n, ok = new(big.Int).SetString(value, 10)
		}
		if !ok {
			return nil, fmt.Errorf("invalid %s: %q", field, value)
		}
		return n, nil
	case float64:
		n, _ := new(big.Float).SetFloat64(value).Int(nil)
		return n, nil
	case json.Number:
		return parseQuantity(field, value.String())
	}
	return nil, fmt.Errorf("invalid %s type %T", field, v)
}

// UserOperationReceipt is the bundler's view of a mined operation.
type UserOperationReceipt struct {
	UserOpHash    common.Hash
	Sender        common.Address
	Paymaster     common.Address
	Success       bool
	Reason        string
	ActualGasCost *big.Int
	ActualGasUsed *big.Int
	TxHash        common.Hash
}

type receiptResult struct {
	UserOpHash    string                 `mapstructure:"userOpHash"`
	Sender        string                 `mapstructure:"sender"`
	Paymaster     string                 `mapstructure:"paymaster"`
	Success       bool                   `mapstructure:"success"`
	Reason        string                 `mapstructure:"reason"`
	ActualGasCost interface{}            `mapstructure:"actualGasCost"`
	ActualGasUsed interface{}            `mapstructure:"actualGasUsed"`
	Receipt       map[string]interface{} `mapstructure:"receipt"`
}

func decodeReceipt(raw map[string]interface{}) (*UserOperationReceipt, error) {
	var result receiptResult
	if err := mapstructure.Decode(raw, &result); err != nil {
		return nil, err
	}

	receipt := &UserOperationReceipt{
		UserOpHash: common.HexToHash(result.UserOpHash),
		Sender:     common.HexToAddress(result.Sender),
		Paymaster:  common.HexToAddress(result.Paymaster),
		Success:    result.Success,
		Reason:     result.Reason,
	}

	var err error
	if receipt.ActualGasCost, err = parseQuantity("actualGasCost", result.ActualGasCost); err != nil {
		return nil, err
	}
	if receipt.ActualGasUsed, err = parseQuantity("actualGasUsed", result.ActualGasUsed); err != nil {
		return nil, err
	}
	if txHash, ok := result.Receipt["transactionHash"].(string); ok {
		receipt.TxHash = common.HexToHash(txHash)
	}
	return receipt, nil
}
