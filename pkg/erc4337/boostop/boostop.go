// Package boostop recognises boost operations and encodes the payloads a
// searcher attaches to them.
package boostop

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa"
	"github.com/AvaProtocol/mevboost-aa/core/chainio/aa/mevboostaccount"
	"github.com/AvaProtocol/mevboost-aa/pkg/byte4"
	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
)

const (
	BoostExecuteMethod      = "boostExecute"
	BoostExecuteBatchMethod = "boostExecuteBatch"
)

var ErrNotBoostOperation = errors.New("not a boost operation")

type MEVConfig = mevboostaccount.IMEVBoostAccountMEVConfig

// BoostOpInfo is the decoded call data of a boost operation.
type BoostOpInfo struct {
	Selector     [4]byte
	FunctionName string
	MEVConfig    MEVConfig
	// Args holds the call arguments following the MEV config, in ABI order.
	Args []interface{}
}

// IsBoostCallData reports whether callData targets boostExecute or boostExecuteBatch.
func IsBoostCallData(callData []byte) bool {
	return byte4.MatchesAny(aa.AccountABI(), callData, BoostExecuteMethod, BoostExecuteBatchMethod)
}

func IsBoostOp(op *userop.UserOperation) bool {
	return IsBoostCallData(op.CallData)
}

func GetBoostOpInfo(op *userop.UserOperation) (*BoostOpInfo, error) {
	return DecodeBoostCallData(op.CallData)
}

// DecodeBoostCallData decodes a boostExecute or boostExecuteBatch call.
func DecodeBoostCallData(callData []byte) (*BoostOpInfo, error) {
	if !IsBoostCallData(callData) {
		if len(callData) < 4 {
			return nil, fmt.Errorf("%w: call data too short", ErrNotBoostOperation)
		}
		return nil, fmt.Errorf("%w: selector 0x%x", ErrNotBoostOperation, callData[:4])
	}

	method, err := byte4.GetMethodFromCalldata(aa.AccountABI(), callData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBoostOperation, err)
	}

	args, err := method.Inputs.Unpack(callData[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode %s: %v", ErrNotBoostOperation, method.Name, err)
	}

	info := &BoostOpInfo{
		FunctionName: method.Name,
		MEVConfig:    *abi.ConvertType(args[0], new(MEVConfig)).(*MEVConfig),
		Args:         args[1:],
	}
	copy(info.Selector[:], callData[:4])
	return info, nil
}

// Encode packs the info back into call data.
func (i *BoostOpInfo) Encode() ([]byte, error) {
	params := append([]interface{}{i.MEVConfig}, i.Args...)
	return aa.AccountABI().Pack(i.FunctionName, params...)
}

// WithSelfSponsoredAfter returns boost call data identical to callData except
// for the self sponsorship deadline.
func WithSelfSponsoredAfter(callData []byte, selfSponsoredAfter *big.Int) ([]byte, error) {
	info, err := DecodeBoostCallData(callData)
	if err != nil {
		return nil, err
	}

	info.MEVConfig = MEVConfig{
		MinAmount:          info.MEVConfig.MinAmount,
		SelfSponsoredAfter: new(big.Int).Set(selfSponsoredAfter),
	}
	return info.Encode()
}
