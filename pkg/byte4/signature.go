package byte4

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// GetMethodFromCalldata returns the ABI method for a given 4-byte selector or full calldata
func GetMethodFromCalldata(parsedABI *abi.ABI, calldata []byte) (*abi.Method, error) {
	if len(calldata) < 4 {
		return nil, fmt.Errorf("invalid selector length: %d", len(calldata))
	}

	methodID := calldata[:4]
	for _, method := range parsedABI.Methods {
		if bytes.Equal(method.ID, methodID) {
			m := method
			return &m, nil
		}
	}

	return nil, fmt.Errorf("no matching method found for selector: 0x%x", methodID)
}

// MatchesAny reports whether the selector of calldata is the id of any of the
// named methods.
func MatchesAny(parsedABI *abi.ABI, calldata []byte, names ...string) bool {
	if len(calldata) < 4 {
		return false
	}

	for _, name := range names {
		method, ok := parsedABI.Methods[name]
		if ok && bytes.Equal(method.ID, calldata[:4]) {
			return true
		}
	}
	return false
}
