package schema

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// OpStatus is the lifecycle state of a submitted operation in the journal.
type OpStatus string

const (
	// submitted to the bundler, no settlement seen yet
	OpPending OpStatus = "pending"
	// UserOperationEvent seen on the entry point
	OpSettled OpStatus = "settled"
	// SettleUserOp seen on the paymaster, a searcher paid for it
	OpBoosted OpStatus = "boosted"
	// no event seen before the wait deadline
	OpExpired OpStatus = "expired"
)

var AllOpStatuses = []OpStatus{OpPending, OpSettled, OpBoosted, OpExpired}

// OpStatusToStorageKey converts a status to its storage key prefix
// p: pending
// s: settled through the entry point
// b: boosted, settled by a searcher
// x: expired
func OpStatusToStorageKey(v OpStatus) string {
	switch v {
	case OpSettled:
		return "s"
	case OpBoosted:
		return "b"
	case OpExpired:
		return "x"
	default:
		return "p"
	}
}

// ParseOpStatus accepts the long name of a status.
func ParseOpStatus(v string) (OpStatus, error) {
	for _, s := range AllOpStatuses {
		if strings.EqualFold(string(s), v) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown operation status %q", v)
}

func OpStorageKey(id string, status OpStatus) []byte {
	return []byte(fmt.Sprintf("o:%s:%s", OpStatusToStorageKey(status), id))
}

func OpByStatusStoragePrefix(status OpStatus) []byte {
	return []byte(fmt.Sprintf("o:%s:", OpStatusToStorageKey(status)))
}

// OpHashIndexKey points a user op hash or boost op hash at the current
// storage key of its record.
func OpHashIndexKey(hash common.Hash) []byte {
	return []byte(fmt.Sprintf("h:%s", strings.ToLower(hash.Hex())))
}
