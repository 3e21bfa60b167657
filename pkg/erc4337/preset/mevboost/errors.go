package mevboost

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrConfiguration       = errors.New("missing deployment address")
	ErrDeadlinePassed      = errors.New("self sponsorship deadline passed")
	ErrInsufficientBalance = errors.New("insufficient searcher balance")
)

// DeadlinePassedError is returned by a fill attempted at or after the
// operation's selfSponsoredAfter.
type DeadlinePassedError struct {
	SelfSponsoredAfter *big.Int
	BlockTimestamp     uint64
}

func (e *DeadlinePassedError) Error() string {
	return fmt.Sprintf("do not need to fill: selfSponsoredAfter %s is not after block time %d", e.SelfSponsoredAfter, e.BlockTimestamp)
}

func (e *DeadlinePassedError) Is(target error) bool {
	return target == ErrDeadlinePassed
}

// InsufficientBalanceError is returned when the searcher's deposit at the
// settlement contract is below the fill amount.
type InsufficientBalanceError struct {
	Searcher common.Address
	Balance  *big.Int
	Amount   *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("not enough balance to fill: searcher %s has %s, needs %s", e.Searcher.Hex(), e.Balance, e.Amount)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
