package chain

import (
	"context"
	"fmt"
	"math"

	"github.com/bituzin/stacks-boost-app/internal/clarity"
)

// Lending contract data maps keyed by {user: principal}
const (
	MapDeposits = "deposits"
	MapBorrows  = "borrows"
)

// LendingContract reads a user's position from the lending contract's maps
type LendingContract struct {
	querier Querier
	address string
	name    string
}

// NewLendingContract binds a querier to the deployed contract address.name
func NewLendingContract(querier Querier, contractAddress, contractName string) *LendingContract {
	return &LendingContract{querier: querier, address: contractAddress, name: contractName}
}

// ContractID returns address.name
func (l *LendingContract) ContractID() string {
	return l.address + "." + l.name
}

// Deposited returns the user's deposited amount in base units
func (l *LendingContract) Deposited(ctx context.Context, user string) (uint64, error) {
	return l.readAmount(ctx, MapDeposits, user)
}

// Borrowed returns the user's outstanding borrow in base units
func (l *LendingContract) Borrowed(ctx context.Context, user string) (uint64, error) {
	return l.readAmount(ctx, MapBorrows, user)
}

func (l *LendingContract) readAmount(ctx context.Context, mapName, user string) (uint64, error) {
	principal, err := clarity.PrincipalFromString(user)
	if err != nil {
		return 0, fmt.Errorf("invalid user principal: %w", err)
	}

	value, found, err := l.querier.GetContractMapEntry(ctx, l.address, l.name, mapName, clarity.Tuple{"user": principal})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return DecodeMapAmount(value), nil
}

// DecodeMapAmount extracts the amount field of a map value. One level of
// optional/response wrapping is removed first, and an amount that is itself
// wrapped in a {value: ...} record is unwrapped too. Anything unreadable is 0.
func DecodeMapAmount(v clarity.Value) uint64 {
	v = clarity.Unwrap(v)
	if v == nil {
		return 0
	}

	record, ok := v.(clarity.Tuple)
	if !ok {
		return toBaseUnits(v)
	}
	if inner, ok := record["value"].(clarity.Tuple); ok {
		record = inner
	}

	amount, ok := record["amount"]
	if !ok {
		return 0
	}
	if wrapped, ok := amount.(clarity.Tuple); ok {
		amount = wrapped["value"]
	}
	return toBaseUnits(clarity.Unwrap(amount))
}

func toBaseUnits(v clarity.Value) uint64 {
	switch n := v.(type) {
	case clarity.UInt:
		if n.V == nil {
			return 0
		}
		if !n.V.IsUint64() {
			return math.MaxUint64
		}
		return n.V.Uint64()
	case clarity.Int:
		if n.V == nil || n.V.Sign() < 0 {
			return 0
		}
		if !n.V.IsUint64() {
			return math.MaxUint64
		}
		return n.V.Uint64()
	default:
		return 0
	}
}
