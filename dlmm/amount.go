package dlmm

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid deposit amount")
	ErrZeroAmount      = errors.New("deposit rounds to zero base units")
	ErrInvalidBinWidth = errors.New("invalid bin half width")
)

// BinRange is an inclusive range of bin ids.
type BinRange struct {
	MinBinId int32
	MaxBinId int32
}

// Width is the number of bins covered by the range.
func (r BinRange) Width() int32 {
	return r.MaxBinId - r.MinBinId + 1
}

// GetBinRange centers a range of 2*halfWidth+1 bins on activeBin.
func GetBinRange(activeBin int32, halfWidth int32) (BinRange, error) {
	if halfWidth < 1 || halfWidth > MaxBinHalfWidth {
		return BinRange{}, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidBinWidth, halfWidth, MaxBinHalfWidth)
	}
	if int64(activeBin)-int64(halfWidth) < math.MinInt32 || int64(activeBin)+int64(halfWidth) > math.MaxInt32 {
		return BinRange{}, fmt.Errorf("%w: range around bin %d overflows", ErrInvalidBinWidth, activeBin)
	}
	return BinRange{
		MinBinId: activeBin - halfWidth,
		MaxBinId: activeBin + halfWidth,
	}, nil
}

// ParseAmount parses a positive decimal string such as "0.001".
func ParseAmount(amount string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q must be positive", ErrInvalidAmount, amount)
	}
	return d, nil
}

// ToBaseUnits truncates amount * 10^decimals to an integer.
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	return toUint64(amount.Shift(int32(decimals)).Truncate(0))
}

// PairedBaseUnits floors amount * price * 10^decimals, sizing the token Y
// side of a balanced deposit without exceeding the quoted price.
func PairedBaseUnits(amount, price decimal.Decimal, decimals uint8) (uint64, error) {
	return toUint64(amount.Mul(price).Shift(int32(decimals)).Floor())
}

func toUint64(d decimal.Decimal) (uint64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative result %s", ErrInvalidAmount, d)
	}
	bi := d.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %s overflows u64", ErrInvalidAmount, d)
	}
	return bi.Uint64(), nil
}

// Deposit is a sized two-sided deposit.
type Deposit struct {
	Range        BinRange
	TotalXAmount uint64
	TotalYAmount uint64
}

// ComputeDeposit sizes a balanced deposit of amount token X around the
// pool's active bin. Deposits where either side rounds to zero are rejected.
func ComputeDeposit(pool *PoolState, amount decimal.Decimal, halfWidth int32) (*Deposit, error) {
	binRange, err := GetBinRange(pool.ActiveBinId, halfWidth)
	if err != nil {
		return nil, err
	}

	totalX, err := ToBaseUnits(amount, pool.TokenX.Decimals)
	if err != nil {
		return nil, err
	}
	totalY, err := PairedBaseUnits(amount, pool.ActivePrice, pool.TokenY.Decimals)
	if err != nil {
		return nil, err
	}
	if totalX == 0 || totalY == 0 {
		return nil, fmt.Errorf("%w: amount %s gives x=%d y=%d", ErrZeroAmount, amount, totalX, totalY)
	}

	return &Deposit{
		Range:        binRange,
		TotalXAmount: totalX,
		TotalYAmount: totalY,
	}, nil
}
