package dlmm

import (
	"github.com/shopspring/decimal"
)

// pricePrecision is the number of decimal places kept when dividing by a
// negative power of the bin base.
const pricePrecision = 24

// GetPriceOfBinByBinId returns the raw price (token Y lamports per token X
// lamport) of binId: (1 + binStep/10000)^binId.
func GetPriceOfBinByBinId(binId int32, binStep uint16) decimal.Decimal {
	base := N1.Add(decimal.NewFromInt(int64(binStep)).Div(BASIS_POINT_MAX))

	if binId >= 0 {
		return powInt(base, int64(binId))
	}
	return N1.DivRound(powInt(base, -int64(binId)), pricePrecision)
}

// FromPricePerLamport adjusts a raw bin price for the token decimals,
// giving the price of one whole token X in whole token Y.
func FromPricePerLamport(pricePerLamport decimal.Decimal, decimalsX, decimalsY uint8) decimal.Decimal {
	return pricePerLamport.Shift(int32(decimalsX) - int32(decimalsY))
}

// powInt is exponentiation by squaring; exponent must be non-negative.
func powInt(base decimal.Decimal, exponent int64) decimal.Decimal {
	result := N1
	for exponent > 0 {
		if exponent&1 == 1 {
			result = result.Mul(base).Truncate(pricePrecision * 2)
		}
		exponent >>= 1
		if exponent > 0 {
			base = base.Mul(base).Truncate(pricePrecision * 2)
		}
	}
	return result.Truncate(pricePrecision * 2)
}
