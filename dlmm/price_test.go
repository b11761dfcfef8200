package dlmm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGetPriceOfBinByBinId(t *testing.T) {
	assert.True(t, GetPriceOfBinByBinId(0, 25).Equal(N1))
	assert.True(t, GetPriceOfBinByBinId(1, 100).Equal(decimal.RequireFromString("1.01")))
	assert.True(t, GetPriceOfBinByBinId(2, 100).Equal(decimal.RequireFromString("1.0201")))

	inverse := GetPriceOfBinByBinId(-1, 100).Mul(decimal.RequireFromString("1.01"))
	assert.True(t, inverse.Sub(N1).Abs().LessThan(decimal.New(1, -20)), inverse.String())
}

func TestGetPriceOfBinByBinId_Increasing(t *testing.T) {
	prev := GetPriceOfBinByBinId(-500, 20)
	for id := int32(-499); id <= 500; id += 7 {
		p := GetPriceOfBinByBinId(id, 20)
		assert.True(t, p.GreaterThan(prev), "bin %d", id)
		prev = p
	}
}

func TestFromPricePerLamport(t *testing.T) {
	raw := decimal.RequireFromString("0.1712")
	assert.True(t, FromPricePerLamport(raw, 9, 6).Equal(decimal.RequireFromString("171.2")))
	assert.True(t, FromPricePerLamport(raw, 6, 9).Equal(decimal.RequireFromString("0.0001712")))
}
