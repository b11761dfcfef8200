package dlmm

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinIdToBinArrayIndex(t *testing.T) {
	cases := map[int32]int64{
		0:    0,
		69:   0,
		70:   1,
		134:  1,
		-1:   -1,
		-70:  -1,
		-71:  -2,
		-140: -2,
	}
	for binId, want := range cases {
		assert.Equal(t, want, BinIdToBinArrayIndex(binId), "bin %d", binId)
	}
}

func TestIsOverflowDefaultBinArrayBitmap(t *testing.T) {
	assert.False(t, IsOverflowDefaultBinArrayBitmap(0))
	assert.False(t, IsOverflowDefaultBinArrayBitmap(511))
	assert.False(t, IsOverflowDefaultBinArrayBitmap(-512))
	assert.True(t, IsOverflowDefaultBinArrayBitmap(512))
	assert.True(t, IsOverflowDefaultBinArrayBitmap(-513))
}

func TestDeriveBinArrayPDA(t *testing.T) {
	lbPair := solana.MustPublicKeyFromBase58("BVRbyLjjfSBcoyiYFuxbgKYnWuiFaF9CSXEa5vdSZ9Hh")

	a, err := DeriveBinArrayPDA(lbPair, -1)
	require.NoError(t, err)
	b, err := DeriveBinArrayPDA(lbPair, 0)
	require.NoError(t, err)
	again, err := DeriveBinArrayPDA(lbPair, -1)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
}
