package dlmm

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLbPair(activeId int32, binStep uint16, mintX, mintY solana.PublicKey) *LbPair {
	return &LbPair{
		ActiveId:   activeId,
		BinStep:    binStep,
		TokenXMint: mintX,
		TokenYMint: mintY,
		ReserveX:   solana.NewWallet().PublicKey(),
		ReserveY:   solana.NewWallet().PublicKey(),
		Oracle:     solana.NewWallet().PublicKey(),
	}
}

func TestEncodeDecodeLbPair(t *testing.T) {
	mintX := solana.WrappedSol
	mintY := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	pair := testLbPair(-1234, 20, mintX, mintY)

	data, err := EncodeLbPair(pair)
	require.NoError(t, err)
	require.Len(t, data, LbPairSize)

	assert.Equal(t, lbPairDiscriminator[:], data[:8])
	assert.Equal(t, int32(-1234), int32(binary.LittleEndian.Uint32(data[76:80])))
	assert.Equal(t, uint16(20), binary.LittleEndian.Uint16(data[80:82]))
	assert.Equal(t, mintX[:], data[88:120])
	assert.Equal(t, mintY[:], data[120:152])

	decoded, err := DecodeLbPair(data)
	require.NoError(t, err)
	assert.Equal(t, pair.ActiveId, decoded.ActiveId)
	assert.Equal(t, pair.BinStep, decoded.BinStep)
	assert.Equal(t, pair.TokenXMint, decoded.TokenXMint)
	assert.Equal(t, pair.TokenYMint, decoded.TokenYMint)
	assert.Equal(t, pair.ReserveX, decoded.ReserveX)
	assert.Equal(t, pair.ReserveY, decoded.ReserveY)
	assert.Equal(t, pair.Oracle, decoded.Oracle)
}

func TestDecodeLbPair_Rejects(t *testing.T) {
	_, err := DecodeLbPair(make([]byte, 100))
	assert.Error(t, err)

	data, err := EncodeLbPair(testLbPair(0, 1, solana.WrappedSol, solana.WrappedSol))
	require.NoError(t, err)
	data[0] ^= 0xff
	_, err = DecodeLbPair(data)
	assert.ErrorIs(t, err, ErrInvalidDiscriminator)
}
