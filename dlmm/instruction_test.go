package dlmm

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitializePositionInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	position := solana.NewWallet().PublicKey()
	lbPair := solana.NewWallet().PublicKey()

	ix, err := NewInitializePositionInstruction(66, 69, payer, position, lbPair, payer, eventAuthority)
	require.NoError(t, err)

	assert.Equal(t, ProgramID, ix.ProgramID())
	accounts := ix.Accounts()
	require.Len(t, accounts, 8)
	assert.True(t, accounts[0].IsSigner && accounts[0].IsWritable)
	assert.True(t, accounts[1].IsSigner && accounts[1].IsWritable)
	assert.Equal(t, position, accounts[1].PublicKey)
	assert.Equal(t, lbPair, accounts[2].PublicKey)
	assert.True(t, accounts[3].IsSigner)
	assert.Equal(t, solana.SysVarRentPubkey, accounts[5].PublicKey)
	assert.Equal(t, eventAuthority, accounts[6].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 16)
	assert.Equal(t, initializePositionDiscriminator[:], data[:8])
	assert.Equal(t, int32(66), int32(binary.LittleEndian.Uint32(data[8:12])))
	assert.Equal(t, int32(69), int32(binary.LittleEndian.Uint32(data[12:16])))
}

func TestNewInitializeBinArrayInstruction(t *testing.T) {
	lbPair := solana.NewWallet().PublicKey()
	binArray, err := DeriveBinArrayPDA(lbPair, -3)
	require.NoError(t, err)
	funder := solana.NewWallet().PublicKey()

	ix, err := NewInitializeBinArrayInstruction(-3, lbPair, binArray, funder)
	require.NoError(t, err)
	require.Len(t, ix.Accounts(), 4)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 16)
	assert.Equal(t, int64(-3), int64(binary.LittleEndian.Uint64(data[8:16])))
}

func TestNewAddLiquidityByStrategyInstruction(t *testing.T) {
	keys := make([]solana.PublicKey, 13)
	for i := range keys {
		keys[i] = solana.NewWallet().PublicKey()
	}
	params := LiquidityParameterByStrategy{
		AmountX:              1000,
		AmountY:              2_000_000,
		ActiveId:             100,
		MaxActiveBinSlippage: DefaultMaxActiveBinSlippage,
		StrategyParameters: StrategyParameters{
			MinBinId:     66,
			MaxBinId:     134,
			StrategyType: StrategyTypeSpotBalanced,
		},
	}

	build := func(ext *solana.PublicKey) solana.Instruction {
		ix, err := NewAddLiquidityByStrategyInstruction(params,
			keys[0], keys[1], ext, keys[2], keys[3], keys[4], keys[5], keys[6], keys[7],
			keys[8], keys[9], keys[10], solana.TokenProgramID, solana.TokenProgramID, eventAuthority)
		require.NoError(t, err)
		return ix
	}

	ix := build(nil)
	accounts := ix.Accounts()
	require.Len(t, accounts, 16)
	assert.Equal(t, ProgramID, accounts[2].PublicKey)
	assert.False(t, accounts[2].IsWritable)
	assert.True(t, accounts[11].IsSigner)
	assert.Equal(t, keys[10], accounts[11].PublicKey)
	assert.Equal(t, ProgramID, accounts[15].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 8+8+8+4+4+4+4+1+64)
	assert.Equal(t, addLiquidityByStrategyDiscriminator[:], data[:8])
	assert.Equal(t, uint64(1000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(2_000_000), binary.LittleEndian.Uint64(data[16:24]))
	assert.Equal(t, int32(100), int32(binary.LittleEndian.Uint32(data[24:28])))
	assert.Equal(t, int32(66), int32(binary.LittleEndian.Uint32(data[32:36])))
	assert.Equal(t, int32(134), int32(binary.LittleEndian.Uint32(data[36:40])))
	assert.Equal(t, byte(StrategyTypeSpotBalanced), data[40])

	ext := keys[12]
	withExt := build(&ext).Accounts()
	assert.Equal(t, ext, withExt[2].PublicKey)
	assert.True(t, withExt[2].IsWritable)
}

func TestStrategyTypeString(t *testing.T) {
	assert.Equal(t, "SpotBalanced", StrategyTypeSpotBalanced.String())
	assert.Equal(t, uint8(3), uint8(StrategyTypeSpotBalanced))
	assert.Equal(t, "Unknown", StrategyType(42).String())
}
