package dlmm

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	solanago "github.com/krazyTry/lpbot/solana"
	"github.com/krazyTry/lpbot/solana/solanatest"
)

func TestCreatePositionTransaction(t *testing.T) {
	r := solanatest.NewRPC()
	address := solana.NewWallet().PublicKey()
	seedPool(t, r, address, 100)

	m := NewDLMM(r)
	pool, err := m.GetPool(context.Background(), address)
	require.NoError(t, err)

	owner := solana.NewWallet().PublicKey()
	position := solana.NewWallet().PublicKey()

	out, err := m.CreatePositionTransaction(context.Background(), owner, position, pool, "0.001", DefaultBinHalfWidth)
	require.NoError(t, err)

	tx := out.Transaction
	assert.Equal(t, r.Blockhash(), tx.Message.RecentBlockhash)
	assert.Equal(t, solana.MessageVersionV0, tx.Message.GetVersion())
	assert.Equal(t, owner, tx.Message.AccountKeys[0])
	assert.Equal(t, uint8(2), tx.Message.Header.NumRequiredSignatures)

	assert.True(t, tx.Message.IsSigner(position))

	// compute limit, 2 atas, wrap (2), 2 bin arrays, init position,
	// add liquidity, unwrap
	require.Len(t, tx.Message.Instructions, 10)

	programs := make([]solana.PublicKey, len(tx.Message.Instructions))
	for i, ix := range tx.Message.Instructions {
		programs[i], err = tx.Message.Program(ix.ProgramIDIndex)
		require.NoError(t, err)
	}
	assert.Equal(t, solana.ComputeBudget, programs[0])
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, programs[1])
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, programs[2])
	assert.Equal(t, solana.SystemProgramID, programs[3])
	assert.Equal(t, solana.TokenProgramID, programs[4])
	for _, p := range programs[5:9] {
		assert.Equal(t, ProgramID, p)
	}
	assert.Equal(t, solana.TokenProgramID, programs[9])

	assert.Equal(t, uint64(1_000_000), out.Deposit.TotalXAmount)
	assert.Equal(t, int32(66), out.Deposit.Range.MinBinId)
	assert.Equal(t, int32(134), out.Deposit.Range.MaxBinId)
}

func TestInitializePosition_SkipsExistingAccounts(t *testing.T) {
	r := solanatest.NewRPC()
	address := solana.NewWallet().PublicKey()
	seedPool(t, r, address, 10)

	m := NewDLMM(r, WithComputeBudget(0, 0))
	pool, err := m.GetPool(context.Background(), address)
	require.NoError(t, err)

	owner := solana.NewWallet().PublicKey()
	ataX, err := solanago.FindAssociatedTokenAddress(owner, pool.TokenX.Mint, pool.TokenX.Program)
	require.NoError(t, err)
	ataY, err := solanago.FindAssociatedTokenAddress(owner, pool.TokenY.Mint, pool.TokenY.Program)
	require.NoError(t, err)
	r.SetAccount(ataX, solana.TokenProgramID, make([]byte, 165))
	r.SetAccount(ataY, solana.TokenProgramID, make([]byte, 165))

	// bins -24..44 span arrays -1 and 0
	for _, idx := range []int64{-1, 0} {
		binArray, err := DeriveBinArrayPDA(address, idx)
		require.NoError(t, err)
		r.SetAccount(binArray, ProgramID, []byte{0})
	}

	binRange, err := GetBinRange(pool.ActiveBinId, DefaultBinHalfWidth)
	require.NoError(t, err)

	ixs, err := m.InitializePositionAndAddLiquidityByStrategy(context.Background(), PositionParams{
		Owner:    owner,
		Position: solana.NewWallet().PublicKey(),
		Pool:     pool,
		Deposit:  &Deposit{Range: binRange, TotalXAmount: 10, TotalYAmount: 10},
	})
	require.NoError(t, err)

	// wrap (2), init position, add liquidity, unwrap
	require.Len(t, ixs, 5)
	assert.Equal(t, solana.SystemProgramID, ixs[0].ProgramID())
	assert.Equal(t, ProgramID, ixs[2].ProgramID())
	assert.Equal(t, ProgramID, ixs[3].ProgramID())

	addAccounts := ixs[3].Accounts()
	lower, _ := DeriveBinArrayPDA(address, -1)
	upper, _ := DeriveBinArrayPDA(address, 0)
	assert.Equal(t, lower, addAccounts[9].PublicKey)
	assert.Equal(t, upper, addAccounts[10].PublicKey)
	assert.Equal(t, ProgramID, addAccounts[2].PublicKey)
}

func TestInitializePosition_BitmapExtension(t *testing.T) {
	r := solanatest.NewRPC()
	address := solana.NewWallet().PublicKey()
	seedPool(t, r, address, 512*MaxBinPerArray+5)

	m := NewDLMM(r)
	pool, err := m.GetPool(context.Background(), address)
	require.NoError(t, err)

	binRange, err := GetBinRange(pool.ActiveBinId, 3)
	require.NoError(t, err)
	deposit := &Deposit{Range: binRange, TotalXAmount: 1, TotalYAmount: 1}

	ixs, err := m.InitializePositionAndAddLiquidityByStrategy(context.Background(), PositionParams{
		Owner:    solana.NewWallet().PublicKey(),
		Position: solana.NewWallet().PublicKey(),
		Pool:     pool,
		Deposit:  deposit,
	})
	require.NoError(t, err)

	extension, err := DeriveBinArrayBitmapExtensionPDA(address)
	require.NoError(t, err)
	var found bool
	for _, ix := range ixs {
		if ix.ProgramID().Equals(ProgramID) && len(ix.Accounts()) == 16 {
			assert.Equal(t, extension, ix.Accounts()[2].PublicKey)
			found = true
		}
	}
	assert.True(t, found)
}

func TestCreatePositionTransaction_InvalidInput(t *testing.T) {
	m := NewDLMM(solanatest.NewRPC())
	owner := solana.NewWallet().PublicKey()
	pool := testPool(100, 6, 9, "2.0")

	_, err := m.CreatePositionTransaction(context.Background(), owner, owner, nil, "1", 34)
	assert.ErrorIs(t, err, ErrNilPool)
	_, err = m.CreatePositionTransaction(context.Background(), owner, owner, pool, "abc", 34)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = m.CreatePositionTransaction(context.Background(), owner, owner, pool, "1", 40)
	assert.ErrorIs(t, err, ErrInvalidBinWidth)
}
