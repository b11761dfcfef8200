package dlmm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/lpbot/solana/solanatest"
)

var testUSDC = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

// seedPool stores a SOL/USDC pair at activeId with bin step 10.
func seedPool(t *testing.T, r *solanatest.RPC, address solana.PublicKey, activeId int32) *LbPair {
	t.Helper()
	pair := testLbPair(activeId, 10, solana.WrappedSol, testUSDC)
	data, err := EncodeLbPair(pair)
	require.NoError(t, err)

	r.SetAccount(address, ProgramID, data)
	r.SetMint(solana.WrappedSol, solana.TokenProgramID, 9)
	r.SetMint(testUSDC, solana.TokenProgramID, 6)
	return pair
}

func TestGetPool(t *testing.T) {
	r := solanatest.NewRPC()
	address := solana.NewWallet().PublicKey()
	pair := seedPool(t, r, address, 0)

	pool, err := NewDLMM(r).GetPool(context.Background(), address)
	require.NoError(t, err)

	assert.Equal(t, address, pool.Address)
	assert.Equal(t, int32(0), pool.ActiveBinId)
	assert.Equal(t, uint16(10), pool.BinStep)
	assert.Equal(t, uint8(9), pool.TokenX.Decimals)
	assert.Equal(t, uint8(6), pool.TokenY.Decimals)
	assert.Equal(t, solana.TokenProgramID, pool.TokenX.Program)
	assert.Equal(t, pair.ReserveX, pool.ReserveX)
	// bin 0 is a raw price of 1, shifted by 9-6 decimals.
	assert.True(t, pool.ActivePrice.Equal(decimal.NewFromInt(1000)), pool.ActivePrice.String())
}

func TestGetPool_Errors(t *testing.T) {
	r := solanatest.NewRPC()
	m := NewDLMM(r)

	_, err := m.GetPool(context.Background(), solana.NewWallet().PublicKey())
	assert.Error(t, err)

	foreign := solana.NewWallet().PublicKey()
	data, err := EncodeLbPair(testLbPair(0, 10, solana.WrappedSol, testUSDC))
	require.NoError(t, err)
	r.SetAccount(foreign, solana.SystemProgramID, data)
	_, err = m.GetPool(context.Background(), foreign)
	assert.ErrorIs(t, err, ErrInvalidOwner)

	missingMints := solana.NewWallet().PublicKey()
	r.SetAccount(missingMints, ProgramID, data)
	_, err = m.GetPool(context.Background(), missingMints)
	assert.Error(t, err)
}

func TestGetPool_DataClient(t *testing.T) {
	r := solanatest.NewRPC()
	address := solana.NewWallet().PublicKey()
	seedPool(t, r, address, 0)

	body := `{"address":"` + address.String() + `","name":"SOL-USDC","mint_x":"` + solana.WrappedSol.String() +
		`","mint_y":"` + testUSDC.String() + `","bin_step":10,"current_price":999.5,"liquidity":42}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	pool, err := NewDLMM(r, WithDataClient(NewDataClient(server.URL, nil))).GetPool(context.Background(), address)
	require.NoError(t, err)
	assert.Equal(t, "SOL-USDC", pool.Name)
	assert.True(t, pool.QuotedPrice.Equal(decimal.RequireFromString("999.5")))
}

func TestGetPool_DataClientMintMismatch(t *testing.T) {
	r := solanatest.NewRPC()
	address := solana.NewWallet().PublicKey()
	seedPool(t, r, address, 0)

	swapped := `{"address":"` + address.String() + `","mint_x":"` + testUSDC.String() +
		`","mint_y":"` + solana.WrappedSol.String() + `","bin_step":10}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(swapped))
	}))
	defer server.Close()

	_, err := NewDLMM(r, WithDataClient(NewDataClient(server.URL, nil))).GetPool(context.Background(), address)
	assert.ErrorIs(t, err, ErrMalformedPair)
}
