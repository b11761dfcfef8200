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
)

const samplePair = `{
	"address": "BVRbyLjjfSBcoyiYFuxbgKYnWuiFaF9CSXEa5vdSZ9Hh",
	"name": "SOL-USDC",
	"mint_x": "So11111111111111111111111111111111111111112",
	"mint_y": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"bin_step": 20,
	"current_price": 171.23,
	"liquidity": "1234567.89"
}`

func TestParsePair(t *testing.T) {
	info, err := parsePair([]byte(samplePair))
	require.NoError(t, err)

	assert.Equal(t, "SOL-USDC", info.Name)
	assert.Equal(t, solana.WrappedSol, info.MintX)
	assert.Equal(t, uint16(20), info.BinStep)
	assert.True(t, info.CurrentPrice.Equal(decimal.RequireFromString("171.23")))
	assert.True(t, info.Liquidity.Equal(decimal.RequireFromString("1234567.89")))
}

func TestParsePair_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":    `{"address":`,
		"no address":  `{"mint_x":"So11111111111111111111111111111111111111112","mint_y":"So11111111111111111111111111111111111111112","bin_step":1}`,
		"bad mint":    `{"address":"BVRbyLjjfSBcoyiYFuxbgKYnWuiFaF9CSXEa5vdSZ9Hh","mint_x":"nope","mint_y":"So11111111111111111111111111111111111111112","bin_step":1}`,
		"no bin step": `{"address":"BVRbyLjjfSBcoyiYFuxbgKYnWuiFaF9CSXEa5vdSZ9Hh","mint_x":"So11111111111111111111111111111111111111112","mint_y":"So11111111111111111111111111111111111111112"}`,
		"bad price":   `{"address":"BVRbyLjjfSBcoyiYFuxbgKYnWuiFaF9CSXEa5vdSZ9Hh","mint_x":"So11111111111111111111111111111111111111112","mint_y":"So11111111111111111111111111111111111111112","bin_step":1,"current_price":"abc"}`,
	}
	for name, body := range cases {
		_, err := parsePair([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedPair, name)
	}
}

func TestDataClient_GetPair(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePair))
	}))
	defer server.Close()

	addr := solana.MustPublicKeyFromBase58("BVRbyLjjfSBcoyiYFuxbgKYnWuiFaF9CSXEa5vdSZ9Hh")
	info, err := NewDataClient(server.URL+"/", server.Client()).GetPair(context.Background(), addr)
	require.NoError(t, err)

	assert.Equal(t, "/pair/"+addr.String(), path)
	assert.Equal(t, addr, info.Address)
}

func TestDataClient_GetPair_Status(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewDataClient(server.URL, nil).GetPair(context.Background(), solana.WrappedSol)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDataClient_GetPair_AddressMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePair))
	}))
	defer server.Close()

	info, err := NewDataClient(server.URL, nil).GetPair(context.Background(), solana.TokenProgramID)
	assert.ErrorIs(t, err, ErrMalformedPair)
	assert.Nil(t, info)
}
