package transfer

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/lpbot/solana/solanatest"
)

func TestToLamports(t *testing.T) {
	cases := map[string]uint64{
		"0.0001":       100_000,
		"1":            1_000_000_000,
		"0.000000001":  1,
		"1.2345678919": 1_234_567_891,
	}
	for in, want := range cases {
		got, err := ToLamports(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "x", "0", "-1", "0.0000000001", "1e20"} {
		_, err := ToLamports(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestBuild(t *testing.T) {
	r := solanatest.NewRPC()
	dest := solana.NewWallet().PublicKey()
	wallet := solana.NewWallet().PublicKey()

	b, err := NewBuilder(r, dest, "0.0001")
	require.NoError(t, err)

	tx, err := b.Build(context.Background(), wallet)
	require.NoError(t, err)
	assert.Equal(t, wallet, tx.Message.AccountKeys[0])
	assert.Equal(t, r.Blockhash(), tx.Message.RecentBlockhash)
	require.Len(t, tx.Message.Instructions, 1)

	data := tx.Message.Instructions[0].Data
	require.Len(t, data, 12)
	assert.Equal(t, uint64(100_000), binary.LittleEndian.Uint64(data[4:]))

	_, err = b.Build(context.Background(), dest)
	assert.Error(t, err)
}
