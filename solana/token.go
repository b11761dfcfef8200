package solana

import (
	"context"
	"fmt"

	binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// Token represents a Solana token with mint information and owner
type Token struct {
	token.Mint
	// Address of the mint account
	Address solana.PublicKey
	// Owner program of the mint (spl-token or token-2022)
	Owner solana.PublicKey
}

// TokenLayout provides methods for decoding token data
type TokenLayout struct {
}

func (l *TokenLayout) Decode(data []byte) (*Token, error) {
	mint := token.Mint{}

	if err := binary.NewBinDecoder(data).Decode(&mint); err != nil {
		return nil, err
	}
	return &Token{Mint: mint}, nil
}

// GetMultipleToken fetches mint accounts in one call. Every mint must exist
// and be owned by a token program.
func GetMultipleToken(ctx context.Context, rpcClient RPC, commitment rpc.CommitmentType, mints ...solana.PublicKey) ([]*Token, error) {
	outs, err := GetMultipleAccountInfo(ctx, rpcClient, mints, commitment)
	if err != nil {
		return nil, err
	}
	list := make([]*Token, len(outs))
	for i, out := range outs {
		if out == nil {
			return nil, fmt.Errorf("mint %s: %w", mints[i], ErrAccountNotFound)
		}
		if !IsTokenProgram(out.Owner) {
			return nil, fmt.Errorf("mint %s is owned by %s, not a token program", mints[i], out.Owner)
		}

		tk, err := new(TokenLayout).Decode(out.Data.GetBinary())
		if err != nil {
			return nil, fmt.Errorf("decode mint %s: %w", mints[i], err)
		}
		tk.Address = mints[i]
		tk.Owner = out.Owner

		list[i] = tk
	}
	return list, nil
}

func IsTokenProgram(program solana.PublicKey) bool {
	return program.Equals(solana.TokenProgramID) || program.Equals(solana.Token2022ProgramID)
}
