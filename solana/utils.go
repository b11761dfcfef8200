package solana

import (
	"context"
	"crypto/sha256"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var ErrAccountNotFound = errors.New("account not found")

// GetLatestBlockhash returns the latest blockhash at finalized commitment.
func GetLatestBlockhash(ctx context.Context, rpcClient RPC) (solana.Hash, error) {
	recent, err := rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, err
	}
	if recent == nil || recent.Value == nil {
		return solana.Hash{}, errors.New("empty blockhash response")
	}
	return recent.Value.Blockhash, nil
}

// AccountDiscriminator is the 8 byte anchor prefix of an account named name.
func AccountDiscriminator(name string) [8]byte {
	return sighash("account:" + name)
}

// InstructionDiscriminator is the 8 byte anchor prefix of a global instruction.
func InstructionDiscriminator(name string) [8]byte {
	return sighash("global:" + name)
}

func sighash(preimage string) [8]byte {
	hash := sha256.Sum256([]byte(preimage))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}

// GetAccountInfo returns nil, ErrAccountNotFound when the account does not exist.
func GetAccountInfo(ctx context.Context, rpcClient RPC, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.Account, error) {
	out, err := rpcClient.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Commitment: commitment,
		Encoding:   solana.EncodingBase64,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, ErrAccountNotFound
	}
	return out.Value, nil
}

// GetMultipleAccountInfo keeps the request order; missing accounts are nil.
func GetMultipleAccountInfo(ctx context.Context, rpcClient RPC, accounts []solana.PublicKey, commitment rpc.CommitmentType) ([]*rpc.Account, error) {
	out, err := rpcClient.GetMultipleAccountsWithOpts(ctx, accounts, &rpc.GetMultipleAccountsOpts{
		Commitment: commitment,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) != len(accounts) {
		return nil, errors.New("unexpected getMultipleAccounts response length")
	}
	return out.Value, nil
}
