// Package transfer builds the plain SOL transfer used by the transfer
// endpoint.
package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	solanago "github.com/krazyTry/lpbot/solana"
)

var ErrInvalidAmount = errors.New("invalid transfer amount")

// Builder sends a fixed amount to a fixed destination.
type Builder struct {
	rpcClient   solanago.RPC
	destination solana.PublicKey
	lamports    uint64
}

// NewBuilder parses amount in SOL, e.g. "0.0001".
func NewBuilder(rpcClient solanago.RPC, destination solana.PublicKey, amount string) (*Builder, error) {
	lamports, err := ToLamports(amount)
	if err != nil {
		return nil, err
	}
	return &Builder{
		rpcClient:   rpcClient,
		destination: destination,
		lamports:    lamports,
	}, nil
}

// ToLamports truncates a SOL amount to whole lamports; zero is rejected.
func ToLamports(amount string) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	lamports := d.Shift(9).Truncate(0)
	if !lamports.IsPositive() || !lamports.BigInt().IsUint64() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return lamports.BigInt().Uint64(), nil
}

func (b *Builder) Destination() solana.PublicKey {
	return b.destination
}

func (b *Builder) Lamports() uint64 {
	return b.lamports
}

// Build returns an unsigned transfer from wallet, which also pays fees.
func (b *Builder) Build(ctx context.Context, wallet solana.PublicKey) (*solana.Transaction, error) {
	ix, err := solanago.TransferInstruction(wallet, b.destination, b.lamports)
	if err != nil {
		return nil, err
	}

	latestBlockhash, err := solanago.GetLatestBlockhash(ctx, b.rpcClient)
	if err != nil {
		return nil, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction([]solana.Instruction{ix}, latestBlockhash, solana.TransactionPayer(wallet))
	if err != nil {
		return nil, fmt.Errorf("compile message: %w", err)
	}
	tx.Message.SetVersion(solana.MessageVersionV0)
	return tx, nil
}
