// Package signer gets position transactions signed by the user's delegated
// wallet without the wallet key ever entering this process.
package signer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/krazyTry/lpbot/internal/privy"
)

var (
	ErrMessageChanged       = errors.New("remote signer returned a different message")
	ErrIncompleteSignatures = errors.New("signed transaction is missing signatures")
)

// WalletSigner signs base64 transactions with a custodied wallet.
type WalletSigner interface {
	SignSolanaTransaction(ctx context.Context, address string, transaction string) (string, error)
}

var _ WalletSigner = (*privy.Client)(nil)

type Signer struct {
	wallets WalletSigner
}

func New(wallets WalletSigner) *Signer {
	return &Signer{wallets: wallets}
}

// Sign adds the local co-signers' signatures, has the remote wallet sign,
// and returns the fully signed transaction. The message must come back
// unchanged and every required signature must verify.
func (s *Signer) Sign(ctx context.Context, tx *solana.Transaction, wallet solana.PublicKey, cosigners ...solana.PrivateKey) (*solana.Transaction, error) {
	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	if _, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range cosigners {
			if cosigners[i].PublicKey().Equals(key) {
				return &cosigners[i]
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("partial sign: %w", err)
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}

	signedB64, err := s.wallets.SignSolanaTransaction(ctx, wallet.String(), base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		return nil, err
	}

	signed, err := DecodeTransaction(signedB64)
	if err != nil {
		return nil, err
	}

	signedMessage, err := signed.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal signed message: %w", err)
	}
	if !bytes.Equal(message, signedMessage) {
		return nil, ErrMessageChanged
	}
	if err := signed.VerifySignatures(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIncompleteSignatures, err)
	}
	return signed, nil
}

// DecodeTransaction parses a base64 wire transaction.
func DecodeTransaction(b64 string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode signed transaction: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("parse signed transaction: %w", err)
	}
	return tx, nil
}
