package auth

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/krazyTry/lpbot/internal/privy"
)

var ErrNoDelegatedWallet = errors.New("no delegated wallet found")

const (
	accountTypeWallet = "wallet"
	chainTypeSolana   = "solana"
	// walletClientPrivy marks wallets custodied by Privy itself.
	walletClientPrivy = "privy"
)

// DelegatedWallet is a Privy custodied Solana wallet the user has delegated
// signing for.
type DelegatedWallet struct {
	Address solana.PublicKey
}

// IsDelegatedSolanaWallet reports whether account can sign server side.
func IsDelegatedSolanaWallet(account privy.LinkedAccount) bool {
	return account.Type == accountTypeWallet &&
		account.ChainType == chainTypeSolana &&
		account.WalletClientType == walletClientPrivy &&
		account.Delegated
}

// ResolveDelegatedWallet returns the first delegated Solana wallet in the
// user's linked account order. Entries with unparsable addresses are skipped.
func ResolveDelegatedWallet(user *privy.User) (*DelegatedWallet, error) {
	if user == nil {
		return nil, ErrNoDelegatedWallet
	}
	var skipped []string
	for _, account := range user.LinkedAccounts {
		if !IsDelegatedSolanaWallet(account) {
			continue
		}
		address, err := solana.PublicKeyFromBase58(account.Address)
		if err != nil {
			skipped = append(skipped, account.Address)
			continue
		}
		return &DelegatedWallet{Address: address}, nil
	}
	if len(skipped) > 0 {
		return nil, fmt.Errorf("%w: unparsable addresses %q", ErrNoDelegatedWallet, skipped)
	}
	return nil, ErrNoDelegatedWallet
}
