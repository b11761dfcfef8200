package solana

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// TransferInstruction moves lamports from sender to receiver. The sender must
// sign the enclosing transaction.
func TransferInstruction(
	sender solana.PublicKey,
	receiver solana.PublicKey,
	lamports uint64,
) (solana.Instruction, error) {
	if lamports == 0 {
		return nil, errors.New("transfer amount must be positive")
	}
	if sender.Equals(receiver) {
		return nil, errors.New("sender and receiver are the same account")
	}

	return system.NewTransferInstruction(
		lamports,
		sender,
		receiver,
	).Build(), nil
}
