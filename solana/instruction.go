package solana

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// createIdempotent is the associated-token-account instruction index that
// succeeds when the account already exists.
const createIdempotent byte = 1

// FindAssociatedTokenAddress derives the ATA for owner and mint under the
// given token program (spl-token or token-2022).
func FindAssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindProgramAddress([][]byte{
		owner[:],
		tokenProgram[:],
		mint[:],
	}, solana.SPLAssociatedTokenAccountProgramID)
	return ata, err
}

// NewCreateATAIdempotentInstruction creates the associated token account of
// owner for mint, paid by payer.
func NewCreateATAIdempotentInstruction(payer, ata, owner, mint, tokenProgram solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(ata).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(tokenProgram),
		},
		[]byte{createIdempotent},
	)
}

// PrepareTokenATA checks if ATA exists, creates it if it doesn't exist
func PrepareTokenATA(
	ctx context.Context,
	rpcClient RPC,
	owner solana.PublicKey,
	tokenMint solana.PublicKey,
	tokenProgram solana.PublicKey,
	payer solana.PublicKey,
	instructions *[]solana.Instruction,
) (solana.PublicKey, error) {
	tokenATA, err := FindAssociatedTokenAddress(owner, tokenMint, tokenProgram)
	if err != nil {
		return solana.PublicKey{}, err
	}

	_, err = GetAccountInfo(ctx, rpcClient, tokenATA, rpc.CommitmentConfirmed)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		*instructions = append(*instructions, NewCreateATAIdempotentInstruction(
			payer, tokenATA, owner, tokenMint, tokenProgram,
		))
	case err != nil:
		return solana.PublicKey{}, err
	}
	return tokenATA, nil
}

// WrapSOLInstructions moves lamports into the owner's wrapped SOL account and
// syncs its token balance.
func WrapSOLInstructions(owner, wsolAccount solana.PublicKey, lamports uint64) []solana.Instruction {
	return []solana.Instruction{
		system.NewTransferInstruction(lamports, owner, wsolAccount).Build(),
		token.NewSyncNativeInstruction(wsolAccount).Build(),
	}
}

// UnwrapSOLInstruction closes the wrapped SOL account back to its owner.
func UnwrapSOLInstruction(owner, wsolAccount solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstruction(
		wsolAccount,
		owner,
		owner,
		[]solana.PublicKey{},
	).Build()
}

// MergeInstructions drops repeated ATA creations for the same (payer, ata,
// mint) while keeping the order of everything else.
func MergeInstructions(oldInstructions []solana.Instruction) []solana.Instruction {
	type ataKey struct {
		payer, ata, mint solana.PublicKey
	}
	seen := make(map[ataKey]struct{})
	newInstructions := make([]solana.Instruction, 0, len(oldInstructions))

	for _, v := range oldInstructions {
		if v.ProgramID().Equals(solana.SPLAssociatedTokenAccountProgramID) {
			if accounts := v.Accounts(); len(accounts) >= 4 {
				k := ataKey{accounts[0].PublicKey, accounts[1].PublicKey, accounts[3].PublicKey}
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
			}
		}
		newInstructions = append(newInstructions, v)
	}
	return newInstructions
}
