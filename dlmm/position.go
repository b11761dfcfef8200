package dlmm

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"

	solanago "github.com/krazyTry/lpbot/solana"
)

var ErrNilPool = errors.New("pool state is required")

// PositionParams describes a new position opened by Owner, who also pays
// fees and must sign together with Position.
type PositionParams struct {
	Owner    solana.PublicKey
	Position solana.PublicKey
	Pool     *PoolState
	Deposit  *Deposit
}

// PositionTransaction is an unsigned position transaction plus the sizing
// that went into it.
type PositionTransaction struct {
	Transaction *solana.Transaction
	Deposit     *Deposit
}

// InitializePositionAndAddLiquidityByStrategy returns the instructions that
// create the position and deposit into it, including any missing token
// accounts, bin arrays and SOL wrapping.
func (m *DLMM) InitializePositionAndAddLiquidityByStrategy(ctx context.Context, params PositionParams) ([]solana.Instruction, error) {
	pool, deposit, owner := params.Pool, params.Deposit, params.Owner
	if pool == nil || deposit == nil {
		return nil, ErrNilPool
	}

	var (
		instructions     []solana.Instruction
		postInstructions []solana.Instruction
	)

	if m.computeUnitLimit > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitLimitInstruction(m.computeUnitLimit).Build())
	}
	if m.computeUnitPrice > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitPriceInstruction(m.computeUnitPrice).Build())
	}

	userTokenX, err := solanago.PrepareTokenATA(ctx, m.rpcClient, owner, pool.TokenX.Mint, pool.TokenX.Program, owner, &instructions)
	if err != nil {
		return nil, fmt.Errorf("prepare token x account: %w", err)
	}
	userTokenY, err := solanago.PrepareTokenATA(ctx, m.rpcClient, owner, pool.TokenY.Mint, pool.TokenY.Program, owner, &instructions)
	if err != nil {
		return nil, fmt.Errorf("prepare token y account: %w", err)
	}

	if pool.TokenX.Mint.Equals(solana.WrappedSol) {
		instructions = append(instructions, solanago.WrapSOLInstructions(owner, userTokenX, deposit.TotalXAmount)...)
		postInstructions = append(postInstructions, solanago.UnwrapSOLInstruction(owner, userTokenX))
	}
	if pool.TokenY.Mint.Equals(solana.WrappedSol) {
		instructions = append(instructions, solanago.WrapSOLInstructions(owner, userTokenY, deposit.TotalYAmount)...)
		postInstructions = append(postInstructions, solanago.UnwrapSOLInstruction(owner, userTokenY))
	}

	binArrayIxs, binArrayLower, binArrayUpper, err := m.prepareBinArrays(ctx, pool.Address, deposit.Range, owner)
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, binArrayIxs...)

	var bitmapExtension *solana.PublicKey
	lowerIndex := BinIdToBinArrayIndex(deposit.Range.MinBinId)
	upperIndex := BinIdToBinArrayIndex(deposit.Range.MaxBinId)
	if IsOverflowDefaultBinArrayBitmap(lowerIndex) || IsOverflowDefaultBinArrayBitmap(upperIndex) {
		extension, err := DeriveBinArrayBitmapExtensionPDA(pool.Address)
		if err != nil {
			return nil, err
		}
		bitmapExtension = &extension
	}

	initPositionIx, err := NewInitializePositionInstruction(
		deposit.Range.MinBinId,
		deposit.Range.Width(),
		owner,
		params.Position,
		pool.Address,
		owner,
		eventAuthority,
	)
	if err != nil {
		return nil, fmt.Errorf("initialize position: %w", err)
	}

	addLiquidityIx, err := NewAddLiquidityByStrategyInstruction(
		LiquidityParameterByStrategy{
			AmountX:              deposit.TotalXAmount,
			AmountY:              deposit.TotalYAmount,
			ActiveId:             pool.ActiveBinId,
			MaxActiveBinSlippage: m.maxActiveBinSlippage,
			StrategyParameters: StrategyParameters{
				MinBinId:     deposit.Range.MinBinId,
				MaxBinId:     deposit.Range.MaxBinId,
				StrategyType: m.strategy,
			},
		},
		params.Position,
		pool.Address,
		bitmapExtension,
		userTokenX,
		userTokenY,
		pool.ReserveX,
		pool.ReserveY,
		pool.TokenX.Mint,
		pool.TokenY.Mint,
		binArrayLower,
		binArrayUpper,
		owner,
		pool.TokenX.Program,
		pool.TokenY.Program,
		eventAuthority,
	)
	if err != nil {
		return nil, fmt.Errorf("add liquidity by strategy: %w", err)
	}

	instructions = append(instructions, initPositionIx, addLiquidityIx)
	instructions = append(instructions, postInstructions...)

	return solanago.MergeInstructions(instructions), nil
}

// prepareBinArrays derives the bin arrays covering binRange and returns
// initialize instructions for those that do not exist yet.
func (m *DLMM) prepareBinArrays(ctx context.Context, lbPair solana.PublicKey, binRange BinRange, funder solana.PublicKey) ([]solana.Instruction, solana.PublicKey, solana.PublicKey, error) {
	lowerIndex := BinIdToBinArrayIndex(binRange.MinBinId)
	upperIndex := BinIdToBinArrayIndex(binRange.MaxBinId)

	lower, err := DeriveBinArrayPDA(lbPair, lowerIndex)
	if err != nil {
		return nil, solana.PublicKey{}, solana.PublicKey{}, err
	}
	upper, err := DeriveBinArrayPDA(lbPair, upperIndex)
	if err != nil {
		return nil, solana.PublicKey{}, solana.PublicKey{}, err
	}

	indexes := []int64{lowerIndex}
	keys := []solana.PublicKey{lower}
	if upperIndex != lowerIndex {
		indexes = append(indexes, upperIndex)
		keys = append(keys, upper)
	}

	accounts, err := solanago.GetMultipleAccountInfo(ctx, m.rpcClient, keys, m.commitment)
	if err != nil {
		return nil, solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("get bin arrays: %w", err)
	}

	var instructions []solana.Instruction
	for i, acc := range accounts {
		if acc != nil {
			continue
		}
		ix, err := NewInitializeBinArrayInstruction(indexes[i], lbPair, keys[i], funder)
		if err != nil {
			return nil, solana.PublicKey{}, solana.PublicKey{}, err
		}
		instructions = append(instructions, ix)
	}
	return instructions, lower, upper, nil
}

// BuildPositionTransaction wraps the position instructions in an unsigned v0
// transaction paid by the owner and anchored to the latest finalized
// blockhash.
func (m *DLMM) BuildPositionTransaction(ctx context.Context, params PositionParams) (*solana.Transaction, error) {
	instructions, err := m.InitializePositionAndAddLiquidityByStrategy(ctx, params)
	if err != nil {
		return nil, err
	}

	latestBlockhash, err := solanago.GetLatestBlockhash(ctx, m.rpcClient)
	if err != nil {
		return nil, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, latestBlockhash, solana.TransactionPayer(params.Owner))
	if err != nil {
		return nil, fmt.Errorf("compile message: %w", err)
	}
	tx.Message.SetVersion(solana.MessageVersionV0)
	return tx, nil
}

// CreatePositionTransaction sizes a balanced deposit of amount token X
// around the active bin and builds the unsigned transaction.
func (m *DLMM) CreatePositionTransaction(
	ctx context.Context,
	owner solana.PublicKey,
	position solana.PublicKey,
	pool *PoolState,
	amount string,
	binHalfWidth int32,
) (*PositionTransaction, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	parsed, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	deposit, err := ComputeDeposit(pool, parsed, binHalfWidth)
	if err != nil {
		return nil, err
	}

	tx, err := m.BuildPositionTransaction(ctx, PositionParams{
		Owner:    owner,
		Position: position,
		Pool:     pool,
		Deposit:  deposit,
	})
	if err != nil {
		return nil, err
	}
	return &PositionTransaction{Transaction: tx, Deposit: deposit}, nil
}
