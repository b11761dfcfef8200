package dlmm

import (
	"bytes"

	binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// StrategyType selects how liquidity is spread over the bin range.
type StrategyType uint8

const (
	StrategyTypeSpotOneSide StrategyType = iota
	StrategyTypeCurveOneSide
	StrategyTypeBidAskOneSide
	// StrategyTypeSpotBalanced deposits both tokens evenly around the active bin.
	StrategyTypeSpotBalanced
	StrategyTypeCurveBalanced
	StrategyTypeBidAskBalanced
	StrategyTypeSpotImBalanced
	StrategyTypeCurveImBalanced
	StrategyTypeBidAskImBalanced
)

func (s StrategyType) String() string {
	switch s {
	case StrategyTypeSpotOneSide:
		return "SpotOneSide"
	case StrategyTypeCurveOneSide:
		return "CurveOneSide"
	case StrategyTypeBidAskOneSide:
		return "BidAskOneSide"
	case StrategyTypeSpotBalanced:
		return "SpotBalanced"
	case StrategyTypeCurveBalanced:
		return "CurveBalanced"
	case StrategyTypeBidAskBalanced:
		return "BidAskBalanced"
	case StrategyTypeSpotImBalanced:
		return "SpotImBalanced"
	case StrategyTypeCurveImBalanced:
		return "CurveImBalanced"
	case StrategyTypeBidAskImBalanced:
		return "BidAskImBalanced"
	default:
		return "Unknown"
	}
}

type StrategyParameters struct {
	MinBinId     int32
	MaxBinId     int32
	StrategyType StrategyType
	Parameteres  [64]uint8
}

type LiquidityParameterByStrategy struct {
	AmountX              uint64
	AmountY              uint64
	ActiveId             int32
	MaxActiveBinSlippage int32
	StrategyParameters   StrategyParameters
}

type initializePositionArgs struct {
	LowerBinId int32
	Width      int32
}

type initializeBinArrayArgs struct {
	Index int64
}

func encodeInstructionData(discriminator [8]byte, args any) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator[:])
	if err := binary.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewInitializePositionInstruction opens an empty position of width bins
// starting at lowerBinId. Both payer and position must sign.
func NewInitializePositionInstruction(
	lowerBinId int32,
	width int32,
	payer solana.PublicKey,
	position solana.PublicKey,
	lbPair solana.PublicKey,
	owner solana.PublicKey,
	eventAuthority solana.PublicKey,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(initializePositionDiscriminator, initializePositionArgs{
		LowerBinId: lowerBinId,
		Width:      width,
	})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(position).WRITE().SIGNER(),
		solana.Meta(lbPair),
		solana.Meta(owner).SIGNER(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(eventAuthority),
		solana.Meta(ProgramID),
	}, data), nil
}

func NewInitializeBinArrayInstruction(
	index int64,
	lbPair solana.PublicKey,
	binArray solana.PublicKey,
	funder solana.PublicKey,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(initializeBinArrayDiscriminator, initializeBinArrayArgs{Index: index})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.Meta(lbPair),
		solana.Meta(binArray).WRITE(),
		solana.Meta(funder).WRITE().SIGNER(),
		solana.Meta(solana.SystemProgramID),
	}, data), nil
}

// NewAddLiquidityByStrategyInstruction deposits into an existing position.
// A nil bitmapExtension is passed as the program id, the anchor encoding of
// an absent optional account.
func NewAddLiquidityByStrategyInstruction(
	params LiquidityParameterByStrategy,
	position solana.PublicKey,
	lbPair solana.PublicKey,
	bitmapExtension *solana.PublicKey,
	userTokenX solana.PublicKey,
	userTokenY solana.PublicKey,
	reserveX solana.PublicKey,
	reserveY solana.PublicKey,
	tokenXMint solana.PublicKey,
	tokenYMint solana.PublicKey,
	binArrayLower solana.PublicKey,
	binArrayUpper solana.PublicKey,
	sender solana.PublicKey,
	tokenXProgram solana.PublicKey,
	tokenYProgram solana.PublicKey,
	eventAuthority solana.PublicKey,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(addLiquidityByStrategyDiscriminator, params)
	if err != nil {
		return nil, err
	}

	extension := solana.Meta(ProgramID)
	if bitmapExtension != nil {
		extension = solana.Meta(*bitmapExtension).WRITE()
	}

	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.Meta(position).WRITE(),
		solana.Meta(lbPair).WRITE(),
		extension,
		solana.Meta(userTokenX).WRITE(),
		solana.Meta(userTokenY).WRITE(),
		solana.Meta(reserveX).WRITE(),
		solana.Meta(reserveY).WRITE(),
		solana.Meta(tokenXMint),
		solana.Meta(tokenYMint),
		solana.Meta(binArrayLower).WRITE(),
		solana.Meta(binArrayUpper).WRITE(),
		solana.Meta(sender).SIGNER(),
		solana.Meta(tokenXProgram),
		solana.Meta(tokenYProgram),
		solana.Meta(eventAuthority),
		solana.Meta(ProgramID),
	}, data), nil
}
