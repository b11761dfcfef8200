package dlmm

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	solanago "github.com/krazyTry/lpbot/solana"
)

// ProgramID is the Meteora DLMM (lb_clmm) program on mainnet-beta.
var ProgramID = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")

const (
	// MaxBinPerArray is the number of bins stored in one bin array account.
	MaxBinPerArray = 70
	// MaxBinPerPosition is the widest range a single position may hold.
	MaxBinPerPosition = 70
	// BinArrayBitmapSize bounds the bin array indexes tracked by the pair
	// itself; indexes outside [-BinArrayBitmapSize, BinArrayBitmapSize-1]
	// need the bitmap extension account.
	BinArrayBitmapSize = 512

	// DefaultBinHalfWidth places 34 bins on each side of the active bin,
	// 69 bins in total.
	DefaultBinHalfWidth = 34
	// MaxBinHalfWidth keeps 2*w+1 within MaxBinPerPosition.
	MaxBinHalfWidth = (MaxBinPerPosition - 1) / 2

	// DefaultMaxActiveBinSlippage is how far the active bin may move between
	// building and landing the transaction.
	DefaultMaxActiveBinSlippage = 3

	// DefaultComputeUnitLimit covers position init, bin array init and a
	// 69 bin deposit.
	DefaultComputeUnitLimit = 400_000
)

// Account key constants for DLMM account types
var (
	AccountKeyLbPair   = "LbPair"
	AccountKeyBinArray = "BinArray"
	AccountKeyPosition = "PositionV2"
)

var (
	lbPairDiscriminator = solanago.AccountDiscriminator(AccountKeyLbPair)

	initializePositionDiscriminator     = solanago.InstructionDiscriminator("initialize_position")
	initializeBinArrayDiscriminator     = solanago.InstructionDiscriminator("initialize_bin_array")
	addLiquidityByStrategyDiscriminator = solanago.InstructionDiscriminator("add_liquidity_by_strategy")
)

// Common decimal constants
var (
	N1              = decimal.NewFromInt(1)
	N10             = decimal.NewFromInt(10)
	BASIS_POINT_MAX = decimal.NewFromInt(10_000)
)
