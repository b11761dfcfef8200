package dlmm

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	solanago "github.com/krazyTry/lpbot/solana"
)

var eventAuthority solana.PublicKey

// init derives the program event authority shared by every instruction.
func init() {
	var err error
	eventAuthority, err = DeriveEventAuthorityPDA()
	if err != nil {
		panic(err)
	}
}

// DLMM reads pairs and builds position transactions for the Meteora DLMM
// program.
type DLMM struct {
	rpcClient  solanago.RPC
	dataClient *DataClient
	commitment rpc.CommitmentType

	computeUnitLimit     uint32
	computeUnitPrice     uint64
	maxActiveBinSlippage int32
	strategy             StrategyType
}

func NewDLMM(
	rpcClient solanago.RPC,
	opts ...Option,
) *DLMM {
	o := &DLMM{
		rpcClient:            rpcClient,
		commitment:           rpc.CommitmentConfirmed,
		computeUnitLimit:     DefaultComputeUnitLimit,
		maxActiveBinSlippage: DefaultMaxActiveBinSlippage,
		strategy:             StrategyTypeSpotBalanced,
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

type Option func(*DLMM)

// WithDataClient enriches pool lookups with the public data service.
func WithDataClient(dataClient *DataClient) Option {
	return func(m *DLMM) {
		m.dataClient = dataClient
	}
}

// WithCommitment sets the commitment used for account reads.
func WithCommitment(commitment rpc.CommitmentType) Option {
	return func(m *DLMM) {
		m.commitment = commitment
	}
}

// WithComputeBudget prepends compute budget instructions. Zero values are
// left out of the transaction.
func WithComputeBudget(unitLimit uint32, microLamportsPerUnit uint64) Option {
	return func(m *DLMM) {
		m.computeUnitLimit = unitLimit
		m.computeUnitPrice = microLamportsPerUnit
	}
}

func WithMaxActiveBinSlippage(bins int32) Option {
	return func(m *DLMM) {
		m.maxActiveBinSlippage = bins
	}
}

func WithStrategy(strategy StrategyType) Option {
	return func(m *DLMM) {
		m.strategy = strategy
	}
}
