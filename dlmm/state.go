package dlmm

import (
	"bytes"
	"errors"
	"fmt"

	binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidDiscriminator = errors.New("account discriminator mismatch")
	ErrInvalidOwner         = errors.New("account is not owned by the dlmm program")
)

// StaticParameters are the fee parameters fixed at pair creation
type StaticParameters struct {
	BaseFactor               uint16
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	VariableFeeControl       uint32
	MaxVolatilityAccumulator uint32
	MinBinId                 int32
	MaxBinId                 int32
	ProtocolShare            uint16
	BaseFeePowerFactor       uint8
	Padding                  [5]uint8
}

// VariableParameters change with every swap
type VariableParameters struct {
	VolatilityAccumulator uint32
	VolatilityReference   uint32
	IndexReference        int32
	Padding               [4]uint8
	LastUpdateTimestamp   int64
	Padding1              [8]uint8
}

type ProtocolFee struct {
	AmountX uint64
	AmountY uint64
}

type RewardInfo struct {
	Mint                                      solana.PublicKey
	Vault                                     solana.PublicKey
	Funder                                    solana.PublicKey
	RewardDuration                            uint64
	RewardDurationEnd                         uint64
	RewardRate                                [16]uint8 // u128
	LastUpdateTime                            uint64
	CumulativeSecondsWithEmptyLiquidityReward uint64
}

// LbPair is the on-chain layout of a DLMM pair account (904 bytes).
type LbPair struct {
	Discriminator            [8]uint8
	Parameters               StaticParameters
	VParameters              VariableParameters
	BumpSeed                 [1]uint8
	BinStepSeed              [2]uint8
	PairType                 uint8
	ActiveId                 int32
	BinStep                  uint16
	Status                   uint8
	RequireBaseFactorSeed    uint8
	BaseFactorSeed           [2]uint8
	ActivationType           uint8
	CreatorPoolOnOffControl  uint8
	TokenXMint               solana.PublicKey
	TokenYMint               solana.PublicKey
	ReserveX                 solana.PublicKey
	ReserveY                 solana.PublicKey
	ProtocolFee              ProtocolFee
	Padding1                 [32]uint8
	RewardInfos              [2]RewardInfo
	Oracle                   solana.PublicKey
	BinArrayBitmap           [16]uint64
	LastUpdatedAt            int64
	Padding2                 [32]uint8
	PreActivationSwapAddress solana.PublicKey
	BaseKey                  solana.PublicKey
	ActivationPoint          uint64
	PreActivationDuration    uint64
	Padding3                 [8]uint8
	Padding4                 uint64
	Creator                  solana.PublicKey
	TokenMintXProgramFlag    uint8
	TokenMintYProgramFlag    uint8
	Reserved                 [22]uint8
}

// LbPairSize is the serialized size of LbPair including the discriminator.
const LbPairSize = 904

// DecodeLbPair checks the anchor discriminator and decodes the pair layout.
func DecodeLbPair(data []byte) (*LbPair, error) {
	if len(data) < LbPairSize {
		return nil, fmt.Errorf("lb pair data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], lbPairDiscriminator[:]) {
		return nil, ErrInvalidDiscriminator
	}

	pair := &LbPair{}
	if err := binary.NewBorshDecoder(data).Decode(pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// EncodeLbPair serializes pair, used to build fixtures.
func EncodeLbPair(pair *LbPair) ([]byte, error) {
	buf := new(bytes.Buffer)
	out := *pair
	out.Discriminator = lbPairDiscriminator
	if err := binary.NewBorshEncoder(buf).Encode(&out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
