package dlmm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	solanago "github.com/krazyTry/lpbot/solana"
)

// TokenInfo describes one side of a pair.
type TokenInfo struct {
	Mint     solana.PublicKey `json:"mint"`
	Decimals uint8            `json:"decimals"`
	Program  solana.PublicKey `json:"program"`
}

// PoolState is a per-request snapshot of a pair. It is never cached.
type PoolState struct {
	Address     solana.PublicKey `json:"address"`
	ActiveBinId int32            `json:"activeBinId"`
	BinStep     uint16           `json:"binStep"`
	TokenX      TokenInfo        `json:"tokenX"`
	TokenY      TokenInfo        `json:"tokenY"`
	ReserveX    solana.PublicKey `json:"reserveX"`
	ReserveY    solana.PublicKey `json:"reserveY"`
	// ActivePrice is the price of one whole token X in token Y at the
	// active bin.
	ActivePrice decimal.Decimal `json:"activePrice"`

	// Data service fields, empty when no data client is configured.
	Name        string          `json:"name,omitempty"`
	QuotedPrice decimal.Decimal `json:"quotedPrice"`
	Liquidity   decimal.Decimal `json:"liquidity"`
}

// GetPool reads the pair account and both mints, then optionally the data
// service. No step is retried.
func (m *DLMM) GetPool(ctx context.Context, address solana.PublicKey) (*PoolState, error) {
	acc, err := solanago.GetAccountInfo(ctx, m.rpcClient, address, m.commitment)
	if err != nil {
		return nil, fmt.Errorf("get lb pair %s: %w", address, err)
	}
	if !acc.Owner.Equals(ProgramID) {
		return nil, fmt.Errorf("lb pair %s: %w", address, ErrInvalidOwner)
	}

	pair, err := DecodeLbPair(acc.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("decode lb pair %s: %w", address, err)
	}

	tokens, err := solanago.GetMultipleToken(ctx, m.rpcClient, m.commitment, pair.TokenXMint, pair.TokenYMint)
	if err != nil {
		return nil, fmt.Errorf("get pair mints: %w", err)
	}

	state := NewPoolState(address, pair, tokens[0], tokens[1])

	if m.dataClient == nil {
		return state, nil
	}

	info, err := m.dataClient.GetPair(ctx, address)
	if err != nil {
		return nil, err
	}
	if !info.MintX.Equals(state.TokenX.Mint) || !info.MintY.Equals(state.TokenY.Mint) {
		return nil, fmt.Errorf("%w: data service mints %s/%s do not match on-chain %s/%s",
			ErrMalformedPair, info.MintX, info.MintY, state.TokenX.Mint, state.TokenY.Mint)
	}
	state.Name = info.Name
	state.QuotedPrice = info.CurrentPrice
	state.Liquidity = info.Liquidity
	return state, nil
}

// NewPoolState combines a decoded pair with its mints.
func NewPoolState(address solana.PublicKey, pair *LbPair, tokenX, tokenY *solanago.Token) *PoolState {
	pricePerLamport := GetPriceOfBinByBinId(pair.ActiveId, pair.BinStep)
	return &PoolState{
		Address:     address,
		ActiveBinId: pair.ActiveId,
		BinStep:     pair.BinStep,
		TokenX: TokenInfo{
			Mint:     pair.TokenXMint,
			Decimals: tokenX.Decimals,
			Program:  tokenX.Owner,
		},
		TokenY: TokenInfo{
			Mint:     pair.TokenYMint,
			Decimals: tokenY.Decimals,
			Program:  tokenY.Owner,
		},
		ReserveX:    pair.ReserveX,
		ReserveY:    pair.ReserveY,
		ActivePrice: FromPricePerLamport(pricePerLamport, tokenX.Decimals, tokenY.Decimals),
	}
}
