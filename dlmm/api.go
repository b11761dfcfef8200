package dlmm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// DefaultDataAPIURL is Meteora's public DLMM data service.
const DefaultDataAPIURL = "https://dlmm-api.meteora.ag"

const maxPairResponseBytes = 1 << 20

var ErrMalformedPair = errors.New("malformed pair response")

// DataClient reads pair metadata from the DLMM data service.
type DataClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewDataClient(baseURL string, httpClient *http.Client) *DataClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &DataClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// PairInfo is the subset of the data service pair document we use.
type PairInfo struct {
	Address      solana.PublicKey `json:"address"`
	Name         string           `json:"name"`
	MintX        solana.PublicKey `json:"mintX"`
	MintY        solana.PublicKey `json:"mintY"`
	BinStep      uint16           `json:"binStep"`
	CurrentPrice decimal.Decimal  `json:"currentPrice"`
	Liquidity    decimal.Decimal  `json:"liquidity"`
}

// GetPair fetches /pair/<address>. It is a single attempt.
func (c *DataClient) GetPair(ctx context.Context, address solana.PublicKey) (*PairInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pair/"+address.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get pair: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPairResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read pair: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get pair: unexpected status %d", resp.StatusCode)
	}

	info, err := parsePair(body)
	if err != nil {
		return nil, err
	}
	if !info.Address.Equals(address) {
		return nil, fmt.Errorf("%w: got pair %s for %s", ErrMalformedPair, info.Address, address)
	}
	return info, nil
}

/*
	{
		"address": "BVRbyLjjfSBcoyiYFuxbgKYnWuiFaF9CSXEa5vdSZ9Hh",
		"name": "SOL-USDC",
		"mint_x": "So11111111111111111111111111111111111111112",
		"mint_y": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"bin_step": 20,
		"current_price": 171.23,
		"liquidity": "1234567.89",
		...
	}
*/
func parsePair(body []byte) (*PairInfo, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedPair)
	}
	doc := gjson.ParseBytes(body)

	address, err := pubkeyField(doc, "address")
	if err != nil {
		return nil, err
	}
	mintX, err := pubkeyField(doc, "mint_x")
	if err != nil {
		return nil, err
	}
	mintY, err := pubkeyField(doc, "mint_y")
	if err != nil {
		return nil, err
	}

	binStep := doc.Get("bin_step")
	if !binStep.Exists() || binStep.Uint() == 0 || binStep.Uint() > 0xffff {
		return nil, fmt.Errorf("%w: bin_step", ErrMalformedPair)
	}

	info := &PairInfo{
		Address: address,
		Name:    doc.Get("name").String(),
		MintX:   mintX,
		MintY:   mintY,
		BinStep: uint16(binStep.Uint()),
	}
	if info.CurrentPrice, err = decimalField(doc, "current_price"); err != nil {
		return nil, err
	}
	if info.Liquidity, err = decimalField(doc, "liquidity"); err != nil {
		return nil, err
	}
	return info, nil
}

func pubkeyField(doc gjson.Result, path string) (solana.PublicKey, error) {
	raw := doc.Get(path).String()
	if raw == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: missing %s", ErrMalformedPair, path)
	}
	pk, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s: %v", ErrMalformedPair, path, err)
	}
	return pk, nil
}

// decimalField accepts numbers and numeric strings; a missing field is zero.
func decimalField(doc gjson.Result, path string) (decimal.Decimal, error) {
	v := doc.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return decimal.Zero, nil
	}
	raw := v.String()
	if v.Type == gjson.Number {
		raw = v.Raw
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrMalformedPair, path, err)
	}
	return d, nil
}
