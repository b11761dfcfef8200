package privy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

var ErrEmptySignedTransaction = errors.New("wallet rpc returned no signed transaction")

type walletRPCRequest struct {
	Address   string          `json:"address"`
	ChainType string          `json:"chain_type"`
	Method    string          `json:"method"`
	Params    walletRPCParams `json:"params"`
}

type walletRPCParams struct {
	Transaction string `json:"transaction"`
	Encoding    string `json:"encoding"`
}

// SignSolanaTransaction asks Privy to sign a base64 encoded transaction with
// the delegated wallet at address and returns the signed transaction, also
// base64. The request is sent once.
func (c *Client) SignSolanaTransaction(ctx context.Context, address string, transaction string) (string, error) {
	payload, err := json.Marshal(walletRPCRequest{
		Address:   address,
		ChainType: "solana",
		Method:    "signTransaction",
		Params: walletRPCParams{
			Transaction: transaction,
			Encoding:    "base64",
		},
	})
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.apiURL+"/v1/wallets/rpc", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	signed := gjson.GetBytes(body, "data.signed_transaction").String()
	if signed == "" {
		return "", ErrEmptySignedTransaction
	}
	return signed, nil
}
