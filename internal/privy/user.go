package privy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

var ErrMalformedUser = errors.New("malformed user response")

// LinkedAccount is one login method or wallet attached to a user.
type LinkedAccount struct {
	Type             string `json:"type"`
	Address          string `json:"address,omitempty"`
	ChainType        string `json:"chainType,omitempty"`
	WalletClientType string `json:"walletClientType,omitempty"`
	ConnectorType    string `json:"connectorType,omitempty"`
	Delegated        bool   `json:"delegated"`
}

type User struct {
	ID             string          `json:"id"`
	CreatedAt      int64           `json:"createdAt"`
	LinkedAccounts []LinkedAccount `json:"linkedAccounts"`
}

// GetUserByID fetches the user profile with its linked accounts.
func (c *Client) GetUserByID(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrMalformedUser)
	}
	req, err := c.newRequest(ctx, http.MethodGet, c.authURL+"/api/v1/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return parseUser(body)
}

/*
	{
		"id": "did:privy:cm...",
		"created_at": 1731000000,
		"linked_accounts": [
			{"type": "email", "address": "a@b.c"},
			{"type": "wallet", "address": "7xKX...", "chain_type": "solana",
			 "wallet_client_type": "privy", "connector_type": "embedded", "delegated": true}
		]
	}
*/
func parseUser(body []byte) (*User, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedUser)
	}
	doc := gjson.ParseBytes(body)

	user := &User{
		ID:        doc.Get("id").String(),
		CreatedAt: doc.Get("created_at").Int(),
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedUser)
	}

	for _, a := range doc.Get("linked_accounts").Array() {
		user.LinkedAccounts = append(user.LinkedAccounts, LinkedAccount{
			Type:             a.Get("type").String(),
			Address:          a.Get("address").String(),
			ChainType:        a.Get("chain_type").String(),
			WalletClientType: a.Get("wallet_client_type").String(),
			ConnectorType:    a.Get("connector_type").String(),
			Delegated:        a.Get("delegated").Bool(),
		})
	}
	return user, nil
}
