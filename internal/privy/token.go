package privy

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
)

var (
	ErrInvalidToken = errors.New("invalid auth token")
	ErrUnknownKey   = errors.New("no verification key for token")
)

// Claims are the verified contents of a session token.
type Claims struct {
	AppID      string `json:"appId"`
	Issuer     string `json:"issuer"`
	IssuedAt   int64  `json:"issuedAt"`
	Expiration int64  `json:"expiration"`
	SessionID  string `json:"sessionId"`
	UserID     string `json:"userId"`
}

type tokenClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// VerifyAuthToken checks the ES256 signature, issuer, audience and expiry of
// a session token. Every failure wraps ErrInvalidToken.
func (c *Client) VerifyAuthToken(ctx context.Context, raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(c.appID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.leeway),
	)

	claims := &tokenClaims{}
	_, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		return c.signingKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	out := &Claims{
		AppID:     c.appID,
		Issuer:    claims.Issuer,
		SessionID: claims.SessionID,
		UserID:    claims.Subject,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.Expiration = claims.ExpiresAt.Unix()
	}
	return out, nil
}

func (c *Client) signingKey(ctx context.Context, kid string) (*ecdsa.PublicKey, error) {
	if c.verificationKey != nil {
		return c.verificationKey, nil
	}

	c.jwksMu.Lock()
	defer c.jwksMu.Unlock()

	if c.jwks == nil {
		if err := c.refreshJWKS(ctx); err != nil {
			return nil, err
		}
	}
	if key := c.lookupKey(kid); key != nil {
		return key, nil
	}

	// A kid we have not seen usually means the keys were rotated.
	if kid != "" && time.Since(c.jwksFetchedAt) >= c.jwksRefresh {
		if err := c.refreshJWKS(ctx); err != nil {
			return nil, err
		}
		if key := c.lookupKey(kid); key != nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
}

// refreshJWKS must be called with jwksMu held. Failed attempts count toward
// the refresh interval too.
func (c *Client) refreshJWKS(ctx context.Context) error {
	c.jwksFetchedAt = time.Now()
	keys, err := c.fetchJWKS(ctx)
	if err != nil {
		return err
	}
	c.jwks = keys
	return nil
}

func (c *Client) lookupKey(kid string) *ecdsa.PublicKey {
	if key, ok := c.jwks[kid]; ok {
		return key
	}
	if kid == "" && len(c.jwks) == 1 {
		for _, key := range c.jwks {
			return key
		}
	}
	return nil
}

func (c *Client) jwksURL() string {
	return c.authURL + "/api/v1/apps/" + c.appID + "/jwks.json"
}

/*
	{
		"keys": [
			{"kty": "EC", "crv": "P-256", "kid": "...", "x": "...", "y": "...", "alg": "ES256", "use": "sig"}
		]
	}
*/
func (c *Client) fetchJWKS(ctx context.Context) (map[string]*ecdsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	return parseJWKS(body)
}

func parseJWKS(body []byte) (map[string]*ecdsa.PublicKey, error) {
	keys := make(map[string]*ecdsa.PublicKey)
	for _, k := range gjson.GetBytes(body, "keys").Array() {
		if k.Get("kty").String() != "EC" || k.Get("crv").String() != "P-256" {
			continue
		}
		key, err := ecKey(k.Get("x").String(), k.Get("y").String())
		if err != nil {
			return nil, fmt.Errorf("jwks key %q: %w", k.Get("kid").String(), err)
		}
		keys[k.Get("kid").String()] = key
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks has no P-256 keys")
	}
	return keys, nil
}

func ecKey(x, y string) (*ecdsa.PublicKey, error) {
	xb, err := base64.RawURLEncoding.DecodeString(x)
	if err != nil {
		return nil, fmt.Errorf("x: %w", err)
	}
	yb, err := base64.RawURLEncoding.DecodeString(y)
	if err != nil {
		return nil, fmt.Errorf("y: %w", err)
	}
	key := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xb),
		Y:     new(big.Int).SetBytes(yb),
	}
	if !key.Curve.IsOnCurve(key.X, key.Y) {
		return nil, errors.New("point is not on P-256")
	}
	return key, nil
}
