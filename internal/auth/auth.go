// Package auth turns request credentials into a verified identity and picks
// the wallet the server may sign with on the user's behalf.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/krazyTry/lpbot/internal/privy"
)

// CookieName is the cookie the Privy client SDK stores the session token in.
const CookieName = "privy-token"

var (
	ErrMissingToken = errors.New("missing auth token")
	ErrInvalidToken = errors.New("invalid auth token")
)

// Credentials are the raw token sources of one request.
type Credentials struct {
	// Header is the full Authorization header value.
	Header string
	Cookie string
}

// CredentialsFromRequest reads the Authorization header and session cookie.
func CredentialsFromRequest(r *http.Request) Credentials {
	creds := Credentials{Header: r.Header.Get("Authorization")}
	if c, err := r.Cookie(CookieName); err == nil {
		creds.Cookie = c.Value
	}
	return creds
}

// SelectToken returns the session token. The cookie wins when both are set.
func (c Credentials) SelectToken() (string, error) {
	if token := strings.TrimSpace(c.Cookie); token != "" {
		return token, nil
	}
	header := strings.TrimSpace(c.Header)
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		if token := strings.TrimSpace(header[len("Bearer "):]); token != "" {
			return token, nil
		}
	}
	return "", ErrMissingToken
}

// IdentityProvider is the part of the Privy client the verifier needs.
type IdentityProvider interface {
	VerifyAuthToken(ctx context.Context, token string) (*privy.Claims, error)
	GetUserByID(ctx context.Context, userID string) (*privy.User, error)
}

var _ IdentityProvider = (*privy.Client)(nil)

// Identity is a verified session and the user behind it.
type Identity struct {
	Claims *privy.Claims
	User   *privy.User
}

type Verifier struct {
	provider IdentityProvider
}

func NewVerifier(provider IdentityProvider) *Verifier {
	return &Verifier{provider: provider}
}

// Authenticate verifies the request token and loads the user. Without a
// token it fails with ErrMissingToken before contacting the provider; any
// provider failure wraps ErrInvalidToken.
func (v *Verifier) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	token, err := creds.SelectToken()
	if err != nil {
		return nil, err
	}

	claims, err := v.provider.VerifyAuthToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	user, err := v.provider.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user lookup: %w", ErrInvalidToken, err)
	}
	return &Identity{Claims: claims, User: user}, nil
}
