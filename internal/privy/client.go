// Package privy is a small server-side client for the Privy auth and
// wallet APIs: session token verification, user lookup and delegated
// Solana transaction signing.
package privy

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

const (
	DefaultAuthURL = "https://auth.privy.io"
	DefaultAPIURL  = "https://api.privy.io"

	// Issuer is the iss claim of every Privy session token.
	Issuer = "privy.io"

	DefaultJWKSRefreshInterval = time.Minute

	maxResponseBytes = 1 << 20
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIError is a non-2xx answer from a Privy endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("privy: status %d", e.StatusCode)
	}
	return fmt.Sprintf("privy: status %d: %s", e.StatusCode, e.Message)
}

// Client is safe for concurrent use. It is read-only after construction
// apart from the lazily fetched signing keys.
type Client struct {
	appID     string
	appSecret string

	authURL    string
	apiURL     string
	httpClient *http.Client
	leeway     time.Duration

	verificationKey *ecdsa.PublicKey

	jwksMu        sync.Mutex
	jwks          map[string]*ecdsa.PublicKey
	jwksFetchedAt time.Time
	jwksRefresh   time.Duration
}

type Option func(*Client)

func WithAuthURL(u string) Option {
	return func(c *Client) {
		c.authURL = strings.TrimRight(u, "/")
	}
}

func WithAPIURL(u string) Option {
	return func(c *Client) {
		c.apiURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithVerificationKey pins the ES256 key used for session tokens. Without
// it the key set is fetched from the auth service on first use.
func WithVerificationKey(key *ecdsa.PublicKey) Option {
	return func(c *Client) {
		c.verificationKey = key
	}
}

// WithJWKSRefreshInterval bounds how often an unknown kid may trigger a
// refetch of the key set.
func WithJWKSRefreshInterval(d time.Duration) Option {
	return func(c *Client) {
		c.jwksRefresh = d
	}
}

// WithLeeway tolerates clock skew when checking exp, nbf and iat.
func WithLeeway(d time.Duration) Option {
	return func(c *Client) {
		c.leeway = d
	}
}

func NewClient(appID, appSecret string, opts ...Option) *Client {
	c := &Client{
		appID:       appID,
		appSecret:   appSecret,
		authURL:     DefaultAuthURL,
		apiURL:      DefaultAPIURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		jwksRefresh: DefaultJWKSRefreshInterval,
	}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

// ParseVerificationKey reads the PEM encoded key shown in the Privy
// dashboard.
func ParseVerificationKey(pemKey string) (*ecdsa.PublicKey, error) {
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse verification key: %w", err)
	}
	return key, nil
}

func (c *Client) AppID() string {
	return c.appID
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.appID, c.appSecret)
	req.Header.Set("privy-app-id", c.appID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends req once and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = gjson.GetBytes(body, "message").String()
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return body, nil
}
