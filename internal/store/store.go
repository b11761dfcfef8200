// Package store records submitted positions. Only public data is kept: no
// key material and no session tokens.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidInput = errors.New("invalid input")
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Position is one broadcast position transaction.
type Position struct {
	Signature string    `json:"signature"`
	UserID    string    `json:"userId"`
	Wallet    string    `json:"wallet"`
	Pool      string    `json:"pool"`
	Position  string    `json:"position"`
	MinBinID  int32     `json:"minBinId"`
	MaxBinID  int32     `json:"maxBinId"`
	AmountX   uint64    `json:"amountX,string"`
	AmountY   uint64    `json:"amountY,string"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate reports ErrInvalidInput for records missing their keys.
func Validate(p *Position) error {
	if p == nil || p.Signature == "" || p.UserID == "" {
		return ErrInvalidInput
	}
	return nil
}

// PositionStore is safe for concurrent use.
type PositionStore interface {
	// Insert adds a record. Returns ErrDuplicateKey if the signature exists.
	Insert(ctx context.Context, p *Position) error

	// UpdateStatus sets the status and error text. Returns ErrNotFound if the
	// signature is unknown.
	UpdateStatus(ctx context.Context, signature string, status Status, errText string) error

	// GetBySignature returns ErrNotFound if the signature is unknown.
	GetBySignature(ctx context.Context, signature string) (*Position, error)

	// ListByUser returns at most limit records, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Position, error)
}
