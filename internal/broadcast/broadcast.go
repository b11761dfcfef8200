// Package broadcast submits signed transactions and optionally waits for
// them to land. Nothing here ever resubmits a transaction.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	solanago "github.com/krazyTry/lpbot/solana"
)

const DefaultPollInterval = 2 * time.Second

var (
	ErrTransactionFailed  = errors.New("transaction failed on chain")
	ErrTransactionUnknown = errors.New("transaction not found")

	errPending = errors.New("pending")
)

// SignatureSubscriber opens a signature notification stream.
type SignatureSubscriber interface {
	SubscribeSignature(sig solana.Signature, commitment rpc.CommitmentType) (SignatureSubscription, error)
}

type SignatureSubscription interface {
	Recv(ctx context.Context) (*ws.SignatureResult, error)
	Unsubscribe()
}

type wsSubscriber struct {
	client *ws.Client
}

func (s wsSubscriber) SubscribeSignature(sig solana.Signature, commitment rpc.CommitmentType) (SignatureSubscription, error) {
	sub, err := s.client.SignatureSubscribe(sig, commitment)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

type Broadcaster struct {
	rpcClient    solanago.RPC
	subscriber   SignatureSubscriber
	pollInterval time.Duration
	logger       *zap.Logger
}

type Option func(*Broadcaster)

// WithWSClient confirms through a signature subscription instead of polling.
func WithWSClient(wsClient *ws.Client) Option {
	return WithSignatureSubscriber(wsSubscriber{client: wsClient})
}

func WithSignatureSubscriber(subscriber SignatureSubscriber) Option {
	return func(b *Broadcaster) {
		b.subscriber = subscriber
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(b *Broadcaster) {
		b.pollInterval = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(b *Broadcaster) {
		b.logger = logger
	}
}

func New(rpcClient solanago.RPC, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		rpcClient:    rpcClient,
		pollInterval: DefaultPollInterval,
		logger:       zap.NewNop(),
	}
	for _, fn := range opts {
		fn(b)
	}
	return b
}

// Send submits tx once with preflight at confirmed commitment. The returned
// signature only means the node accepted the transaction.
func (b *Broadcaster) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := b.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	b.logger.Debug("transaction accepted", zap.Stringer("signature", sig))
	return sig, nil
}

// Confirm waits until sig reaches confirmed commitment or ctx ends.
func (b *Broadcaster) Confirm(ctx context.Context, sig solana.Signature) error {
	if b.subscriber != nil {
		return b.confirmWS(ctx, sig)
	}
	return b.confirmPoll(ctx, sig)
}

func (b *Broadcaster) confirmWS(ctx context.Context, sig solana.Signature) error {
	if err := b.checkStatus(ctx, sig, false); !errors.Is(err, errPending) {
		return err
	}

	sub, err := b.subscriber.SubscribeSignature(sig, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("subscribe signature: %w", err)
	}
	defer sub.Unsubscribe()

	res, err := sub.Recv(ctx)
	if err != nil && !errors.Is(err, ws.ErrSubscriptionClosed) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("wait for confirmation: %w", err)
	}
	if res == nil {
		// closed without a notification
		return b.checkStatus(ctx, sig, true)
	}
	if res.Value.Err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, res.Value.Err)
	}
	return nil
}

func (b *Broadcaster) confirmPoll(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		err := b.checkStatus(ctx, sig, false)
		if !errors.Is(err, errPending) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// checkStatus returns nil once sig is confirmed or finalized. With final set
// an unseen signature is ErrTransactionUnknown rather than pending.
func (b *Broadcaster) checkStatus(ctx context.Context, sig solana.Signature, final bool) error {
	out, err := b.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return fmt.Errorf("get signature status: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		if final {
			return ErrTransactionUnknown
		}
		return errPending
	}

	status := out.Value[0]
	if status.Err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return nil
	}
	if final {
		return ErrTransactionUnknown
	}
	return errPending
}
