// Package pipeline runs the authenticated position and transfer flows:
// Auth, Wallet, Pool, Build, Sign, Broadcast and optionally Confirm. Each
// stage runs under its own deadline and fails with a tagged *Error.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/krazyTry/lpbot/dlmm"
	"github.com/krazyTry/lpbot/internal/auth"
	"github.com/krazyTry/lpbot/internal/broadcast"
	"github.com/krazyTry/lpbot/internal/observability"
	"github.com/krazyTry/lpbot/internal/privy"
	"github.com/krazyTry/lpbot/internal/store"
)

const DefaultStageTimeout = 20 * time.Second

// Stage names one step of a flow.
type Stage string

const (
	StageAuth      Stage = "auth"
	StageWallet    Stage = "wallet"
	StagePool      Stage = "pool"
	StageBuild     Stage = "build"
	StageSign      Stage = "sign"
	StageBroadcast Stage = "broadcast"
	StageConfirm   Stage = "confirm"
)

// Result statuses.
const (
	StatusAccepted  = "accepted"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Identity, error)
}

type PoolReader interface {
	GetPool(ctx context.Context, address solana.PublicKey) (*dlmm.PoolState, error)
}

type PositionBuilder interface {
	CreatePositionTransaction(ctx context.Context, owner, position solana.PublicKey, pool *dlmm.PoolState, amount string, binHalfWidth int32) (*dlmm.PositionTransaction, error)
}

type TransactionSigner interface {
	Sign(ctx context.Context, tx *solana.Transaction, wallet solana.PublicKey, cosigners ...solana.PrivateKey) (*solana.Transaction, error)
}

type Broadcaster interface {
	Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	Confirm(ctx context.Context, sig solana.Signature) error
}

type TransferBuilder interface {
	Destination() solana.PublicKey
	Lamports() uint64
	Build(ctx context.Context, wallet solana.PublicKey) (*solana.Transaction, error)
}

// Deps are the collaborators every flow needs.
type Deps struct {
	Auth        Authenticator
	Pools       PoolReader
	Positions   PositionBuilder
	Signer      TransactionSigner
	Broadcaster Broadcaster
}

type Pipeline struct {
	Deps

	transfer TransferBuilder
	store    store.PositionStore
	metrics  *observability.Metrics
	logger   *zap.Logger

	defaultPool   solana.PublicKey
	defaultAmount string
	binHalfWidth  int32
	stageTimeout  time.Duration
	confirm       bool

	newPositionKey func() (solana.PrivateKey, error)
}

type Option func(*Pipeline)

// WithDefaults sets the pool and amount used when a request leaves them out.
func WithDefaults(pool solana.PublicKey, amount string, binHalfWidth int32) Option {
	return func(p *Pipeline) {
		p.defaultPool = pool
		p.defaultAmount = amount
		p.binHalfWidth = binHalfWidth
	}
}

// WithTransfer enables the SOL transfer flow.
func WithTransfer(builder TransferBuilder) Option {
	return func(p *Pipeline) {
		p.transfer = builder
	}
}

// WithStore records every broadcast position.
func WithStore(s store.PositionStore) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.stageTimeout = d
		}
	}
}

// WithConfirm makes flows wait for confirmation after broadcast.
func WithConfirm(confirm bool) Option {
	return func(p *Pipeline) {
		p.confirm = confirm
	}
}

// WithPositionKeyGenerator replaces the random position keypair source.
func WithPositionKeyGenerator(fn func() (solana.PrivateKey, error)) Option {
	return func(p *Pipeline) {
		p.newPositionKey = fn
	}
}

func New(deps Deps, opts ...Option) *Pipeline {
	p := &Pipeline{
		Deps:           deps,
		logger:         zap.NewNop(),
		binHalfWidth:   dlmm.MaxBinHalfWidth,
		stageTimeout:   DefaultStageTimeout,
		newPositionKey: solana.NewRandomPrivateKey,
	}
	for _, fn := range opts {
		fn(p)
	}
	return p
}

// TransferEnabled reports whether a transfer builder is configured.
func (p *Pipeline) TransferEnabled() bool {
	return p.transfer != nil
}

// PositionRequest opens a position. Empty Pool and Amount use the defaults.
type PositionRequest struct {
	Credentials auth.Credentials
	Pool        string
	Amount      string
}

type PositionResult struct {
	Claims    *privy.Claims
	Wallet    solana.PublicKey
	Pool      *dlmm.PoolState
	Position  solana.PublicKey
	Deposit   *dlmm.Deposit
	Signature solana.Signature
	Status    string
}

type TransferResult struct {
	Claims      *privy.Claims
	Wallet      solana.PublicKey
	Destination solana.PublicKey
	Lamports    uint64
	Signature   solana.Signature
	Status      string
}

// Identify runs only the auth stage.
func (p *Pipeline) Identify(ctx context.Context, creds auth.Credentials) (*auth.Identity, error) {
	var identity *auth.Identity
	err := p.run(ctx, StageAuth, KindInvalidToken, func(ctx context.Context) error {
		var err error
		identity, err = p.Auth.Authenticate(ctx, creds)
		if errors.Is(err, auth.ErrMissingToken) {
			return newError(KindMissingToken, err)
		}
		return err
	})
	return identity, err
}

// OpenPosition opens a spot-balanced position with the caller's delegated
// wallet. The transaction is broadcast once and never resubmitted.
func (p *Pipeline) OpenPosition(ctx context.Context, req PositionRequest) (result *PositionResult, err error) {
	logger := p.requestLogger(ctx).With(zap.String("flow", "position"))
	defer func() { p.finish(logger, "position", err) }()

	poolAddress, amount, err := p.positionInput(req)
	if err != nil {
		// Credentials are checked before request fields.
		if _, authErr := p.Identify(ctx, req.Credentials); authErr != nil {
			return nil, authErr
		}
		return nil, err
	}

	identity, err := p.Identify(ctx, req.Credentials)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("user_id", identity.Claims.UserID))

	wallet, err := p.resolveWallet(ctx, identity)
	if err != nil {
		return nil, err
	}

	var pool *dlmm.PoolState
	err = p.run(ctx, StagePool, KindPoolLookupFailed, func(ctx context.Context) error {
		pool, err = p.Pools.GetPool(ctx, poolAddress)
		return err
	})
	if err != nil {
		return nil, err
	}

	var (
		positionKey solana.PrivateKey
		built       *dlmm.PositionTransaction
	)
	err = p.run(ctx, StageBuild, KindTransactionBuildFailed, func(ctx context.Context) error {
		positionKey, err = p.newPositionKey()
		if err != nil {
			return fmt.Errorf("generate position key: %w", err)
		}
		built, err = p.Positions.CreatePositionTransaction(ctx, wallet, positionKey.PublicKey(), pool, amount, p.binHalfWidth)
		if isRequestError(err) {
			return newError(KindInvalidRequest, err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	result = &PositionResult{
		Claims:   identity.Claims,
		Wallet:   wallet,
		Pool:     pool,
		Position: positionKey.PublicKey(),
		Deposit:  built.Deposit,
	}
	logger = logger.With(
		zap.Stringer("wallet", wallet),
		zap.Stringer("pool", pool.Address),
		zap.Stringer("position", result.Position),
		zap.Int32("minBinId", built.Deposit.Range.MinBinId),
		zap.Int32("maxBinId", built.Deposit.Range.MaxBinId),
		zap.Uint64("amountX", built.Deposit.TotalXAmount),
		zap.Uint64("amountY", built.Deposit.TotalYAmount),
	)

	signed, err := p.sign(ctx, built.Transaction, wallet, positionKey)
	if err != nil {
		return nil, err
	}

	result.Signature, err = p.broadcast(ctx, signed)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.Stringer("signature", result.Signature))
	logger.Info("position transaction submitted")
	p.metrics.RecordDeposit(pool.Address.String(), built.Deposit.TotalXAmount, built.Deposit.TotalYAmount)

	p.record(ctx, logger, &store.Position{
		Signature: result.Signature.String(),
		UserID:    identity.Claims.UserID,
		Wallet:    wallet.String(),
		Pool:      pool.Address.String(),
		Position:  result.Position.String(),
		MinBinID:  built.Deposit.Range.MinBinId,
		MaxBinID:  built.Deposit.Range.MaxBinId,
		AmountX:   built.Deposit.TotalXAmount,
		AmountY:   built.Deposit.TotalYAmount,
		Status:    store.StatusSubmitted,
	})

	result.Status = p.confirmSignature(ctx, logger, result.Signature, true)
	return result, nil
}

// Transfer sends the configured lamports from the caller's delegated wallet.
func (p *Pipeline) Transfer(ctx context.Context, creds auth.Credentials) (result *TransferResult, err error) {
	logger := p.requestLogger(ctx).With(zap.String("flow", "transfer"))
	defer func() { p.finish(logger, "transfer", err) }()

	if p.transfer == nil {
		return nil, &Error{Kind: KindInvalidRequest, Stage: StageBuild, Err: errors.New("transfer flow is not configured")}
	}

	identity, err := p.Identify(ctx, creds)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("user_id", identity.Claims.UserID))

	wallet, err := p.resolveWallet(ctx, identity)
	if err != nil {
		return nil, err
	}

	var tx *solana.Transaction
	err = p.run(ctx, StageBuild, KindTransactionBuildFailed, func(ctx context.Context) error {
		tx, err = p.transfer.Build(ctx, wallet)
		return err
	})
	if err != nil {
		return nil, err
	}

	signed, err := p.sign(ctx, tx, wallet)
	if err != nil {
		return nil, err
	}

	result = &TransferResult{
		Claims:      identity.Claims,
		Wallet:      wallet,
		Destination: p.transfer.Destination(),
		Lamports:    p.transfer.Lamports(),
	}
	result.Signature, err = p.broadcast(ctx, signed)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.Stringer("wallet", wallet), zap.Stringer("signature", result.Signature))
	logger.Info("transfer transaction submitted")

	result.Status = p.confirmSignature(ctx, logger, result.Signature, false)
	return result, nil
}

// ListPositions returns the caller's recorded positions, newest first.
func (p *Pipeline) ListPositions(ctx context.Context, creds auth.Credentials, limit int) ([]*store.Position, error) {
	identity, err := p.Identify(ctx, creds)
	if err != nil {
		return nil, err
	}
	if p.store == nil {
		return []*store.Position{}, nil
	}
	positions, err := p.store.ListByUser(ctx, identity.Claims.UserID, limit)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Err: fmt.Errorf("list positions: %w", err)}
	}
	return positions, nil
}

func (p *Pipeline) positionInput(req PositionRequest) (solana.PublicKey, string, error) {
	pool := p.defaultPool
	if req.Pool != "" {
		var err error
		pool, err = solana.PublicKeyFromBase58(req.Pool)
		if err != nil {
			return solana.PublicKey{}, "", &Error{Kind: KindInvalidRequest, Stage: StagePool, Err: fmt.Errorf("pool %q: %w", req.Pool, err)}
		}
	}
	if pool.IsZero() {
		return solana.PublicKey{}, "", &Error{Kind: KindInvalidRequest, Stage: StagePool, Err: errors.New("no pool configured")}
	}

	amount := p.defaultAmount
	if req.Amount != "" {
		amount = req.Amount
	}
	if _, err := dlmm.ParseAmount(amount); err != nil {
		return solana.PublicKey{}, "", &Error{Kind: KindInvalidRequest, Stage: StageBuild, Err: err}
	}
	return pool, amount, nil
}

func (p *Pipeline) resolveWallet(ctx context.Context, identity *auth.Identity) (solana.PublicKey, error) {
	var wallet *auth.DelegatedWallet
	err := p.run(ctx, StageWallet, KindNoDelegatedWallet, func(context.Context) error {
		var err error
		wallet, err = auth.ResolveDelegatedWallet(identity.User)
		return err
	})
	if err != nil {
		return solana.PublicKey{}, err
	}
	return wallet.Address, nil
}

func (p *Pipeline) sign(ctx context.Context, tx *solana.Transaction, wallet solana.PublicKey, cosigners ...solana.PrivateKey) (*solana.Transaction, error) {
	var signed *solana.Transaction
	err := p.run(ctx, StageSign, KindRemoteSigningFailed, func(ctx context.Context) error {
		var err error
		signed, err = p.Signer.Sign(ctx, tx, wallet, cosigners...)
		return err
	})
	return signed, err
}

func (p *Pipeline) broadcast(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	var sig solana.Signature
	err := p.run(ctx, StageBroadcast, KindBroadcastFailed, func(ctx context.Context) error {
		var err error
		sig, err = p.Broadcaster.Send(ctx, tx)
		return err
	})
	if err == nil {
		p.metrics.RecordSubmitted()
	}
	return sig, err
}

// confirmSignature waits for sig when confirmation is enabled. Its outcome
// only changes the reported status; the request itself already succeeded.
func (p *Pipeline) confirmSignature(ctx context.Context, logger *zap.Logger, sig solana.Signature, recorded bool) string {
	if !p.confirm {
		return StatusAccepted
	}

	err := p.run(ctx, StageConfirm, KindBroadcastFailed, func(ctx context.Context) error {
		return p.Broadcaster.Confirm(ctx, sig)
	})
	switch {
	case err == nil:
		p.metrics.RecordConfirmed()
		logger.Info("transaction confirmed")
		if recorded {
			p.updateStatus(ctx, logger, sig, store.StatusConfirmed, "")
		}
		return StatusConfirmed
	case errors.Is(err, broadcast.ErrTransactionFailed):
		logger.Warn("transaction failed on chain", zap.Error(err))
		if recorded {
			p.updateStatus(ctx, logger, sig, store.StatusFailed, err.Error())
		}
		return StatusFailed
	default:
		logger.Warn("transaction not confirmed", zap.Error(err))
		return StatusAccepted
	}
}

func (p *Pipeline) record(ctx context.Context, logger *zap.Logger, pos *store.Position) {
	if p.store == nil {
		return
	}
	if err := p.store.Insert(ctx, pos); err != nil {
		logger.Error("failed to record position", zap.Error(err))
	}
}

func (p *Pipeline) updateStatus(ctx context.Context, logger *zap.Logger, sig solana.Signature, status store.Status, errText string) {
	if p.store == nil {
		return
	}
	if err := p.store.UpdateStatus(ctx, sig.String(), status, errText); err != nil {
		logger.Error("failed to update position status", zap.Error(err))
	}
}

// run executes fn under the stage deadline and tags its error.
func (p *Pipeline) run(ctx context.Context, stage Stage, fallback Kind, fn func(ctx context.Context) error) error {
	stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	start := time.Now()
	err := fn(stageCtx)
	if err == nil {
		p.metrics.ObserveStage(string(stage), time.Since(start), "")
		return nil
	}

	tagged := classify(stage, fallback, err)
	p.metrics.ObserveStage(string(stage), time.Since(start), string(tagged.Kind))
	return tagged
}

func (p *Pipeline) finish(logger *zap.Logger, flow string, err error) {
	if err == nil {
		p.metrics.RecordRun(flow, "success")
		return
	}
	kind := KindOf(err)
	p.metrics.RecordRun(flow, string(kind))
	fields := []zap.Field{zap.String("kind", string(kind)), zap.Error(err)}
	var pe *Error
	if errors.As(err, &pe) {
		fields = append(fields, zap.String("stage", string(pe.Stage)))
	}
	logger.Warn("pipeline failed", fields...)
}

func isRequestError(err error) bool {
	return errors.Is(err, dlmm.ErrInvalidAmount) ||
		errors.Is(err, dlmm.ErrZeroAmount) ||
		errors.Is(err, dlmm.ErrInvalidBinWidth)
}
