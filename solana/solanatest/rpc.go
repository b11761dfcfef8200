// Package solanatest provides an in-memory RPC for tests.
package solanatest

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPC serves accounts, blockhashes and signature statuses from memory and
// records every transaction sent through it.
type RPC struct {
	mu sync.Mutex

	accounts  map[solana.PublicKey]*rpc.Account
	statuses  map[solana.Signature]*rpc.SignatureStatusesResult
	blockhash solana.Hash

	// ReadErr fails every account read.
	ReadErr error
	// SendErr fails every send.
	SendErr error

	sent        []*solana.Transaction
	sendOpts    []rpc.TransactionOpts
	statusCalls int
}

func NewRPC() *RPC {
	return &RPC{
		accounts:  make(map[solana.PublicKey]*rpc.Account),
		statuses:  make(map[solana.Signature]*rpc.SignatureStatusesResult),
		blockhash: solana.HashFromBytes([]byte("lpbot-test-blockhash-00000000000")),
	}
}

func (r *RPC) SetAccount(address, owner solana.PublicKey, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[address] = &rpc.Account{
		Lamports: 1_000_000,
		Owner:    owner,
		Data:     rpc.DataBytesOrJSONFromBytes(data),
	}
}

func (r *RPC) SetMint(mint, tokenProgram solana.PublicKey, decimals uint8) {
	r.SetAccount(mint, tokenProgram, MintData(decimals))
}

func (r *RPC) SetStatus(sig solana.Signature, status *rpc.SignatureStatusesResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[sig] = status
}

func (r *RPC) Blockhash() solana.Hash {
	return r.blockhash
}

// Sent returns the transactions submitted so far.
func (r *RPC) Sent() []*solana.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*solana.Transaction(nil), r.sent...)
}

func (r *RPC) SendOpts() []rpc.TransactionOpts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rpc.TransactionOpts(nil), r.sendOpts...)
}

func (r *RPC) StatusCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusCalls
}

func (r *RPC) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, _ *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ReadErr != nil {
		return nil, r.ReadErr
	}
	acc, ok := r.accounts[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: acc}, nil
}

func (r *RPC) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, _ *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ReadErr != nil {
		return nil, r.ReadErr
	}
	out := &rpc.GetMultipleAccountsResult{Value: make([]*rpc.Account, len(accounts))}
	for i, pk := range accounts {
		out.Value[i] = r.accounts[pk]
	}
	return out, nil
}

func (r *RPC) GetLatestBlockhash(ctx context.Context, _ rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            r.blockhash,
			LastValidBlockHeight: 1000,
		},
	}, nil
}

func (r *RPC) SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, transaction)
	r.sendOpts = append(r.sendOpts, opts)
	if r.SendErr != nil {
		return solana.Signature{}, r.SendErr
	}
	if len(transaction.Signatures) == 0 {
		return solana.Signature{}, nil
	}
	return transaction.Signatures[0], nil
}

func (r *RPC) GetSignatureStatuses(ctx context.Context, _ bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusCalls++
	out := &rpc.GetSignatureStatusesResult{Value: make([]*rpc.SignatureStatusesResult, len(sigs))}
	for i, sig := range sigs {
		out.Value[i] = r.statuses[sig]
	}
	return out, nil
}

// MintData is an initialized 82 byte spl mint with no authorities.
func MintData(decimals uint8) []byte {
	data := make([]byte, 82)
	binary.LittleEndian.PutUint64(data[36:44], 1_000_000_000)
	data[44] = decimals
	data[45] = 1
	return data
}
