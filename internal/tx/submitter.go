package tx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cusdScope/internal/metrics"
)

// DefaultExplorerURL is the block explorer used for receipts.
const DefaultExplorerURL = "https://cspr.live"

// Node submits signed transactions. *chain.Client satisfies it.
type Node interface {
	PutTransaction(ctx context.Context, signed json.RawMessage) (string, error)
}

// Invalidator drops cached state after a submission is accepted.
type Invalidator interface {
	Invalidate()
}

// Receipt is returned for an accepted transaction.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	ExplorerURL     string `json:"explorerUrl"`
}

// SubmitterConfig configures a Submitter.
type SubmitterConfig struct {
	Network     Network
	ExplorerURL string
}

// Submitter signs and submits transactions one at a time. Failed
// submissions are returned to the caller and never retried.
type Submitter struct {
	mu     sync.Mutex
	node   Node
	wallet Wallet
	inv    Invalidator
	cfg    SubmitterConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewSubmitter builds a Submitter. wallet may be nil when only pre-signed
// transactions are relayed.
func NewSubmitter(node Node, wallet Wallet, inv Invalidator, cfg SubmitterConfig, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExplorerURL == "" {
		cfg.ExplorerURL = DefaultExplorerURL
	}
	return &Submitter{
		node:   node,
		wallet: wallet,
		inv:    inv,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Submit asks the wallet to sign call and submits it.
func (s *Submitter) Submit(ctx context.Context, call Call) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return Receipt{}, ErrNoWallet
	}
	ok, err := s.wallet.RequestConnection(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrWalletRejected, err)
	}
	if !ok {
		return Receipt{}, ErrWalletRejected
	}
	pub, err := s.wallet.ActivePublicKey(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrNoPublicKey, err)
	}
	if pub == "" {
		return Receipt{}, ErrNoPublicKey
	}

	t, err := NewTransaction(call, pub, s.cfg.Network, s.now())
	if err != nil {
		return Receipt{}, err
	}

	res, err := s.wallet.Sign(ctx, t, pub)
	if err != nil {
		return Receipt{}, fmt.Errorf("sign %s: %w", call.EntryPoint, err)
	}
	if res.Cancelled {
		return Receipt{}, ErrWalletCancelled
	}
	if len(res.Signature) == 0 {
		return Receipt{}, ErrNoSignature
	}

	t.Approve(pub, res.Signature)
	signed, err := json.Marshal(t)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode transaction: %w", err)
	}
	return s.put(ctx, call.EntryPoint, signed, t.Hash)
}

// SubmitSigned relays a transaction signed elsewhere.
func (s *Submitter) SubmitSigned(ctx context.Context, signed json.RawMessage) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, "", signed, "")
}

func (s *Submitter) put(ctx context.Context, entryPoint string, signed json.RawMessage, fallbackHash string) (Receipt, error) {
	hash, err := s.node.PutTransaction(ctx, signed)
	metrics.ObserveSubmission(label(entryPoint), err)
	if err != nil {
		s.logger.Warn("transaction rejected", zap.String("entry_point", entryPoint), zap.Error(err))
		return Receipt{}, &SubmissionError{EntryPoint: entryPoint, Err: err}
	}
	if hash == "" {
		hash = fallbackHash
	}
	if hash == "" {
		return Receipt{}, &SubmissionError{EntryPoint: entryPoint, Err: fmt.Errorf("no transaction hash returned")}
	}
	if s.inv != nil {
		s.inv.Invalidate()
	}
	s.logger.Info("transaction submitted", zap.String("entry_point", entryPoint), zap.String("hash", hash))
	return Receipt{TransactionHash: hash, ExplorerURL: ExplorerURL(s.cfg.ExplorerURL, hash)}, nil
}

// ExplorerURL links a transaction hash on the block explorer.
func ExplorerURL(base, hash string) string {
	return strings.TrimRight(base, "/") + "/deploy/" + hash
}

func label(entryPoint string) string {
	if entryPoint == "" {
		return "signed"
	}
	return entryPoint
}
