package tx

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoWallet        = errors.New("wallet not available")
	ErrWalletRejected  = errors.New("wallet connection rejected")
	ErrWalletCancelled = errors.New("transaction was cancelled by user")
	ErrNoSignature     = errors.New("no signature returned from wallet")
	ErrNoPublicKey     = errors.New("wallet has no active public key")
)

// SignResult is the wallet's answer to a signing request.
type SignResult struct {
	Signature []byte
	Cancelled bool
}

// Wallet is the external signer. Signatures are raw (untagged) signatures
// over the transaction hash.
type Wallet interface {
	RequestConnection(ctx context.Context) (bool, error)
	ActivePublicKey(ctx context.Context) (string, error)
	Sign(ctx context.Context, t Transaction, publicKeyHex string) (SignResult, error)
}

// SubmissionError is returned when the node rejects a signed transaction.
type SubmissionError struct {
	EntryPoint string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.EntryPoint == "" {
		return fmt.Sprintf("submit transaction: %v", e.Err)
	}
	return fmt.Sprintf("submit %s: %v", e.EntryPoint, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
