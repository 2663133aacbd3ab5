package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	"cusdScope/internal/metrics"
)

const (
	MethodStateRootHash  = "chain_get_state_root_hash"
	MethodQueryState     = "query_global_state"
	MethodDictionaryItem = "state_get_dictionary_item"
	MethodPutTransaction = "account_put_transaction"

	// Node error codes meaning the requested value does not exist.
	codeQueryFailed      = -32003
	codeDictionaryFailed = -32005
)

// ErrNotFound is returned when the node holds no value for a key.
var ErrNotFound = errors.New("not found")

// RPCError is a transport or node failure for one method.
type RPCError struct {
	Method string
	Code   int
	Err    error
}

func (e *RPCError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rpc %s: code %d: %v", e.Method, e.Code, e.Err)
	}
	return fmt.Sprintf("rpc %s: %v", e.Method, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

// Client wraps the go-ethereum JSON-RPC client with the node's state and
// transaction methods.
type Client struct {
	rpcClient *rpc.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{rpcClient: rpcClient}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

func (c *Client) call(ctx context.Context, result validator, method string, args ...interface{}) error {
	err := c.rpcClient.CallContext(ctx, result, method, args...)
	if err == nil {
		err = result.validate()
	}
	metrics.ObserveRPC(method, err)
	if err == nil {
		return nil
	}
	return classify(method, err)
}

func classify(method string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		code := rpcErr.ErrorCode()
		msg := strings.ToLower(rpcErr.Error())
		if code == codeQueryFailed || code == codeDictionaryFailed ||
			strings.Contains(msg, "not found") || strings.Contains(msg, "valuenotfound") {
			return fmt.Errorf("rpc %s: %w: %v", method, ErrNotFound, err)
		}
		return &RPCError{Method: method, Code: code, Err: err}
	}
	return &RPCError{Method: method, Err: err}
}

// StateRootHash returns the latest state root hash.
func (c *Client) StateRootHash(ctx context.Context) (string, error) {
	var res StateRootResult
	if err := c.call(ctx, &res, MethodStateRootHash); err != nil {
		return "", err
	}
	return res.StateRootHash, nil
}

// QueryGlobalState reads a global state key at the given state root.
func (c *Client) QueryGlobalState(ctx context.Context, stateRootHash, key string, path []string) (*StoredValue, error) {
	if path == nil {
		path = []string{}
	}
	var res QueryResult
	ident := StateIdentifier{StateRootHash: stateRootHash}
	if err := c.call(ctx, &res, MethodQueryState, ident, key, path); err != nil {
		return nil, err
	}
	return &res.StoredValue, nil
}

// NamedKeys returns the named keys of a contract.
func (c *Client) NamedKeys(ctx context.Context, stateRootHash, contractKey string) (map[string]string, error) {
	sv, err := c.QueryGlobalState(ctx, stateRootHash, contractKey, nil)
	if err != nil {
		return nil, err
	}
	keys := sv.NamedKeys()
	if keys == nil {
		return nil, fmt.Errorf("rpc %s: %s has no named keys: %w", MethodQueryState, contractKey, ErrNotFound)
	}
	return keys, nil
}

// DictionaryItem reads a dictionary entry addressed by seed URef and item key.
func (c *Client) DictionaryItem(ctx context.Context, stateRootHash, seedURef, itemKey string) (*CLValue, error) {
	var res DictionaryResult
	ident := DictionaryIdentifier{URef: &URefIdentifier{SeedURef: seedURef, DictionaryItemKey: itemKey}}
	if err := c.call(ctx, &res, MethodDictionaryItem, stateRootHash, ident); err != nil {
		return nil, err
	}
	return res.StoredValue.CLValue, nil
}

// PutTransaction submits a signed transaction and returns its hash.
func (c *Client) PutTransaction(ctx context.Context, signed json.RawMessage) (string, error) {
	var res PutTransactionResult
	if err := c.call(ctx, &res, MethodPutTransaction, TransactionEnvelope{Version1: signed}); err != nil {
		return "", err
	}
	return res.Hash, nil
}
