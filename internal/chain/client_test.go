package chain

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func fakeNode(t *testing.T, handle func(req rpcRequest) (interface{}, *rpcErrorBody)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req rpcRequest
		require.NoError(t, json.Unmarshal(body, &req))

		result, rpcErr := handle(req)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func TestStateRootHash(t *testing.T) {
	c := fakeNode(t, func(req rpcRequest) (interface{}, *rpcErrorBody) {
		require.Equal(t, MethodStateRootHash, req.Method)
		return map[string]string{"api_version": "2.0.0", "state_root_hash": "abc"}, nil
	})
	root, err := c.StateRootHash(context.Background())
	require.NoError(t, err)
	require.Equal(t, "abc", root)
}

func TestDictionaryItem(t *testing.T) {
	c := fakeNode(t, func(req rpcRequest) (interface{}, *rpcErrorBody) {
		require.Equal(t, MethodDictionaryItem, req.Method)
		require.Len(t, req.Params, 2)
		var ident DictionaryIdentifier
		require.NoError(t, json.Unmarshal(req.Params[1], &ident))
		require.Equal(t, "uref-seed-007", ident.URef.SeedURef)
		require.Equal(t, "item", ident.URef.DictionaryItemKey)
		return map[string]interface{}{
			"dictionary_key": "dictionary-1",
			"stored_value":   map[string]interface{}{"CLValue": map[string]string{"bytes": "0100000001"}},
		}, nil
	})
	v, err := c.DictionaryItem(context.Background(), "root", "uref-seed-007", "item")
	require.NoError(t, err)
	raw, err := v.Raw()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 1}, raw)
}

func TestDictionaryItemNotFound(t *testing.T) {
	c := fakeNode(t, func(req rpcRequest) (interface{}, *rpcErrorBody) {
		return nil, &rpcErrorBody{Code: -32003, Message: "state query failed: ValueNotFound"}
	})
	_, err := c.DictionaryItem(context.Background(), "root", "uref", "item")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRPCErrorClassified(t *testing.T) {
	c := fakeNode(t, func(req rpcRequest) (interface{}, *rpcErrorBody) {
		return nil, &rpcErrorBody{Code: -32603, Message: "internal error"}
	})
	_, err := c.StateRootHash(context.Background())
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	require.Equal(t, -32603, rpcErr.Code)
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestInvalidResultRejected(t *testing.T) {
	c := fakeNode(t, func(req rpcRequest) (interface{}, *rpcErrorBody) {
		return map[string]interface{}{
			"stored_value": map[string]interface{}{"CLValue": map[string]string{"bytes": "zz"}},
		}, nil
	})
	_, err := c.DictionaryItem(context.Background(), "root", "uref", "item")
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
}

func TestNamedKeys(t *testing.T) {
	c := fakeNode(t, func(req rpcRequest) (interface{}, *rpcErrorBody) {
		require.Equal(t, MethodQueryState, req.Method)
		require.Len(t, req.Params, 3)
		return map[string]interface{}{
			"stored_value": map[string]interface{}{
				"Contract": map[string]interface{}{
					"named_keys": []map[string]string{
						{"name": "state", "key": "uref-aa-007"},
						{"name": "__events", "key": "uref-bb-007"},
					},
				},
			},
		}, nil
	})
	keys, err := c.NamedKeys(context.Background(), "root", "hash-abc")
	require.NoError(t, err)
	require.Equal(t, "uref-aa-007", keys["state"])
	require.Equal(t, "uref-bb-007", keys["__events"])
}

func TestPutTransactionVersionedHash(t *testing.T) {
	c := fakeNode(t, func(req rpcRequest) (interface{}, *rpcErrorBody) {
		require.Equal(t, MethodPutTransaction, req.Method)
		var env TransactionEnvelope
		require.NoError(t, json.Unmarshal(req.Params[0], &env))
		require.JSONEq(t, `{"hash":"x"}`, string(env.Version1))
		return map[string]interface{}{"transaction_hash": map[string]string{"Version1": "deadbeef"}}, nil
	})
	hash, err := c.PutTransaction(context.Background(), json.RawMessage(`{"hash":"x"}`))
	require.NoError(t, err)
	require.Equal(t, "deadbeef", hash)
}

func TestParseTransactionHash(t *testing.T) {
	h, err := ParseTransactionHash(json.RawMessage(`"abc"`))
	require.NoError(t, err)
	require.Equal(t, "abc", h)
	_, err = ParseTransactionHash(json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestPositionalParamOrder(t *testing.T) {
	const root = "0c0d"
	cases := []struct {
		name   string
		call   func(c *Client) error
		method string
		params []string
	}{
		{
			name: "query_global_state",
			call: func(c *Client) error {
				_, err := c.QueryGlobalState(context.Background(), root, "hash-abc", nil)
				return err
			},
			method: MethodQueryState,
			params: []string{`{"StateRootHash":"0c0d"}`, `"hash-abc"`, `[]`},
		},
		{
			name: "query_global_state with path",
			call: func(c *Client) error {
				_, err := c.QueryGlobalState(context.Background(), root, "hash-abc", []string{"state"})
				return err
			},
			method: MethodQueryState,
			params: []string{`{"StateRootHash":"0c0d"}`, `"hash-abc"`, `["state"]`},
		},
		{
			name: "state_get_dictionary_item",
			call: func(c *Client) error {
				_, err := c.DictionaryItem(context.Background(), root, "uref-aa-007", "0f")
				return err
			},
			method: MethodDictionaryItem,
			params: []string{`"0c0d"`, `{"URef":{"seed_uref":"uref-aa-007","dictionary_item_key":"0f"}}`},
		},
		{
			name: "account_put_transaction",
			call: func(c *Client) error {
				_, err := c.PutTransaction(context.Background(), json.RawMessage(`{"hash":"ab"}`))
				return err
			},
			method: MethodPutTransaction,
			params: []string{`{"Version1":{"hash":"ab"}}`},
		},
		{
			name: "chain_get_state_root_hash",
			call: func(c *Client) error {
				_, err := c.StateRootHash(context.Background())
				return err
			},
			method: MethodStateRootHash,
			params: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen := make(chan rpcRequest, 1)
			c := fakeNode(t, func(req rpcRequest) (interface{}, *rpcErrorBody) {
				seen <- req
				switch req.Method {
				case MethodStateRootHash:
					return map[string]string{"state_root_hash": root}, nil
				case MethodPutTransaction:
					return map[string]string{"transaction_hash": "ab"}, nil
				default:
					return map[string]interface{}{
						"stored_value": map[string]interface{}{"CLValue": map[string]string{"bytes": "00"}},
					}, nil
				}
			})
			require.NoError(t, tc.call(c))
			got := <-seen
			require.Equal(t, tc.method, got.Method)
			require.Len(t, got.Params, len(tc.params))
			for i, want := range tc.params {
				require.JSONEq(t, want, string(got.Params[i]), "param %d", i)
			}
		})
	}
}
