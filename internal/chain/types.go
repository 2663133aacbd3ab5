package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Params are sent positionally; the node maps them onto its named parameters
// in declaration order.

type validator interface {
	validate() error
}

type StateIdentifier struct {
	StateRootHash string `json:"StateRootHash"`
}

type URefIdentifier struct {
	SeedURef          string `json:"seed_uref"`
	DictionaryItemKey string `json:"dictionary_item_key"`
}

type DictionaryIdentifier struct {
	URef *URefIdentifier `json:"URef,omitempty"`
}

// TransactionEnvelope tags a signed transaction with its version.
type TransactionEnvelope struct {
	Version1 json.RawMessage `json:"Version1"`
}

// StateRootResult is the chain_get_state_root_hash result.
type StateRootResult struct {
	APIVersion    string `json:"api_version"`
	StateRootHash string `json:"state_root_hash"`
}

func (r *StateRootResult) validate() error {
	if r.StateRootHash == "" {
		return fmt.Errorf("missing state_root_hash")
	}
	return nil
}

// CLValue is a serialized value with its type descriptor.
type CLValue struct {
	CLType json.RawMessage `json:"cl_type,omitempty"`
	Bytes  string          `json:"bytes"`
	Parsed json.RawMessage `json:"parsed,omitempty"`
}

// Raw decodes the hex bytes.
func (v *CLValue) Raw() ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(v.Bytes, "0x"))
	if err != nil {
		return nil, fmt.Errorf("clvalue bytes: %w", err)
	}
	return b, nil
}

func (v *CLValue) validate() error {
	if v == nil {
		return fmt.Errorf("missing CLValue")
	}
	if _, err := v.Raw(); err != nil {
		return err
	}
	return nil
}

type NamedKey struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

type namedKeyHolder struct {
	NamedKeys []NamedKey `json:"named_keys"`
}

// StoredValue is the subset of stored value variants this client reads.
type StoredValue struct {
	CLValue  *CLValue        `json:"CLValue,omitempty"`
	Contract *namedKeyHolder `json:"Contract,omitempty"`
	Account  *namedKeyHolder `json:"Account,omitempty"`
}

// NamedKeys returns the named keys of a contract or account value, or nil
// for other variants.
func (s *StoredValue) NamedKeys() map[string]string {
	var holder *namedKeyHolder
	switch {
	case s.Contract != nil:
		holder = s.Contract
	case s.Account != nil:
		holder = s.Account
	default:
		return nil
	}
	out := make(map[string]string, len(holder.NamedKeys))
	for _, nk := range holder.NamedKeys {
		out[nk.Name] = nk.Key
	}
	return out
}

func (s *StoredValue) validate() error {
	if s.CLValue == nil && s.Contract == nil && s.Account == nil {
		return fmt.Errorf("unsupported stored_value variant")
	}
	if s.CLValue != nil {
		return s.CLValue.validate()
	}
	return nil
}

// QueryResult is the query_global_state result.
type QueryResult struct {
	StoredValue StoredValue `json:"stored_value"`
}

func (r *QueryResult) validate() error {
	if err := r.StoredValue.validate(); err != nil {
		return fmt.Errorf("query result: %w", err)
	}
	return nil
}

// DictionaryResult is the state_get_dictionary_item result.
type DictionaryResult struct {
	DictionaryKey string      `json:"dictionary_key"`
	StoredValue   StoredValue `json:"stored_value"`
}

func (r *DictionaryResult) validate() error {
	if r.StoredValue.CLValue == nil {
		return fmt.Errorf("dictionary result: missing CLValue")
	}
	return r.StoredValue.CLValue.validate()
}

// PutTransactionResult is the account_put_transaction result. The hash is
// either a plain string or keyed by transaction version.
type PutTransactionResult struct {
	Hash string `json:"-"`
}

func (r *PutTransactionResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		TransactionHash json.RawMessage `json:"transaction_hash"`
		DeployHash      json.RawMessage `json:"deploy_hash"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	field := raw.TransactionHash
	if len(field) == 0 {
		field = raw.DeployHash
	}
	if len(field) == 0 {
		return nil
	}
	hash, err := ParseTransactionHash(field)
	if err != nil {
		return err
	}
	r.Hash = hash
	return nil
}

func (r *PutTransactionResult) validate() error {
	if r.Hash == "" {
		return fmt.Errorf("missing transaction_hash")
	}
	return nil
}

// ParseTransactionHash accepts "abc…" or {"Version1": "abc…"}.
func ParseTransactionHash(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var tagged map[string]string
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return "", fmt.Errorf("transaction hash: %w", err)
	}
	for _, tag := range []string{"Version1", "Deploy"} {
		if h, ok := tagged[tag]; ok {
			return h, nil
		}
	}
	for _, h := range tagged {
		return h, nil
	}
	return "", fmt.Errorf("transaction hash: empty object")
}
