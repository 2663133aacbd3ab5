package state

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"cusdScope/internal/casper"
	"cusdScope/internal/chain"
)

type fakeReader struct {
	mu        sync.Mutex
	root      string
	named     map[string]map[string]string
	dict      map[string]map[string][]byte
	globals   map[string][]byte
	failItems map[string]error
	dictCalls atomic.Int32
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		root:      "root-1",
		named:     make(map[string]map[string]string),
		dict:      make(map[string]map[string][]byte),
		globals:   make(map[string][]byte),
		failItems: make(map[string]error),
	}
}

// contract registers a contract with a state seed and returns the seed.
func (f *fakeReader) contract(hash string, extra map[string]string) string {
	seed := "uref-" + hash[:8] + "-007"
	keys := map[string]string{stateNamedKey: seed}
	for k, v := range extra {
		keys[k] = v
	}
	f.named[casper.ContractKey(hash)] = keys
	return seed
}

func (f *fakeReader) put(seed, item string, b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dict[seed] == nil {
		f.dict[seed] = make(map[string][]byte)
	}
	f.dict[seed][item] = b
}

func (f *fakeReader) putField(seed string, field uint32, mappingKey []byte, b []byte) {
	f.put(seed, casper.DictionaryItemKey(field, mappingKey), b)
}

func (f *fakeReader) StateRootHash(ctx context.Context) (string, error) {
	return f.root, nil
}

func (f *fakeReader) NamedKeys(ctx context.Context, root, contractKey string) (map[string]string, error) {
	keys, ok := f.named[contractKey]
	if !ok {
		return nil, fmt.Errorf("%s: %w", contractKey, chain.ErrNotFound)
	}
	return keys, nil
}

func (f *fakeReader) QueryGlobalState(ctx context.Context, root, key string, path []string) (*chain.StoredValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.globals[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, chain.ErrNotFound)
	}
	return &chain.StoredValue{CLValue: &chain.CLValue{Bytes: hex.EncodeToString(b)}}, nil
}

func (f *fakeReader) DictionaryItem(ctx context.Context, root, seed, item string) (*chain.CLValue, error) {
	f.dictCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failItems[item]; ok {
		return nil, err
	}
	b, ok := f.dict[seed][item]
	if !ok {
		return nil, fmt.Errorf("%s: %w", item, chain.ErrNotFound)
	}
	return &chain.CLValue{Bytes: hex.EncodeToString(b)}, nil
}
