package tx

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func keysOf(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestEnvelopeLayout(t *testing.T) {
	require.Equal(t, "010000000000000000000100000000", hex.EncodeToString(variant(0).bytes()))
	require.Equal(t, "020000000000000000000100010000000300000001aabb",
		hex.EncodeToString(variant(1).add(1, []byte{0xaa, 0xbb}).bytes()))
}

func TestTransactionHashGolden(t *testing.T) {
	call := testBuilder().OpenVault()
	txn, err := NewTransaction(call, edKey, Network{ChainName: "casper-test"}, epoch)
	require.NoError(t, err)
	require.Equal(t, "9eccc932229db27805db26e506fa1cf9c042d05aa75d34d41f2ce6ebe8f7bcb3", txn.Hash)
	require.Equal(t, "2024-01-01T00:00:00.000Z", txn.Payload.Timestamp)
	require.Equal(t, "30m", txn.Payload.TTL)
	require.Equal(t, PaymentLimited{PaymentAmount: 5_000_000_000, GasPriceTolerance: 1, StandardPayment: true},
		txn.Payload.PricingMode.PaymentLimited)

	again, err := NewTransaction(call, strings.ToUpper(edKey), Network{ChainName: "casper-test", TTL: DefaultTTL}, epoch.Add(400*time.Microsecond))
	require.NoError(t, err)
	require.Equal(t, txn.Hash, again.Hash)

	for _, other := range []struct {
		initiator string
		network   Network
		now       time.Time
	}{
		{secpKey, Network{ChainName: "casper-test"}, epoch},
		{edKey, Network{ChainName: "casper"}, epoch},
		{edKey, Network{ChainName: "casper-test", TTL: time.Hour}, epoch},
		{edKey, Network{ChainName: "casper-test"}, epoch.Add(time.Millisecond)},
	} {
		changed, err := NewTransaction(call, other.initiator, other.network, other.now)
		require.NoError(t, err)
		require.NotEqual(t, txn.Hash, changed.Hash, "%+v", other)
	}
}

func TestTransactionJSONShape(t *testing.T) {
	call, err := testBuilder().Mint(big.NewInt(1000))
	require.NoError(t, err)
	txn, err := NewTransaction(call, edKey, Network{ChainName: "casper"}, epoch)
	require.NoError(t, err)

	raw, err := json.Marshal(txn)
	require.NoError(t, err)
	require.Equal(t, []string{"approvals", "hash", "payload"}, keysOf(t, raw))

	var top struct {
		Payload   json.RawMessage `json:"payload"`
		Approvals []Approval      `json:"approvals"`
	}
	require.NoError(t, json.Unmarshal(raw, &top))
	require.NotNil(t, top.Approvals)
	require.Equal(t, []string{"chain_name", "fields", "initiator_addr", "pricing_mode", "timestamp", "ttl"}, keysOf(t, top.Payload))

	var payload struct {
		InitiatorAddr json.RawMessage `json:"initiator_addr"`
		PricingMode   json.RawMessage `json:"pricing_mode"`
		Fields        json.RawMessage `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(top.Payload, &payload))
	require.JSONEq(t, `{"PublicKey":"`+edKey+`"}`, string(payload.InitiatorAddr))
	require.JSONEq(t, `{"PaymentLimited":{"payment_amount":5000000000,"gas_price_tolerance":1,"standard_payment":true}}`,
		string(payload.PricingMode))
	require.Equal(t, []string{"args", "entry_point", "scheduling", "target"}, keysOf(t, payload.Fields))

	require.JSONEq(t, `{
		"args": {"Named": [["amount", {"cl_type": "U256", "bytes": "02e803", "parsed": "1000"}]]},
		"entry_point": {"Custom": "mint_cusd"},
		"scheduling": "Standard",
		"target": {"Stored": {"id": {"ByHash": "`+strings.Repeat("11", 32)+`"}, "runtime": "VmCasperV1"}}
	}`, string(payload.Fields))

	var back Transaction
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, txn, back)
}

func TestPayableCallUsesProxySession(t *testing.T) {
	call, err := testBuilder().DepositCollateral(big.NewInt(1_500_000_000))
	require.NoError(t, err)

	_, err = NewTransaction(call, edKey, Network{ChainName: "casper"}, epoch)
	require.ErrorIs(t, err, ErrInvalidArgument)

	wasm := []byte{0x00, 0x61, 0x73, 0x6d}
	txn, err := NewTransaction(call, edKey, Network{ChainName: "casper", ProxyCaller: wasm}, epoch)
	require.NoError(t, err)
	require.Len(t, txn.Hash, 64)

	fields := txn.Payload.Fields
	require.Nil(t, fields.Target.Stored)
	require.Equal(t, &SessionTarget{Runtime: "VmCasperV1", ModuleBytes: "0061736d"}, fields.Target.Session)
	require.Equal(t, EntryPoint{}, fields.EntryPoint)

	var names []string
	for _, a := range fields.Args.Named {
		names = append(names, a.Name)
	}
	require.Equal(t, []string{"package_hash", "entry_point", "args", "attached_value", "amount"}, names)

	pkg := fields.Args.Named[0].Value
	require.JSONEq(t, `{"ByteArray":32}`, string(pkg.CLType))
	require.Equal(t, strings.Repeat("12", 32), pkg.Bytes)

	inner := fields.Args.Named[2].Value
	require.JSONEq(t, `{"List":"U8"}`, string(inner.CLType))
	// List length 4, then the empty inner RuntimeArgs.
	require.Equal(t, "0400000000000000", inner.Bytes)

	// 1.5e9 = 0x59682f00, minimal little-endian with a length byte.
	require.Equal(t, "04002f6859", fields.Args.Named[3].Value.Bytes)
	require.Equal(t, fields.Args.Named[3].Value, fields.Args.Named[4].Value)

	raw, err := json.Marshal(txn)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"entry_point":"Call"`)
}

func TestNewTransactionRejects(t *testing.T) {
	call := testBuilder().OpenVault()
	_, err := NewTransaction(call, "zz", Network{}, epoch)
	require.Error(t, err)

	call.Contract = ""
	_, err = NewTransaction(call, edKey, Network{}, epoch)
	require.ErrorIs(t, err, ErrInvalidArgument)

	call = testBuilder().OpenVault()
	call.Args = []Arg{{Name: "x", CLType: "Map", Bytes: "00"}}
	_, err = NewTransaction(call, edKey, Network{}, epoch)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestApproveTagsSignature(t *testing.T) {
	txn, err := NewTransaction(testBuilder().OpenVault(), edKey, Network{}, epoch)
	require.NoError(t, err)
	txn.Approve(edKey, []byte{0xaa})
	txn.Approve(secpKey, []byte{0xbb})
	require.Equal(t, []Approval{{Signer: edKey, Signature: "01aa"}, {Signer: secpKey, Signature: "02bb"}}, txn.Approvals)

	hash, err := txn.HashBytes()
	require.NoError(t, err)
	require.Equal(t, txn.Hash, hex.EncodeToString(hash))
}

func TestFormatTTL(t *testing.T) {
	for d, want := range map[time.Duration]string{
		30 * time.Minute:        "30m",
		90 * time.Minute:        "1h 30m",
		2 * time.Hour:           "2h",
		1500 * time.Millisecond: "1s 500ms",
		0:                       "0s",
	} {
		require.Equal(t, want, formatTTL(d))
	}
}
