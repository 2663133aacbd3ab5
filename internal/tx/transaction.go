package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"cusdScope/internal/casper"
	"cusdScope/internal/clvalue"
)

const (
	// DefaultTTL is how long a transaction stays valid after its timestamp.
	DefaultTTL = 30 * time.Minute
	// DefaultGasPriceTolerance is the highest gas price multiplier accepted.
	DefaultGasPriceTolerance = 1

	runtimeCasperV1    = "VmCasperV1"
	schedulingStandard = "Standard"
)

// Network carries the chain settings every transaction is bound to.
type Network struct {
	ChainName         string
	TTL               time.Duration
	GasPriceTolerance uint8
	// ProxyCaller is the session wasm that forwards attached CSPR to a
	// payable entry point.
	ProxyCaller []byte
}

// Transaction is a version 1 transaction as the node accepts it.
type Transaction struct {
	Hash      string     `json:"hash"`
	Payload   Payload    `json:"payload"`
	Approvals []Approval `json:"approvals"`
}

type Payload struct {
	InitiatorAddr InitiatorAddr `json:"initiator_addr"`
	Timestamp     string        `json:"timestamp"`
	TTL           string        `json:"ttl"`
	ChainName     string        `json:"chain_name"`
	PricingMode   PricingMode   `json:"pricing_mode"`
	Fields        Fields        `json:"fields"`
}

type InitiatorAddr struct {
	PublicKey string `json:"PublicKey"`
}

type PricingMode struct {
	PaymentLimited PaymentLimited `json:"PaymentLimited"`
}

type PaymentLimited struct {
	PaymentAmount     uint64 `json:"payment_amount"`
	GasPriceTolerance uint8  `json:"gas_price_tolerance"`
	StandardPayment   bool   `json:"standard_payment"`
}

type Fields struct {
	Args       Args       `json:"args"`
	EntryPoint EntryPoint `json:"entry_point"`
	Scheduling string     `json:"scheduling"`
	Target     Target     `json:"target"`
}

type Args struct {
	Named []NamedArg `json:"Named"`
}

// NamedArg encodes as a [name, value] pair.
type NamedArg struct {
	Name  string
	Value CLValue
}

func (a NamedArg) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{a.Name, a.Value})
}

func (a *NamedArg) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("named arg: want [name, value], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &a.Name); err != nil {
		return fmt.Errorf("named arg name: %w", err)
	}
	return json.Unmarshal(pair[1], &a.Value)
}

type CLValue struct {
	CLType json.RawMessage `json:"cl_type"`
	Bytes  string          `json:"bytes"`
	Parsed json.RawMessage `json:"parsed"`
}

// EntryPoint is "Call" for session code or {"Custom": name} for a stored
// contract entry point.
type EntryPoint struct {
	Custom string
}

func (e EntryPoint) MarshalJSON() ([]byte, error) {
	if e.Custom == "" {
		return json.Marshal("Call")
	}
	return json.Marshal(map[string]string{"Custom": e.Custom})
}

func (e *EntryPoint) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		if name != "Call" {
			return fmt.Errorf("entry point: unsupported variant %q", name)
		}
		*e = EntryPoint{}
		return nil
	}
	var custom struct {
		Custom string `json:"Custom"`
	}
	if err := json.Unmarshal(b, &custom); err != nil {
		return err
	}
	*e = EntryPoint{Custom: custom.Custom}
	return nil
}

// Target is either a stored contract or session wasm.
type Target struct {
	Stored  *StoredTarget  `json:"Stored,omitempty"`
	Session *SessionTarget `json:"Session,omitempty"`
}

type StoredTarget struct {
	ID      InvocationTarget `json:"id"`
	Runtime string           `json:"runtime"`
}

type InvocationTarget struct {
	ByHash string `json:"ByHash"`
}

type SessionTarget struct {
	IsInstallUpgrade bool   `json:"is_install_upgrade"`
	Runtime          string `json:"runtime"`
	ModuleBytes      string `json:"module_bytes"`
}

// Approval is a tagged signature over the transaction hash.
type Approval struct {
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
}

// NewTransaction binds call to an initiator public key and computes the
// hash over the serialized payload. Payable calls become a proxy caller
// session; everything else targets the contract by hash.
func NewTransaction(call Call, initiator string, network Network, now time.Time) (Transaction, error) {
	initiator = strings.ToLower(strings.TrimSpace(initiator))
	pub, err := publicKeyBytes(initiator)
	if err != nil {
		return Transaction{}, err
	}
	ttl := network.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	tolerance := network.GasPriceTolerance
	if tolerance == 0 {
		tolerance = DefaultGasPriceTolerance
	}
	payment := call.Payment
	if payment == nil {
		payment = Payment(call.EntryPoint)
	}
	if payment.Sign() <= 0 || !payment.IsUint64() {
		return Transaction{}, fmt.Errorf("%s: %w: payment %s", call.EntryPoint, ErrInvalidArgument, payment)
	}

	args := make([]namedValue, 0, len(call.Args))
	for _, a := range call.Args {
		v, err := a.namedValue()
		if err != nil {
			return Transaction{}, fmt.Errorf("%s: %w", call.EntryPoint, err)
		}
		args = append(args, v)
	}

	var fields encodedFields
	if call.AttachedValue != nil {
		fields, err = proxySession(call, args, network.ProxyCaller)
	} else {
		fields, err = storedCall(call, args)
	}
	if err != nil {
		return Transaction{}, err
	}

	ts := now.UTC().Truncate(time.Millisecond)
	pricing := PaymentLimited{
		PaymentAmount:     payment.Uint64(),
		GasPriceTolerance: tolerance,
		StandardPayment:   true,
	}
	t := Transaction{
		Payload: Payload{
			InitiatorAddr: InitiatorAddr{PublicKey: initiator},
			Timestamp:     ts.Format("2006-01-02T15:04:05.000Z"),
			TTL:           formatTTL(ttl),
			ChainName:     network.ChainName,
			PricingMode:   PricingMode{PaymentLimited: pricing},
			Fields:        fields.json,
		},
		Approvals: []Approval{},
	}

	payload := new(envelope).
		add(0, variant(0).add(1, pub).bytes()).
		add(1, clvalue.NewWriter().WriteU64(uint64(ts.UnixMilli())).Bytes()).
		add(2, clvalue.NewWriter().WriteU64(uint64(ttl.Milliseconds())).Bytes()).
		add(3, clvalue.NewWriter().WriteString(network.ChainName).Bytes()).
		add(4, variant(0).
			add(1, clvalue.NewWriter().WriteU64(pricing.PaymentAmount).Bytes()).
			add(2, []byte{pricing.GasPriceTolerance}).
			add(3, clvalue.NewWriter().WriteBool(pricing.StandardPayment).Bytes()).
			bytes()).
		add(5, fields.bytes()).
		bytes()
	sum := blake2b.Sum256(payload)
	t.Hash = hex.EncodeToString(sum[:])
	return t, nil
}

// Approve appends signer's raw signature, tagged with its key algorithm.
func (t *Transaction) Approve(signer string, signature []byte) {
	t.Approvals = append(t.Approvals, Approval{
		Signer:    signer,
		Signature: hex.EncodeToString(casper.TagSignature(signer, signature)),
	})
}

// HashBytes is the digest signers sign.
func (t Transaction) HashBytes() ([]byte, error) {
	b, err := hex.DecodeString(t.Hash)
	if err != nil || len(b) != blake2b.Size256 {
		return nil, fmt.Errorf("transaction hash %q: invalid", t.Hash)
	}
	return b, nil
}

// encodedFields pairs the JSON fields with the binary values they hash to,
// keyed 0 args, 1 target, 2 entry point, 3 scheduling.
type encodedFields struct {
	json       Fields
	args       []byte
	target     []byte
	entryPoint []byte
}

func (f encodedFields) bytes() []byte {
	scheduling := variant(0).bytes()
	w := clvalue.NewWriter().WriteU32(4)
	for i, value := range [][]byte{f.args, f.target, f.entryPoint, scheduling} {
		w.WriteRaw([]byte{byte(i), 0})
		w.WriteU32(uint32(len(value))).WriteRaw(value)
	}
	return w.Bytes()
}

func newFields(args []namedValue) encodedFields {
	named := make([]NamedArg, 0, len(args))
	for _, a := range args {
		named = append(named, a.toJSON())
	}
	return encodedFields{
		json: Fields{Args: Args{Named: named}, Scheduling: schedulingStandard},
		args: variant(0).add(1, runtimeArgs(args)).bytes(),
	}
}

func storedCall(call Call, args []namedValue) (encodedFields, error) {
	hash, err := contractHashBytes(call.Contract)
	if err != nil {
		return encodedFields{}, fmt.Errorf("%s: contract: %w", call.EntryPoint, err)
	}
	f := newFields(args)
	f.json.EntryPoint = EntryPoint{Custom: call.EntryPoint}
	f.json.Target = Target{Stored: &StoredTarget{
		ID:      InvocationTarget{ByHash: hex.EncodeToString(hash)},
		Runtime: runtimeCasperV1,
	}}
	f.target = variant(1).
		add(1, variant(0).add(1, hash).bytes()).
		add(2, variant(0).bytes()).
		bytes()
	f.entryPoint = variant(1).add(1, clvalue.NewWriter().WriteString(call.EntryPoint).Bytes()).bytes()
	return f, nil
}

// proxySession wraps a payable call in the proxy caller wasm, which calls
// entry_point on package_hash with the serialized inner args and forwards
// attached_value motes from the caller's purse.
func proxySession(call Call, inner []namedValue, wasm []byte) (encodedFields, error) {
	if len(wasm) == 0 {
		return encodedFields{}, fmt.Errorf("%s: %w: proxy caller wasm not configured", call.EntryPoint, ErrInvalidArgument)
	}
	pkg, err := contractHashBytes(call.Package)
	if err != nil {
		return encodedFields{}, fmt.Errorf("%s: package: %w", call.EntryPoint, err)
	}
	attached, err := u512Value(call.AttachedValue)
	if err != nil {
		return encodedFields{}, fmt.Errorf("%s: attached value: %w", call.EntryPoint, err)
	}
	u8, _ := simpleType("U8")
	str, _ := simpleType("String")
	u512, _ := simpleType("U512")
	innerBytes := runtimeArgs(inner)
	args := []namedValue{
		{name: "package_hash", typ: byteArrayType(uint32(len(pkg))), value: pkg, parsed: jsonString(hex.EncodeToString(pkg))},
		{name: "entry_point", typ: str, value: clvalue.NewWriter().WriteString(call.EntryPoint).Bytes(), parsed: jsonString(call.EntryPoint)},
		{name: "args", typ: listType(u8), value: clvalue.NewWriter().WriteU32(uint32(len(innerBytes))).WriteRaw(innerBytes).Bytes()},
		{name: "attached_value", typ: u512, value: attached, parsed: jsonString(call.AttachedValue.String())},
		{name: "amount", typ: u512, value: attached, parsed: jsonString(call.AttachedValue.String())},
	}

	f := newFields(args)
	f.json.Target = Target{Session: &SessionTarget{
		Runtime:     runtimeCasperV1,
		ModuleBytes: hex.EncodeToString(wasm),
	}}
	f.target = variant(2).
		add(1, clvalue.NewWriter().WriteBool(false).Bytes()).
		add(2, variant(0).bytes()).
		add(3, clvalue.NewWriter().WriteU32(uint32(len(wasm))).WriteRaw(wasm).Bytes()).
		bytes()
	f.entryPoint = variant(0).bytes()
	return f, nil
}

func publicKeyBytes(pubKeyHex string) ([]byte, error) {
	if _, err := casper.AccountHashFromPublicKey(pubKeyHex); err != nil {
		return nil, fmt.Errorf("initiator: %w", err)
	}
	return hex.DecodeString(pubKeyHex)
}

func contractHashBytes(h string) ([]byte, error) {
	if strings.TrimSpace(h) == "" {
		return nil, fmt.Errorf("%w: hash not configured", ErrInvalidArgument)
	}
	b, err := hex.DecodeString(strings.TrimPrefix(casper.ContractKey(h), casper.HashPrefix))
	if err != nil || len(b) != 32 {
		return nil, fmt.Errorf("%w: hash %q", ErrInvalidArgument, h)
	}
	return b, nil
}

func u512Value(v *big.Int) ([]byte, error) {
	w := clvalue.NewWriter()
	if err := w.WriteU512(v); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func jsonString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// formatTTL renders d the way the node prints durations, e.g. "1h 30m".
func formatTTL(d time.Duration) string {
	units := []struct {
		size   time.Duration
		suffix string
	}{
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
		{time.Millisecond, "ms"},
	}
	var parts []string
	for _, u := range units {
		if n := d / u.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, u.suffix))
			d -= n * u.size
		}
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: bytes %q", ErrInvalidArgument, s)
	}
	return b, nil
}
