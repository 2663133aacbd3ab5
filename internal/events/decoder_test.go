package events

import (
	"errors"
	"math/big"
	"reflect"
	"strings"
	"testing"

	"cusdScope/internal/clvalue"
	"cusdScope/internal/model"
)

var (
	alice = clvalue.AccountHashPrefix + strings.Repeat("aa", 32)
	bob   = clvalue.AccountHashPrefix + strings.Repeat("bb", 32)
)

func TestDecodeRoundTrip(t *testing.T) {
	cases := []model.DomainEvent{
		model.MintedEvent{SequenceIndex: 3, Owner: alice, Amount: big.NewInt(1000), TotalDebt: big.NewInt(5000), CRAfter: 23400},
		model.RepaidEvent{SequenceIndex: 4, Owner: alice, Amount: big.NewInt(10), TotalDebt: big.NewInt(4990)},
		model.LiquidatedEvent{SequenceIndex: 5, VaultOwner: alice, Liquidator: bob, DebtRepaid: big.NewInt(4990), CollateralSeized: big.NewInt(77)},
		model.CollateralDepositedEvent{SequenceIndex: 6, Owner: bob, Amount: big.NewInt(1), TotalCollateral: big.NewInt(2)},
		model.CollateralWithdrawnEvent{SequenceIndex: 7, Owner: bob, Amount: big.NewInt(1), TotalCollateral: big.NewInt(0)},
	}
	for _, want := range cases {
		b, err := Encode(want)
		if err != nil {
			t.Fatalf("encode %s: %v", want.Kind(), err)
		}
		got, err := Decode(b, want.Sequence())
		if err != nil {
			t.Fatalf("decode %s: %v", want.Kind(), err)
		}
		if !reflect.DeepEqual(ToRecord(got), ToRecord(want)) {
			t.Fatalf("%s mismatch: %+v != %+v", want.Kind(), got, want)
		}
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	w := clvalue.NewWriter()
	w.WriteString("event_GovernanceUpdated").WriteU64(1)
	ev, err := Decode(w.Framed(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatalf("expected nil event, got %+v", ev)
	}
}

func TestDecodeTruncatedKnownEvent(t *testing.T) {
	b, err := Encode(model.MintedEvent{SequenceIndex: 1, Owner: alice, Amount: big.NewInt(1000), TotalDebt: big.NewInt(1000), CRAfter: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for cut := 1; cut < 8; cut++ {
		_, err := Decode(b[:len(b)-cut], 1)
		if !errors.Is(err, ErrCorruptEvent) {
			t.Fatalf("cut %d: expected ErrCorruptEvent, got %v", cut, err)
		}
	}
}

func TestDecodeGarbage(t *testing.T) {
	inputs := [][]byte{nil, {1}, {0, 0, 0, 0}, {0, 0, 0, 0, 0xff, 0xff, 0xff, 0x7f}}
	for _, in := range inputs {
		if _, err := Decode(in, 0); !errors.Is(err, ErrCorruptEvent) {
			t.Fatalf("input %x: expected ErrCorruptEvent, got %v", in, err)
		}
	}
}

func TestDecodeBadAddressTag(t *testing.T) {
	w := clvalue.NewWriter()
	w.WriteString("event_Repaid").WriteU8(9).WriteRaw(make([]byte, 32))
	_, err := Decode(w.Framed(), 2)
	if !errors.Is(err, ErrCorruptEvent) {
		t.Fatalf("expected ErrCorruptEvent, got %v", err)
	}
}

func TestForAccountAndOwners(t *testing.T) {
	evs := []model.DomainEvent{
		model.CollateralDepositedEvent{SequenceIndex: 1, Owner: alice, Amount: big.NewInt(1), TotalCollateral: big.NewInt(1)},
		model.MintedEvent{SequenceIndex: 2, Owner: bob, Amount: big.NewInt(1), TotalDebt: big.NewInt(1)},
		model.LiquidatedEvent{SequenceIndex: 3, VaultOwner: alice, Liquidator: bob, DebtRepaid: big.NewInt(1), CollateralSeized: big.NewInt(1)},
	}

	got := ForAccount(evs, bob)
	if len(got) != 2 || got[0].Sequence() != 3 || got[1].Sequence() != 2 {
		t.Fatalf("unexpected bob activity: %+v", got)
	}
	if owners := Owners(evs); !reflect.DeepEqual(owners, []string{alice, bob}) {
		t.Fatalf("unexpected owners: %v", owners)
	}
	if minted := FilterKind(evs, model.EventMinted); len(minted) != 1 || minted[0].Sequence() != 2 {
		t.Fatalf("unexpected minted filter: %+v", minted)
	}
}

func TestToRecord(t *testing.T) {
	rec := ToRecord(model.LiquidatedEvent{SequenceIndex: 3, VaultOwner: alice, Liquidator: bob, DebtRepaid: big.NewInt(10), CollateralSeized: big.NewInt(20)})
	want := model.EventRecord{
		Sequence:         3,
		Kind:             model.EventLiquidated,
		Owner:            alice,
		Liquidator:       bob,
		Amount:           "10",
		CollateralSeized: "20",
	}
	if !reflect.DeepEqual(rec, want) {
		t.Fatalf("record mismatch: %+v != %+v", rec, want)
	}
}
