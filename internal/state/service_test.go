package state

import (
	"context"
	"encoding/binary"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cusdScope/internal/cache"
	"cusdScope/internal/casper"
	"cusdScope/internal/clvalue"
	"cusdScope/internal/events"
	"cusdScope/internal/fixedpoint"
	"cusdScope/internal/model"
)

var (
	vmHash    = strings.Repeat("11", 32)
	tokenHash = strings.Repeat("22", 32)
	oracle    = strings.Repeat("33", 32)
	govHash   = strings.Repeat("44", 32)
	liqHash   = strings.Repeat("55", 32)

	alice = clvalue.AccountHashPrefix + strings.Repeat("aa", 32)
	bob   = clvalue.AccountHashPrefix + strings.Repeat("bb", 32)
)

type fixture struct {
	reader   *fakeReader
	svc      *Service
	vmSeed   string
	tokSeed  string
	oraSeed  string
	govSeed  string
	liqSeed  string
	evSeed   string
	evLength string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := newFakeReader()
	f := &fixture{reader: r, evSeed: "uref-events-007", evLength: "uref-events-length-007"}
	f.vmSeed = r.contract(vmHash, map[string]string{eventsNamedKey: f.evSeed, eventsLengthNamedKey: f.evLength})
	f.tokSeed = r.contract(tokenHash, nil)
	f.oraSeed = r.contract(oracle, nil)
	f.govSeed = r.contract(govHash, nil)
	f.liqSeed = r.contract(liqHash, nil)

	f.svc = NewService(Options{
		Reader: r,
		Cache:  cache.New(cache.DefaultPolicy()),
		Layout: Layout{
			Contracts: Contracts{VaultManager: vmHash, Token: tokenHash, Oracle: oracle, Governance: govHash, Liquidation: liqHash},
			Fields:    DefaultFields(),
		},
		Now: func() time.Time { return time.Unix(1_700_000_100, 0) },
	})
	return f
}

func units(t *testing.T, s string, scale uint) *big.Int {
	t.Helper()
	v, err := fixedpoint.ToMinorUnits(s, scale)
	require.NoError(t, err)
	return v
}

func (f *fixture) putVault(t *testing.T, owner string, coll, debt *big.Int) {
	t.Helper()
	w := clvalue.NewWriter()
	require.NoError(t, w.WriteU256(coll))
	require.NoError(t, w.WriteU256(debt))
	w.WriteU64(1_700_000_000_000).WriteU64(1_700_000_000_000)
	key, err := casper.AccountKeyBytes(owner)
	require.NoError(t, err)
	f.reader.putField(f.vmSeed, DefaultFields().Vaults, key, w.Framed())
}

func (f *fixture) putPrice(t *testing.T, price *big.Int, ts uint64) {
	t.Helper()
	w := clvalue.NewWriter()
	require.NoError(t, w.WriteU256(price))
	w.WriteU64(ts).WriteU64(1)
	f.reader.putField(f.oraSeed, DefaultFields().LatestRound, nil, w.Framed())
}

func (f *fixture) putParams(t *testing.T, p model.GovernanceParams) {
	t.Helper()
	w := clvalue.NewWriter()
	w.WriteU64(p.MCRBps).WriteU64(p.LRBps).WriteU64(p.LiquidationBonusBps).WriteU64(p.MaxPriceStaleness)
	require.NoError(t, w.WriteU256(p.DebtFloor))
	require.NoError(t, w.WriteU256(p.DebtCeiling))
	f.reader.putField(f.govSeed, DefaultFields().Params, nil, w.Framed())
}

func (f *fixture) putEvents(t *testing.T, raw [][]byte) {
	t.Helper()
	for i, b := range raw {
		f.reader.put(f.evSeed, strconv.Itoa(i), b)
	}
	length := make([]byte, 4)
	binary.LittleEndian.PutUint32(length, uint32(len(raw)))
	f.reader.globals[f.evLength] = length
}

func TestVaultCachedAfterFirstRead(t *testing.T) {
	f := newFixture(t)
	f.putVault(t, alice, big.NewInt(100), big.NewInt(5))

	v := f.svc.Vault(context.Background(), alice)
	require.NotNil(t, v)
	require.Equal(t, int64(100), v.Collateral.Int64())
	calls := f.reader.dictCalls.Load()

	v = f.svc.Vault(context.Background(), alice)
	require.NotNil(t, v)
	require.Equal(t, calls, f.reader.dictCalls.Load(), "second read should hit the cache")

	f.svc.Invalidate()
	require.NotNil(t, f.svc.Vault(context.Background(), alice))
	require.Greater(t, f.reader.dictCalls.Load(), calls)
}

func TestVaultAbsent(t *testing.T) {
	f := newFixture(t)
	f.putVault(t, alice, big.NewInt(0), big.NewInt(0))

	require.Nil(t, f.svc.Vault(context.Background(), alice), "empty vault is absent")
	require.Nil(t, f.svc.Vault(context.Background(), bob), "missing vault is absent")
	require.Nil(t, f.svc.Vault(context.Background(), "not-a-key"))
}

func TestVaultRPCErrorNotCached(t *testing.T) {
	f := newFixture(t)
	f.putVault(t, alice, big.NewInt(1), big.NewInt(1))
	key, _ := casper.AccountKeyBytes(alice)
	item := casper.DictionaryItemKey(DefaultFields().Vaults, key)
	f.reader.failItems[item] = errors.New("connection reset")

	require.Nil(t, f.svc.Vault(context.Background(), alice))

	delete(f.reader.failItems, item)
	require.NotNil(t, f.svc.Vault(context.Background(), alice))
}

func TestVaultCorruptBytes(t *testing.T) {
	f := newFixture(t)
	key, _ := casper.AccountKeyBytes(alice)
	f.reader.putField(f.vmSeed, DefaultFields().Vaults, key, []byte{1, 0, 0, 0, 5})
	require.Nil(t, f.svc.Vault(context.Background(), alice))
}

func TestSystemTotalsMissingCountersReadZero(t *testing.T) {
	f := newFixture(t)
	w := clvalue.NewWriter()
	require.NoError(t, w.WriteU256(big.NewInt(700)))
	f.reader.putField(f.vmSeed, DefaultFields().TotalCollateral, nil, w.Framed())

	totals := f.svc.SystemTotals(context.Background())
	require.NotNil(t, totals)
	require.Equal(t, int64(700), totals.TotalCollateral.Int64())
	require.Equal(t, 0, totals.TotalDebt.Sign())
	require.Equal(t, uint64(0), totals.VaultCount)
}

func TestPauseFlags(t *testing.T) {
	f := newFixture(t)
	f.reader.putField(f.govSeed, DefaultFields().MintPaused, nil, clvalue.NewWriter().WriteBool(true).Framed())

	flags := f.svc.PauseFlags(context.Background())
	require.NotNil(t, flags)
	require.Equal(t, model.PauseFlags{Mint: true}, *flags)
}

func TestParamsFromGovernance(t *testing.T) {
	f := newFixture(t)
	want := DefaultParams()
	want.MCRBps = 16000
	f.putParams(t, want)

	view := f.svc.Params(context.Background())
	require.NotNil(t, view)
	require.False(t, view.Degraded)
	require.Empty(t, view.MissingFields)
	require.Equal(t, uint64(16000), view.Params.MCRBps)
}

func TestParamsDegraded(t *testing.T) {
	f := newFixture(t)
	f.reader.putField(f.vmSeed, DefaultFields().MCR, nil, clvalue.NewWriter().WriteU64(18000).Framed())

	view := f.svc.Params(context.Background())
	require.NotNil(t, view)
	require.True(t, view.Degraded)
	require.Equal(t, uint64(18000), view.Params.MCRBps)
	require.Equal(t, uint64(15000), view.Params.LRBps)
	require.Equal(t, []string{"lr_bps", "liquidation_bonus_bps", "max_price_staleness", "debt_floor", "debt_ceiling"}, view.MissingFields)
	require.Equal(t, DefaultParams().DebtCeiling.String(), view.Params.DebtCeiling.String())
}

func TestBalanceAndSupply(t *testing.T) {
	f := newFixture(t)
	key, _ := casper.AccountKeyBytes(bob)
	w := clvalue.NewWriter()
	require.NoError(t, w.WriteU256(units(t, "12.5", 18)))
	f.reader.putField(f.tokSeed, DefaultFields().Balances, key, w.Framed())

	bal := f.svc.Balance(context.Background(), bob)
	require.NotNil(t, bal)
	require.Equal(t, "12.5", fixedpoint.ToDecimalString(bal, 18))
	require.Nil(t, f.svc.Balance(context.Background(), alice))
	require.Nil(t, f.svc.TotalSupply(context.Background()))
}

func TestRecentEventsSkipsCorruptAndUnknown(t *testing.T) {
	f := newFixture(t)
	ev0, err := events.Encode(model.CollateralDepositedEvent{Owner: alice, Amount: big.NewInt(1), TotalCollateral: big.NewInt(1)})
	require.NoError(t, err)
	ev3, err := events.Encode(model.MintedEvent{Owner: alice, Amount: big.NewInt(2), TotalDebt: big.NewInt(2), CRAfter: 20000})
	require.NoError(t, err)
	corrupt := ev3[:len(ev3)-3]
	unknown := clvalue.NewWriter().WriteString("event_OwnershipTransferred").Framed()
	f.putEvents(t, [][]byte{ev0, corrupt, unknown, ev3})

	count, ok := f.svc.EventCount(context.Background())
	require.True(t, ok)
	require.Equal(t, uint64(4), count)

	got := f.svc.RecentEvents(context.Background(), 10)
	require.Len(t, got, 2)
	require.Equal(t, uint64(3), got[0].Sequence())
	require.Equal(t, model.EventMinted, got[0].Kind())
	require.Equal(t, uint64(0), got[1].Sequence())

	_, err = f.svc.LoadEvent(context.Background(), 1)
	require.ErrorIs(t, err, events.ErrCorruptEvent)

	limited := f.svc.RecentEvents(context.Background(), 1)
	require.Len(t, limited, 1)
	require.Equal(t, uint64(3), limited[0].Sequence())
}

func TestRecentEventsWithoutLog(t *testing.T) {
	f := newFixture(t)
	require.Empty(t, f.svc.RecentEvents(context.Background(), 5))
}

func TestPositionWorkedExample(t *testing.T) {
	f := newFixture(t)
	f.putVault(t, alice, units(t, "250000", 9), units(t, "2500", 18))
	f.putPrice(t, units(t, "0.0234", 9), 1_700_000_000)
	f.putParams(t, DefaultParams())

	pos := f.svc.Position(context.Background(), alice)
	require.NotNil(t, pos)
	require.Equal(t, int64(23400), pos.RatioBps.Int64())
	require.False(t, pos.Liquidatable)
	require.True(t, pos.PriceFresh)
	require.False(t, pos.Degraded)
	require.Equal(t, "healthy", pos.Health)
	require.Positive(t, pos.MaxMintable.Sign())

	require.Nil(t, f.svc.Position(context.Background(), bob))
}

func TestPositionWithoutPrice(t *testing.T) {
	f := newFixture(t)
	f.putVault(t, alice, units(t, "1", 9), units(t, "1", 18))
	pos := f.svc.Position(context.Background(), alice)
	require.NotNil(t, pos)
	require.Nil(t, pos.RatioBps)
	require.Equal(t, healthUnknown, pos.Health)
	require.True(t, pos.Degraded)
}

func TestLiquidationCandidates(t *testing.T) {
	f := newFixture(t)
	f.putPrice(t, units(t, "0.005", 9), 1_700_000_000)
	f.putParams(t, DefaultParams())
	f.putVault(t, alice, units(t, "100000", 9), units(t, "1000", 18))
	f.putVault(t, bob, units(t, "100000", 9), units(t, "100", 18))

	evA, err := events.Encode(model.MintedEvent{Owner: alice, Amount: big.NewInt(1), TotalDebt: big.NewInt(1)})
	require.NoError(t, err)
	evB, err := events.Encode(model.MintedEvent{Owner: bob, Amount: big.NewInt(1), TotalDebt: big.NewInt(1)})
	require.NoError(t, err)
	f.putEvents(t, [][]byte{evA, evB})

	got := f.svc.LiquidationCandidates(context.Background(), 50)
	require.Len(t, got, 1)
	require.Equal(t, alice, got[0].Owner)
	require.Equal(t, int64(5000), got[0].RatioBps.Int64())
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	f.putPrice(t, units(t, "0.0234", 9), 1_699_000_000)
	f.putParams(t, DefaultParams())

	snap := f.svc.Snapshot(context.Background())
	require.NotNil(t, snap.Price)
	require.NotNil(t, snap.Params)
	require.NotNil(t, snap.Totals)
	require.NotNil(t, snap.Paused)
	require.Nil(t, snap.Liquidation)
	require.False(t, snap.PriceFresh, "price older than max staleness")
}
