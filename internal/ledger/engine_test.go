package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/papertrade/ledger/internal/domain"
	"github.com/papertrade/ledger/internal/pricing"
	"github.com/papertrade/ledger/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *pricing.MockSource, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	src := pricing.NewMockSource(decimal.Zero)
	eng := New(st, src, nil, DefaultConfig())
	return eng, src, st
}

func fund(t *testing.T, eng *Engine, user string, balance int64) {
	t.Helper()
	_, err := eng.CreateAccount(context.Background(), user, decimal.NewFromInt(balance))
	require.NoError(t, err)
}

func balanceOf(t *testing.T, eng *Engine, user string) decimal.Decimal {
	t.Helper()
	acct, err := eng.GetAccount(context.Background(), user)
	require.NoError(t, err)
	return acct.CashBalance
}

func TestBuyThenSellSameQuantityRestoresBalance(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 10000)
	src.SetPrice("TCS", decimal.NewFromInt(250))

	fill, err := eng.Buy(ctx, "u1", "TCS", 10)
	require.NoError(t, err)
	require.True(t, fill.Cost.Equal(decimal.NewFromInt(2500)), "cost %s", fill.Cost)
	require.True(t, balanceOf(t, eng, "u1").Equal(decimal.NewFromInt(7500)))

	liq, err := eng.Sell(ctx, "u1", "TCS", 10)
	require.NoError(t, err)
	require.True(t, liq.RealizedPnL.IsZero(), "pnl %s", liq.RealizedPnL)
	require.True(t, balanceOf(t, eng, "u1").Equal(decimal.NewFromInt(10000)))

	pos, err := eng.Positions(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, pos.Holdings, "batch should be fully consumed")
}

func TestSellConsumesBatchesOldestFirst(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 1000)

	src.SetPrice("INFY", decimal.NewFromInt(10))
	_, err := eng.Buy(ctx, "u1", "INFY", 5)
	require.NoError(t, err)

	src.SetPrice("INFY", decimal.NewFromInt(20))
	_, err = eng.Buy(ctx, "u1", "INFY", 5)
	require.NoError(t, err)

	// Selling 7 must consume all of the @10 batch and 2 units of the @20
	// batch, leaving the @20 batch with 3.
	liq, err := eng.Sell(ctx, "u1", "INFY", 7)
	require.NoError(t, err)
	require.True(t, liq.CostBasis.Equal(decimal.NewFromInt(5*10+2*20)), "cost basis %s", liq.CostBasis)

	pos, err := eng.Positions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pos.Holdings, 1)
	require.True(t, pos.Holdings[0].Quantity.Equal(decimal.NewFromInt(3)))
	require.True(t, pos.Holdings[0].Price.Equal(decimal.NewFromInt(20)))
}

func TestBuyInsufficientFundsLeavesStateUntouched(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 100)
	src.SetPrice("TCS", decimal.NewFromInt(150))

	_, err := eng.Buy(ctx, "u1", "TCS", 1)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.True(t, balanceOf(t, eng, "u1").Equal(decimal.NewFromInt(100)))

	pos, err := eng.Positions(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, pos.Holdings)
}

func TestSellMoreThanOwnedFails(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 1000)
	src.SetPrice("TCS", decimal.NewFromInt(10))

	_, err := eng.Buy(ctx, "u1", "TCS", 5)
	require.NoError(t, err)

	_, err = eng.Sell(ctx, "u1", "TCS", 6)
	require.ErrorIs(t, err, domain.ErrInsufficientPosition)

	// No partial consumption, no credit.
	require.True(t, balanceOf(t, eng, "u1").Equal(decimal.NewFromInt(950)))
	pos, err := eng.Positions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pos.Holdings, 1)
	require.True(t, pos.Holdings[0].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestFundBatchesAreSeparateFromEquity(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 1000)
	src.SetPrice("BLUECHIP", decimal.NewFromInt(10))

	_, err := eng.BuyFund(ctx, "u1", "BLUECHIP", 20)
	require.NoError(t, err)

	// Equity sell of the same symbol must not see the fund units.
	_, err = eng.Sell(ctx, "u1", "BLUECHIP", 1)
	require.ErrorIs(t, err, domain.ErrInsufficientPosition)

	liq, err := eng.SellFund(ctx, "u1", "BLUECHIP", 20)
	require.NoError(t, err)
	require.True(t, liq.Proceeds.Equal(decimal.NewFromInt(200)))
}

func TestAccountNotFound(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	src.SetPrice("TCS", decimal.NewFromInt(10))
	_, err := eng.Buy(context.Background(), "ghost", "TCS", 1)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestQuoteFailureBlocksTrade(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 1000)
	src.Fail(domain.ErrPriceUnavailable)

	_, err := eng.Buy(ctx, "u1", "TCS", 1)
	require.ErrorIs(t, err, domain.ErrPriceUnavailable)
	require.True(t, balanceOf(t, eng, "u1").Equal(decimal.NewFromInt(1000)))
}

func TestCloseCallLotProfitAndClampedLoss(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 20000)

	// 1 lot of ^NSEI (lot size 50), entry 100, margin 5000.
	src.SetPrice("^NSEI", decimal.NewFromInt(100))
	open, err := eng.OpenLot(ctx, "u1", "^NSEI", domain.OptionCall, 1)
	require.NoError(t, err)
	require.EqualValues(t, 50, open.Lot.LotSize)
	require.True(t, open.Lot.MarginPaid.Equal(decimal.NewFromInt(5000)))
	require.True(t, open.Balance.Equal(decimal.NewFromInt(15000)))

	// Close at 110: refund = 5000 + (110-100)*50 = 5500.
	src.SetPrice("^NSEI", decimal.NewFromInt(110))
	res, err := eng.CloseLot(ctx, "u1", "^NSEI", domain.OptionCall)
	require.NoError(t, err)
	require.Equal(t, 1, res.LotsClosed)
	require.True(t, res.Refund.Equal(decimal.NewFromInt(5500)), "refund %s", res.Refund)
	require.True(t, res.Balance.Equal(decimal.NewFromInt(20500)))

	// Re-open at 100 and close at 50: pnl -2500... margin still floors the
	// refund at zero when the loss exceeds it.
	src.SetPrice("^NSEI", decimal.NewFromInt(100))
	_, err = eng.OpenLot(ctx, "u1", "^NSEI", domain.OptionCall, 1)
	require.NoError(t, err)
	src.SetPrice("^NSEI", decimal.NewFromInt(50))
	res, err = eng.CloseLot(ctx, "u1", "^NSEI", domain.OptionCall)
	require.NoError(t, err)
	require.True(t, res.Refund.IsZero(), "refund %s", res.Refund)
}

func TestClosePutLotGainsWhenPriceFalls(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 10000)

	src.SetPrice("BANKNIFTY", decimal.NewFromInt(200))
	_, err := eng.OpenLot(ctx, "u1", "BANKNIFTY", domain.OptionPut, 1)
	require.NoError(t, err)

	// Default lot size 15: refund = 5000 + (200-190)*15 = 5150.
	src.SetPrice("BANKNIFTY", decimal.NewFromInt(190))
	res, err := eng.CloseLot(ctx, "u1", "BANKNIFTY", domain.OptionPut)
	require.NoError(t, err)
	require.True(t, res.Refund.Equal(decimal.NewFromInt(5150)), "refund %s", res.Refund)
}

func TestCloseLotGroupsBySymbolAndType(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 30000)

	src.SetPrice("^NSEI", decimal.NewFromInt(100))
	_, err := eng.OpenLot(ctx, "u1", "^NSEI", domain.OptionCall, 1)
	require.NoError(t, err)
	_, err = eng.OpenLot(ctx, "u1", "^NSEI", domain.OptionCall, 1)
	require.NoError(t, err)
	_, err = eng.OpenLot(ctx, "u1", "^NSEI", domain.OptionPut, 1)
	require.NoError(t, err)

	src.SetPrice("^NSEI", decimal.NewFromInt(110))
	res, err := eng.CloseLot(ctx, "u1", "^NSEI", domain.OptionCall)
	require.NoError(t, err)
	require.Equal(t, 2, res.LotsClosed)
	require.True(t, res.Refund.Equal(decimal.NewFromInt(11000)), "refund %s", res.Refund)

	// The put survives the call close.
	pos, err := eng.Positions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pos.Derivatives, 1)
	require.Equal(t, domain.OptionPut, pos.Derivatives[0].OptionType)
}

func TestCloseLotWithoutPosition(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	fund(t, eng, "u1", 1000)
	src.SetPrice("^NSEI", decimal.NewFromInt(100))

	_, err := eng.CloseLot(context.Background(), "u1", "^NSEI", domain.OptionCall)
	require.ErrorIs(t, err, domain.ErrPositionNotFound)
}

func TestOpenLotInsufficientMargin(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 4999)
	src.SetPrice("^NSEI", decimal.NewFromInt(100))

	_, err := eng.OpenLot(ctx, "u1", "^NSEI", domain.OptionCall, 1)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.True(t, balanceOf(t, eng, "u1").Equal(decimal.NewFromInt(4999)))
}

func TestCreateDeposit(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 10000)

	res, err := eng.CreateDeposit(ctx, "u1", decimal.NewFromInt(6000), 12)
	require.NoError(t, err)
	require.Equal(t, domain.DepositActive, res.Deposit.Status)
	require.True(t, res.Deposit.Rate.Equal(decimal.NewFromFloat(0.07)))
	require.True(t, res.Balance.Equal(decimal.NewFromInt(4000)))

	_, err = eng.CreateDeposit(ctx, "u1", decimal.NewFromInt(6000), 12)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestConcurrentSellsOfLastUnitSerialize(t *testing.T) {
	eng, src, _ := newTestEngine(t)
	ctx := context.Background()
	fund(t, eng, "u1", 100)
	src.SetPrice("TCS", decimal.NewFromInt(100))

	_, err := eng.Buy(ctx, "u1", "TCS", 1)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Sell(ctx, "u1", "TCS", 1)
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, domain.ErrInsufficientPosition)
			short++
		}
	}
	require.Equal(t, 1, ok, "exactly one sell must succeed")
	require.Equal(t, 1, short, "the loser must fail with insufficient position")

	// Credited exactly once.
	require.True(t, balanceOf(t, eng, "u1").Equal(decimal.NewFromInt(100)))
	pos, err := eng.Positions(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, pos.Holdings)
}

func TestDuplicateAccount(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	fund(t, eng, "u1", 100)
	_, err := eng.CreateAccount(context.Background(), "u1", decimal.Zero)
	require.ErrorIs(t, err, domain.ErrAccountExists)
}
