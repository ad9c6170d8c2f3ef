package ledger

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/papertrade/ledger/internal/domain"
	"github.com/papertrade/ledger/internal/journal"
	"github.com/papertrade/ledger/internal/store"
)

// Fill is the result of a buy.
type Fill struct {
	UserID   string          `json:"user_id"`
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Balance  decimal.Decimal `json:"balance"`
}

// Liquidation is the result of a sell. CostBasis is the FIFO cost of the
// units sold; RealizedPnL = Proceeds - CostBasis.
type Liquidation struct {
	UserID      string          `json:"user_id"`
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Proceeds    decimal.Decimal `json:"proceeds"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	Balance     decimal.Decimal `json:"balance"`
}

// Buy purchases qty shares of symbol at the current quote.
func (e *Engine) Buy(ctx context.Context, userID, symbol string, qty int64) (*Fill, error) {
	return e.buy(ctx, domain.AssetEquity, journal.KindBuy, userID, symbol, qty)
}

// BuyFund purchases qty mutual-fund units at the current NAV.
func (e *Engine) BuyFund(ctx context.Context, userID, symbol string, qty int64) (*Fill, error) {
	return e.buy(ctx, domain.AssetFund, journal.KindBuyFund, userID, symbol, qty)
}

// Sell liquidates qty shares of symbol FIFO against the batch ledger.
func (e *Engine) Sell(ctx context.Context, userID, symbol string, qty int64) (*Liquidation, error) {
	return e.sell(ctx, domain.AssetEquity, journal.KindSell, userID, symbol, qty)
}

// SellFund liquidates qty fund units FIFO.
func (e *Engine) SellFund(ctx context.Context, userID, symbol string, qty int64) (*Liquidation, error) {
	return e.sell(ctx, domain.AssetFund, journal.KindSellFund, userID, symbol, qty)
}

func (e *Engine) buy(ctx context.Context, class domain.AssetClass, kind journal.Kind, userID, symbol string, qty int64) (*Fill, error) {
	if qty <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	price, err := e.source.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	quantity := decimal.NewFromInt(qty)
	cost := price.Mul(quantity)

	var fill Fill
	err = e.store.Update(func(tx *store.Tx) error {
		acct, err := tx.Account(userID)
		if err != nil {
			return err
		}
		if acct.CashBalance.LessThan(cost) {
			return errors.Wrapf(domain.ErrInsufficientFunds, "need %s, have %s", cost, acct.CashBalance)
		}
		acct.CashBalance = acct.CashBalance.Sub(cost)
		if err := tx.PutAccount(acct); err != nil {
			return err
		}
		if _, err := tx.AppendBatch(class, domain.Batch{
			UserID:   userID,
			Symbol:   symbol,
			Quantity: quantity,
			Price:    price,
		}); err != nil {
			return err
		}
		fill = Fill{UserID: userID, Symbol: symbol, Quantity: qty, Price: price, Cost: cost, Balance: acct.CashBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Infof("%s %d %s @ %s, cost %s", kind, qty, symbol, price, cost)
	e.record(ctx, journal.Event{UserID: userID, Kind: kind, Symbol: symbol, Quantity: qty, Price: price, Amount: cost})
	return &fill, nil
}

func (e *Engine) sell(ctx context.Context, class domain.AssetClass, kind journal.Kind, userID, symbol string, qty int64) (*Liquidation, error) {
	if qty <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	price, err := e.source.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	quantity := decimal.NewFromInt(qty)
	proceeds := price.Mul(quantity)

	var liq Liquidation
	err = e.store.Update(func(tx *store.Tx) error {
		batches, err := tx.Batches(class, userID, symbol)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for _, b := range batches {
			total = total.Add(b.Quantity)
		}
		if total.LessThan(quantity) {
			return errors.Wrapf(domain.ErrInsufficientPosition, "own %s of %s, selling %s", total, symbol, quantity)
		}

		acct, err := tx.Account(userID)
		if err != nil {
			return err
		}
		acct.CashBalance = acct.CashBalance.Add(proceeds)
		if err := tx.PutAccount(acct); err != nil {
			return err
		}

		// FIFO walk: batches arrive oldest first and are never reordered.
		remaining := quantity
		costBasis := decimal.Zero
		for _, b := range batches {
			if remaining.IsZero() {
				break
			}
			if b.Quantity.LessThanOrEqual(remaining) {
				costBasis = costBasis.Add(b.Quantity.Mul(b.Price))
				remaining = remaining.Sub(b.Quantity)
				if err := tx.DeleteBatch(class, b); err != nil {
					return err
				}
			} else {
				costBasis = costBasis.Add(remaining.Mul(b.Price))
				b.Quantity = b.Quantity.Sub(remaining)
				remaining = decimal.Zero
				if err := tx.PutBatch(class, b); err != nil {
					return err
				}
			}
		}

		liq = Liquidation{
			UserID:      userID,
			Symbol:      symbol,
			Quantity:    qty,
			Price:       price,
			Proceeds:    proceeds,
			CostBasis:   costBasis,
			RealizedPnL: proceeds.Sub(costBasis),
			Balance:     acct.CashBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Infof("%s %d %s @ %s, proceeds %s, pnl %s", kind, qty, symbol, price, proceeds, liq.RealizedPnL)
	e.record(ctx, journal.Event{UserID: userID, Kind: kind, Symbol: symbol, Quantity: qty, Price: price, Amount: proceeds})
	return &liq, nil
}
