package ledger

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/papertrade/ledger/internal/domain"
	"github.com/papertrade/ledger/internal/journal"
	"github.com/papertrade/ledger/internal/store"
)

// OpenLotResult is the result of opening derivative lots.
type OpenLotResult struct {
	Lot     domain.DerivativeLot `json:"lot"`
	Balance decimal.Decimal      `json:"balance"`
}

// CloseLotResult is the result of closing all lots matching
// (symbol, option type). Refund is margin plus P&L, clamped at zero per
// lot: margin is the maximum loss.
type CloseLotResult struct {
	UserID     string            `json:"user_id"`
	Symbol     string            `json:"symbol"`
	OptionType domain.OptionType `json:"option_type"`
	LotsClosed int               `json:"lots_closed"`
	PnL        decimal.Decimal   `json:"pnl"`
	Refund     decimal.Decimal   `json:"refund"`
	Balance    decimal.Decimal   `json:"balance"`
}

// OpenLot opens lots of an index derivative under the fixed-margin model.
// The entry price is quoted before the store transaction.
func (e *Engine) OpenLot(ctx context.Context, userID, symbol string, optType domain.OptionType, lots int64) (*OpenLotResult, error) {
	if lots <= 0 {
		return nil, errors.New("lots must be positive")
	}
	if !optType.Valid() {
		return nil, errors.Errorf("invalid option type %q", optType)
	}
	entry, err := e.source.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	margin := e.cfg.MarginPerLot.Mul(decimal.NewFromInt(lots))
	lotSize := e.cfg.lotSize(symbol)

	var res OpenLotResult
	err = e.store.Update(func(tx *store.Tx) error {
		acct, err := tx.Account(userID)
		if err != nil {
			return err
		}
		if acct.CashBalance.LessThan(margin) {
			return errors.Wrapf(domain.ErrInsufficientFunds, "need %s margin, have %s", margin, acct.CashBalance)
		}
		acct.CashBalance = acct.CashBalance.Sub(margin)
		if err := tx.PutAccount(acct); err != nil {
			return err
		}
		lot, err := tx.PutLot(domain.DerivativeLot{
			UserID:     userID,
			Symbol:     symbol,
			OptionType: optType,
			Lots:       lots,
			LotSize:    lotSize,
			EntryPrice: entry,
			MarginPaid: margin,
		})
		if err != nil {
			return err
		}
		res = OpenLotResult{Lot: lot, Balance: acct.CashBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Infof("opened %d %s %s lots @ %s, margin %s", lots, symbol, optType, entry, margin)
	e.record(ctx, journal.Event{UserID: userID, Kind: journal.KindOpenFO, Symbol: symbol, Quantity: lots, Price: entry, Amount: margin})
	return &res, nil
}

// CloseLot closes every open lot matching (user, symbol, option type),
// summing refunds. Lot records are deleted; history goes to the journal.
func (e *Engine) CloseLot(ctx context.Context, userID, symbol string, optType domain.OptionType) (*CloseLotResult, error) {
	if !optType.Valid() {
		return nil, errors.Errorf("invalid option type %q", optType)
	}
	current, err := e.source.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var res CloseLotResult
	err = e.store.Update(func(tx *store.Tx) error {
		lots, err := tx.Lots(userID, symbol, optType)
		if err != nil {
			return err
		}
		if len(lots) == 0 {
			return errors.Wrapf(domain.ErrPositionNotFound, "%s %s", symbol, optType)
		}

		totalRefund := decimal.Zero
		totalPnL := decimal.Zero
		closed := 0
		for _, l := range lots {
			exposure := decimal.NewFromInt(l.Lots * l.LotSize)
			var pnl decimal.Decimal
			if l.OptionType == domain.OptionCall {
				pnl = current.Sub(l.EntryPrice).Mul(exposure)
			} else {
				pnl = l.EntryPrice.Sub(current).Mul(exposure)
			}
			refund := l.MarginPaid.Add(pnl)
			if refund.IsNegative() {
				refund = decimal.Zero
			}
			totalRefund = totalRefund.Add(refund)
			totalPnL = totalPnL.Add(pnl)
			closed++
			if err := tx.DeleteLot(l); err != nil {
				return err
			}
		}

		acct, err := tx.Account(userID)
		if err != nil {
			return err
		}
		acct.CashBalance = acct.CashBalance.Add(totalRefund)
		if err := tx.PutAccount(acct); err != nil {
			return err
		}
		res = CloseLotResult{
			UserID:     userID,
			Symbol:     symbol,
			OptionType: optType,
			LotsClosed: closed,
			PnL:        totalPnL,
			Refund:     totalRefund,
			Balance:    acct.CashBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Infof("closed %d %s %s positions @ %s, refund %s", res.LotsClosed, symbol, optType, current, res.Refund)
	e.record(ctx, journal.Event{UserID: userID, Kind: journal.KindCloseFO, Symbol: symbol, Quantity: int64(res.LotsClosed), Price: current, Amount: res.Refund})
	return &res, nil
}
