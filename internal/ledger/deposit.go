package ledger

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/papertrade/ledger/internal/domain"
	"github.com/papertrade/ledger/internal/journal"
	"github.com/papertrade/ledger/internal/store"
)

// DepositResult is the result of opening a fixed deposit.
type DepositResult struct {
	Deposit domain.Deposit  `json:"deposit"`
	Balance decimal.Decimal `json:"balance"`
}

// CreateDeposit debits the principal and records an active fixed deposit
// at the configured rate. Maturity handling is out of scope.
func (e *Engine) CreateDeposit(ctx context.Context, userID string, amount decimal.Decimal, durationMonths int) (*DepositResult, error) {
	if !amount.IsPositive() {
		return nil, errors.New("amount must be positive")
	}
	if durationMonths <= 0 {
		return nil, errors.New("duration must be positive")
	}

	var res DepositResult
	err := e.store.Update(func(tx *store.Tx) error {
		acct, err := tx.Account(userID)
		if err != nil {
			return err
		}
		if acct.CashBalance.LessThan(amount) {
			return errors.Wrapf(domain.ErrInsufficientFunds, "need %s, have %s", amount, acct.CashBalance)
		}
		acct.CashBalance = acct.CashBalance.Sub(amount)
		if err := tx.PutAccount(acct); err != nil {
			return err
		}
		dep, err := tx.PutDeposit(domain.Deposit{
			UserID:         userID,
			Amount:         amount,
			DurationMonths: durationMonths,
			Rate:           e.cfg.DepositRate,
			Status:         domain.DepositActive,
		})
		if err != nil {
			return err
		}
		res = DepositResult{Deposit: dep, Balance: acct.CashBalance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Infof("fd created for %s: %s over %d months", userID, amount, durationMonths)
	e.record(ctx, journal.Event{UserID: userID, Kind: journal.KindCreateFD, Quantity: int64(durationMonths), Amount: amount})
	return &res, nil
}
