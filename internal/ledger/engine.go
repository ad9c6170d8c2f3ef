// Package ledger is the accounting core: it reconciles trades against a
// virtual cash balance and a FIFO batch ledger. Quotes are resolved before
// any store transaction; every read-check-write sequence runs inside one
// store transaction so concurrent requests on the same account serialize.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/papertrade/ledger/internal/domain"
	"github.com/papertrade/ledger/internal/journal"
	"github.com/papertrade/ledger/internal/pricing"
	"github.com/papertrade/ledger/internal/store"
	"github.com/papertrade/ledger/pkg/logger"
)

// Config carries the trading parameters of the simulated exchange.
type Config struct {
	MarginPerLot   decimal.Decimal  // fixed margin debited per derivative lot
	DefaultLotSize int64            // lot size for symbols not in LotSizes
	LotSizes       map[string]int64 // per-symbol lot size overrides
	DepositRate    decimal.Decimal  // fixed annualized FD rate
}

// DefaultConfig mirrors the exchange parameters the simulator launched
// with: NIFTY lots of 50, everything else 15, 5000 margin per lot, 7% FDs.
func DefaultConfig() Config {
	return Config{
		MarginPerLot:   decimal.NewFromInt(5000),
		DefaultLotSize: 15,
		LotSizes:       map[string]int64{"^NSEI": 50},
		DepositRate:    decimal.NewFromFloat(0.07),
	}
}

func (c Config) lotSize(symbol string) int64 {
	if n, ok := c.LotSizes[symbol]; ok {
		return n
	}
	return c.DefaultLotSize
}

// Recorder receives executed-operation events. Recording is best-effort:
// a journal failure never fails the trade.
type Recorder interface {
	Record(ctx context.Context, e journal.Event) error
}

// Engine performs all balance and position mutations.
type Engine struct {
	store   *store.Store
	source  pricing.Source
	journal Recorder
	cfg     Config
	log     *logrus.Entry
}

// New builds an engine. journal may be nil.
func New(st *store.Store, src pricing.Source, j Recorder, cfg Config) *Engine {
	if cfg.MarginPerLot.IsZero() {
		cfg = DefaultConfig()
	}
	return &Engine{
		store:   st,
		source:  src,
		journal: j,
		cfg:     cfg,
		log:     logger.WithField("component", "ledger"),
	}
}

func (e *Engine) record(ctx context.Context, ev journal.Event) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(ctx, ev); err != nil {
		e.log.Warnf("journal record failed: %v", err)
	}
}

// CreateAccount provisions a new account with an opening balance.
func (e *Engine) CreateAccount(ctx context.Context, userID string, opening decimal.Decimal) (*domain.Account, error) {
	acct := domain.Account{ID: userID, CashBalance: opening}
	err := e.store.Update(func(tx *store.Tx) error {
		return tx.CreateAccount(acct)
	})
	if err != nil {
		return nil, err
	}
	e.log.Infof("account %s created, opening balance %s", userID, opening)
	return e.GetAccount(ctx, userID)
}

// GetAccount loads one account.
func (e *Engine) GetAccount(_ context.Context, userID string) (*domain.Account, error) {
	var acct *domain.Account
	err := e.store.View(func(tx *store.Tx) error {
		a, err := tx.Account(userID)
		if err != nil {
			return err
		}
		acct = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// Positions is everything a user holds, plus the account itself.
type Positions struct {
	Account     domain.Account         `json:"account"`
	Holdings    []domain.Batch         `json:"holdings"`
	Funds       []domain.Batch         `json:"funds"`
	Derivatives []domain.DerivativeLot `json:"derivatives"`
	Deposits    []domain.Deposit       `json:"deposits"`
}

// Positions returns a consistent snapshot of a user's portfolio.
func (e *Engine) Positions(_ context.Context, userID string) (*Positions, error) {
	var out Positions
	err := e.store.View(func(tx *store.Tx) error {
		acct, err := tx.Account(userID)
		if err != nil {
			return err
		}
		out.Account = *acct
		if out.Holdings, err = tx.BatchesByUser(domain.AssetEquity, userID); err != nil {
			return err
		}
		if out.Funds, err = tx.BatchesByUser(domain.AssetFund, userID); err != nil {
			return err
		}
		if out.Derivatives, err = tx.LotsByUser(userID); err != nil {
			return err
		}
		out.Deposits, err = tx.DepositsByUser(userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
