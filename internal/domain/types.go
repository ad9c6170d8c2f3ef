package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's virtual cash balance. Balances never go negative;
// accounts are never deleted by the accounting engine.
type Account struct {
	ID          string          `json:"id"`
	CashBalance decimal.Decimal `json:"cash_balance"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AssetClass separates equity holdings from mutual-fund holdings. Both use
// the same batch accounting; they live in distinct store collections.
type AssetClass string

const (
	AssetEquity AssetClass = "equity"
	AssetFund   AssetClass = "fund"
)

// Batch is a discrete lot of shares or fund units acquired at one price.
// Batches are append-only: a buy always creates a new batch, and sells
// consume batches strictly in creation order (FIFO). Seq is assigned by the
// store and is strictly increasing, so it fixes creation order even when
// two batches share a timestamp.
type Batch struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Seq       uint64          `json:"seq"`
	CreatedAt time.Time       `json:"created_at"`
}

// OptionType is the derivative side: CE (call) or PE (put).
type OptionType string

const (
	OptionCall OptionType = "CE"
	OptionPut  OptionType = "PE"
)

// Valid reports whether t is one of the two supported option types.
func (t OptionType) Valid() bool {
	return t == OptionCall || t == OptionPut
}

// DerivativeLot is an open index-derivative position. Lots are closed in
// full; there is no partial close, and no closed record is retained here
// (history is the journal's job).
type DerivativeLot struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Symbol     string          `json:"symbol"`
	OptionType OptionType      `json:"option_type"`
	Lots       int64           `json:"lots"`
	LotSize    int64           `json:"lot_size"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	MarginPaid decimal.Decimal `json:"margin_paid"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DepositStatus is the fixed-deposit lifecycle state. The engine only ever
// writes Active; maturity handling lives outside this core.
type DepositStatus string

const (
	DepositActive DepositStatus = "Active"
	DepositClosed DepositStatus = "Closed"
)

// Deposit is a fixed deposit: principal debited up front at a fixed
// annualized rate.
type Deposit struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	DurationMonths int             `json:"duration_months"`
	Rate           decimal.Decimal `json:"rate"`
	Status         DepositStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}
