// Package journal keeps an append-only history of executed operations in
// SQLite. The accounting engine keeps no closed-position records itself;
// this is the collaborator that does.
package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Kind tags a journal row with the operation that produced it.
type Kind string

const (
	KindBuy      Kind = "buy"
	KindSell     Kind = "sell"
	KindBuyFund  Kind = "buy_mf"
	KindSellFund Kind = "sell_mf"
	KindOpenFO   Kind = "buy_fo"
	KindCloseFO  Kind = "close_fo"
	KindCreateFD Kind = "create_fd"
)

// Event is one executed operation. Amount is the cash delta magnitude
// (cost, proceeds, margin, refund or principal); Price is the quote the
// trade executed at, zero where no quote applies.
type Event struct {
	UserID   string
	Kind     Kind
	Symbol   string
	Quantity int64
	Price    decimal.Decimal
	Amount   decimal.Decimal
	At       time.Time
}

// Trade is a journal row as served to clients.
type Trade struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Kind      Kind            `json:"kind"`
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database and applies the
// schema.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "journal: mkdir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "journal: open sqlite")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one event.
func (j *Journal) Record(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx, `
INSERT INTO trades (user_id,kind,symbol,quantity,price,amount,created_at)
VALUES (?,?,?,?,?,?,?)
`, e.UserID, string(e.Kind), e.Symbol, e.Quantity, e.Price.String(), e.Amount.String(), e.At.Format(time.RFC3339Nano))
	return errors.Wrap(err, "journal: insert trade")
}

// ListByUser returns the user's most recent trades, newest first.
func (j *Journal) ListByUser(ctx context.Context, userID string, limit int) ([]Trade, error) {
	if limit <= 0 || limit > 2000 {
		limit = 200
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id,user_id,kind,symbol,quantity,price,amount,created_at
FROM trades WHERE user_id=? ORDER BY id DESC LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "journal: list trades")
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		var kind, price, amount, created string
		if err := rows.Scan(&t.ID, &t.UserID, &kind, &t.Symbol, &t.Quantity, &price, &amount, &created); err != nil {
			return nil, errors.Wrap(err, "journal: scan trade")
		}
		t.Kind = Kind(kind)
		t.Price, _ = decimal.NewFromString(price)
		t.Amount, _ = decimal.NewFromString(amount)
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, t)
	}
	return out, rows.Err()
}
