// Package pricing resolves market quotes for the accounting engine.
//
// Quotes are always resolved before any store transaction: a quote call is
// a network round trip and must never run while holding store state.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Source yields the current price for a symbol. A failed quote is a hard
// stop for the calling trade; no retries are attempted here.
type Source interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}
