package pricing

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/papertrade/ledger/internal/domain"
)

// MockSource serves fixed prices from memory. Used by tests and when the
// server runs with pricing mode "mock".
type MockSource struct {
	mu       sync.RWMutex
	prices   map[string]decimal.Decimal
	fallback decimal.Decimal
	err      error
}

// NewMockSource returns a source that answers fallback for any symbol not
// explicitly set. A zero fallback means unknown symbols fail.
func NewMockSource(fallback decimal.Decimal) *MockSource {
	return &MockSource{
		prices:   make(map[string]decimal.Decimal),
		fallback: fallback,
	}
}

// SetPrice pins the quote for one symbol.
func (m *MockSource) SetPrice(symbol string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = price
}

// Fail makes every subsequent Quote return err until cleared with nil.
func (m *MockSource) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockSource) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return decimal.Zero, m.err
	}
	if p, ok := m.prices[symbol]; ok {
		return p, nil
	}
	if m.fallback.IsPositive() {
		return m.fallback, nil
	}
	return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "quote %s: unknown symbol", symbol)
}
