package pricing

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/papertrade/ledger/internal/domain"
	"github.com/papertrade/ledger/pkg/logger"
)

// DefaultBaseURL is the Yahoo Finance chart API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// DefaultTimeout bounds a single quote round trip.
const DefaultTimeout = 5 * time.Second

// YahooSource fetches spot prices from the Yahoo Finance v8 chart endpoint.
type YahooSource struct {
	client *resty.Client
}

// NewYahooSource builds a quote client against baseURL. Quote failures are
// surfaced immediately as declined trades, so the client carries no retry
// policy.
func NewYahooSource(baseURL string, timeout time.Duration) *YahooSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	return &YahooSource{client: client}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// Quote returns the regular market price for symbol. Timeouts map to
// ErrPriceTimeout, everything else that prevents a positive price maps to
// ErrPriceUnavailable.
func (s *YahooSource) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var out chartResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/v8/finance/chart/%s", url.PathEscape(symbol)))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return decimal.Zero, errors.Wrapf(domain.ErrPriceTimeout, "quote %s", symbol)
		}
		logger.Warnf("quote %s failed: %v", symbol, err)
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "quote %s", symbol)
	}
	if !resp.IsSuccess() {
		logger.Warnf("quote %s: http %d", symbol, resp.StatusCode())
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "quote %s: http %d", symbol, resp.StatusCode())
	}
	if len(out.Chart.Result) == 0 {
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "quote %s: empty result", symbol)
	}
	price := out.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return decimal.Zero, errors.Wrapf(domain.ErrPriceUnavailable, "quote %s: non-positive price", symbol)
	}
	return decimal.NewFromFloat(price), nil
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var t timeouter
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return false
}
