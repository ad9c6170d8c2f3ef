package domain

import "github.com/pkg/errors"

// Business-rule failures surfaced to API clients. Handlers map these to
// HTTP status codes; everything else is a 500.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountExists        = errors.New("account already exists")
	ErrInsufficientFunds    = errors.New("insufficient balance")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrPositionNotFound     = errors.New("position not found")
	ErrPriceUnavailable     = errors.New("market data unavailable")
	ErrPriceTimeout         = errors.New("market data timed out")
)
