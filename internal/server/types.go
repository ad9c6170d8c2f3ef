package server

import "github.com/shopspring/decimal"

type tradeRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Symbol   string `json:"symbol" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required,min=1"`
}

type foTradeRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	Symbol     string `json:"symbol" binding:"required"`
	OptionType string `json:"option_type" binding:"required"`
	Lots       int64  `json:"lots" binding:"required,min=1"`
}

type fdRequest struct {
	UserID         string          `json:"user_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	DurationMonths int             `json:"duration_months" binding:"required,min=1"`
}

type accountRequest struct {
	UserID         string          `json:"user_id" binding:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}
