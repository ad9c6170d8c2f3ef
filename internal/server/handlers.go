package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/papertrade/ledger/internal/domain"
	"github.com/papertrade/ledger/internal/ledger"
)

func (s *Server) requestCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.timeout)
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Backend is running"})
}

func (s *Server) handlePrice(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		badRequest(c, errors.New("symbol is required"))
		return
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	price, err := s.source.Quote(ctx, symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "price": price})
}

func (s *Server) handleAccountCreate(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.OpeningBalance.IsNegative() {
		badRequest(c, errors.New("opening balance must not be negative"))
		return
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	acct, err := s.engine.CreateAccount(ctx, req.UserID, req.OpeningBalance)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acct)
}

func (s *Server) handleAccountGet(c *gin.Context) {
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	acct, err := s.engine.GetAccount(ctx, c.Param("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

func (s *Server) handleBuy(c *gin.Context) {
	s.handleBuyOp(c, s.engine.Buy)
}

func (s *Server) handleBuyFund(c *gin.Context) {
	s.handleBuyOp(c, s.engine.BuyFund)
}

func (s *Server) handleSell(c *gin.Context) {
	s.handleSellOp(c, s.engine.Sell)
}

func (s *Server) handleSellFund(c *gin.Context) {
	s.handleSellOp(c, s.engine.SellFund)
}

func (s *Server) handleBuyOp(c *gin.Context, op func(context.Context, string, string, int64) (*ledger.Fill, error)) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	fill, err := op(ctx, req.UserID, strings.ToUpper(req.Symbol), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fill)
}

func (s *Server) handleSellOp(c *gin.Context, op func(context.Context, string, string, int64) (*ledger.Liquidation, error)) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	liq, err := op(ctx, req.UserID, strings.ToUpper(req.Symbol), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, liq)
}

func (s *Server) handleOpenLot(c *gin.Context) {
	var req foTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	optType := domain.OptionType(strings.ToUpper(req.OptionType))
	if !optType.Valid() {
		badRequest(c, errors.Errorf("option_type must be %s or %s", domain.OptionCall, domain.OptionPut))
		return
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	res, err := s.engine.OpenLot(ctx, req.UserID, strings.ToUpper(req.Symbol), optType, req.Lots)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleCloseLot(c *gin.Context) {
	var req foTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	optType := domain.OptionType(strings.ToUpper(req.OptionType))
	if !optType.Valid() {
		badRequest(c, errors.Errorf("option_type must be %s or %s", domain.OptionCall, domain.OptionPut))
		return
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	res, err := s.engine.CloseLot(ctx, req.UserID, strings.ToUpper(req.Symbol), optType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleCreateDeposit(c *gin.Context) {
	var req fdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	res, err := s.engine.CreateDeposit(ctx, req.UserID, req.Amount, req.DurationMonths)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handlePortfolio(c *gin.Context) {
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	pos, err := s.engine.Positions(ctx, c.Param("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is not enabled"})
		return
	}
	limit := 200
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 2000 {
			limit = n
		}
	}
	ctx, cancel := s.requestCtx(c)
	defer cancel()
	trades, err := s.journal.ListByUser(ctx, c.Param("user_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": c.Param("user_id"), "trades": trades})
}
