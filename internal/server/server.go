// Package server exposes the accounting engine over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/papertrade/ledger/internal/journal"
	"github.com/papertrade/ledger/internal/ledger"
	"github.com/papertrade/ledger/internal/pricing"
)

type Config struct {
	Engine  *ledger.Engine
	Source  pricing.Source
	Journal *journal.Journal // optional; /history 404s without it

	// RequestTimeout bounds a single request end to end, quote included.
	RequestTimeout time.Duration
}

type Server struct {
	engine  *ledger.Engine
	source  pricing.Source
	journal *journal.Journal
	timeout time.Duration
}

func New(cfg Config) *Server {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Server{
		engine:  cfg.Engine,
		source:  cfg.Source,
		journal: cfg.Journal,
		timeout: timeout,
	}
}

// Router builds the gin handler. Routes match the simulator's public API
// one endpoint per operation.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), cors())

	r.GET("/ping", s.handlePing)
	r.GET("/price/:symbol", s.handlePrice)

	r.POST("/accounts", s.handleAccountCreate)
	r.GET("/accounts/:user_id", s.handleAccountGet)

	r.POST("/buy", s.handleBuy)
	r.POST("/sell", s.handleSell)
	r.POST("/buy_mf", s.handleBuyFund)
	r.POST("/sell_mf", s.handleSellFund)
	r.POST("/buy_fo", s.handleOpenLot)
	r.POST("/close_fo", s.handleCloseLot)
	r.POST("/create_fd", s.handleCreateDeposit)

	r.GET("/portfolio/:user_id", s.handlePortfolio)
	r.GET("/history/:user_id", s.handleHistory)

	return r
}

// cors allows the static frontend (any origin) to call the API.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
