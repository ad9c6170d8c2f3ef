package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/papertrade/ledger/internal/domain"
	"github.com/papertrade/ledger/pkg/logger"
)

// writeError maps the domain error taxonomy onto HTTP statuses: business
// rules 400, missing accounts 404, quote failures 503/408, the rest 500.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientPosition),
		errors.Is(err, domain.ErrPositionNotFound):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAccountExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPriceTimeout):
		status = http.StatusRequestTimeout
	case errors.Is(err, domain.ErrPriceUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.Errorf("internal error on %s: %v", c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
