package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/middleware"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"github.com/ArowuTest/jackpot-backend/internal/services"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrInvalidAmount, http.StatusBadRequest},
	{services.ErrInvalidName, http.StatusBadRequest},
	{services.ErrInsufficientFunds, http.StatusPaymentRequired},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrAccountInactive, http.StatusForbidden},
	{services.ErrPromoInactive, http.StatusForbidden},
	{services.ErrUnknownAccount, http.StatusNotFound},
	{services.ErrPromoNotFound, http.StatusNotFound},
	{services.ErrMockLoginDisabled, http.StatusNotFound},
	{repositories.ErrNotFound, http.StatusNotFound},
	{services.ErrRoundClosed, http.StatusConflict},
	{services.ErrDisplayNameTaken, http.StatusConflict},
	{services.ErrPromoAlreadyUsed, http.StatusConflict},
	{services.ErrPromoExhausted, http.StatusConflict},
	{services.ErrPromoExists, http.StatusConflict},
	{services.ErrInvalidPhase, http.StatusConflict},
	{services.ErrDuplicateSettlement, http.StatusConflict},
	{services.ErrSettlementHalted, http.StatusLocked},
	{services.ErrPayoutFailed, http.StatusLocked},
}

// respondError writes the status mapped from err. Unmapped errors are logged and hidden.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.err.Error()})
			return
		}
	}
	_ = c.Error(err)
	logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(middleware.ContextRequestID)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func subject(c *gin.Context) string {
	return c.GetString(middleware.ContextSubject)
}
