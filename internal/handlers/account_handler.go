package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/services"
)

// AccountHandler serves the signed-in player's own account
type AccountHandler struct {
	accounts *services.AccountService
	history  *services.HistoryService
	logger   *zap.Logger
}

func NewAccountHandler(accounts *services.AccountService, history *services.HistoryService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, history: history, logger: logger}
}

// Me handles GET /me
func (h *AccountHandler) Me(c *gin.Context) {
	id := subject(c)
	h.accounts.Touch(id)
	stats, err := h.accounts.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateMe handles PUT /me
func (h *AccountHandler) UpdateMe(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acct, err := h.accounts.UpdateProfile(c.Request.Context(), subject(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

// MyBets handles GET /me/bets
func (h *AccountHandler) MyBets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	bets, err := h.history.Bets(c.Request.Context(), subject(c), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bets": bets})
}
