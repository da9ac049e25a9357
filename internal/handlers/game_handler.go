package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/services"
)

// GameHandler serves the live round and the round history
type GameHandler struct {
	game     services.GameService
	history  *services.HistoryService
	accounts *services.AccountService
	logger   *zap.Logger
}

func NewGameHandler(game services.GameService, history *services.HistoryService, accounts *services.AccountService, logger *zap.Logger) *GameHandler {
	return &GameHandler{game: game, history: history, accounts: accounts, logger: logger}
}

// Current handles GET /game/current
func (h *GameHandler) Current(c *gin.Context) {
	c.JSON(http.StatusOK, h.game.State())
}

// History handles GET /game/history?limit=N
func (h *GameHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rounds": records})
}

// Online handles GET /game/online
func (h *GameHandler) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.accounts.Online()})
}

// PlaceBet handles POST /game/bets
func (h *GameHandler) PlaceBet(c *gin.Context) {
	var req models.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("unreadable bet body", zap.Error(err))
		respondError(c, h.logger, services.ErrInvalidAmount)
		return
	}
	accountID := subject(c)
	h.accounts.Touch(accountID)

	receipt, err := h.game.SubmitBet(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}
