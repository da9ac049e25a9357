package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/services"
)

// AdminHandler exposes the operator tools
type AdminHandler struct {
	accounts  *services.AccountService
	game      services.GameService
	overrides *services.RigOverride
	logger    *zap.Logger
}

func NewAdminHandler(accounts *services.AccountService, game services.GameService, overrides *services.RigOverride, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{accounts: accounts, game: game, overrides: overrides, logger: logger}
}

// ListAccounts handles GET /admin/accounts?page=&limit=
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	accounts, total, err := h.accounts.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "total": total, "page": page})
}

// AdjustBalance handles POST /admin/accounts/:id/balance
func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	var req struct {
		Delta decimal.Decimal `json:"delta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acct, err := h.accounts.AdjustBalance(c.Request.Context(), c.Param("id"), req.Delta, subject(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Info("balance adjusted by operator",
		zap.String("account_id", acct.ID), zap.String("delta", req.Delta.String()), zap.String("actor", subject(c)))
	c.JSON(http.StatusOK, acct)
}

// SetActive handles POST /admin/accounts/:id/active
func (h *AdminHandler) SetActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acct, err := h.accounts.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

// GetRig handles GET /admin/rig
func (h *AdminHandler) GetRig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accountId": h.overrides.Peek()})
}

// SetRig handles PUT /admin/rig
func (h *AdminHandler) SetRig(c *gin.Context) {
	var req struct {
		AccountID string `json:"accountId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.accounts.Get(c.Request.Context(), req.AccountID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.overrides.Set(c.Request.Context(), req.AccountID, subject(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accountId": req.AccountID})
}

// ClearRig handles DELETE /admin/rig
func (h *AdminHandler) ClearRig(c *gin.Context) {
	if err := h.overrides.Clear(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ForceDraw handles POST /admin/round/force-draw
func (h *AdminHandler) ForceDraw(c *gin.Context) {
	if err := h.game.ForceDraw(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.game.State())
}

// VoidRound handles POST /admin/round/void
func (h *AdminHandler) VoidRound(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "voided by " + subject(c)
	}
	if err := h.game.VoidRound(c.Request.Context(), req.Reason); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.game.State())
}

// ResumeSettlement handles POST /admin/round/resume
func (h *AdminHandler) ResumeSettlement(c *gin.Context) {
	if err := h.game.ResumeSettlement(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.game.State())
}
