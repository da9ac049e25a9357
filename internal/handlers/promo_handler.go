package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/services"
)

// PromoHandler handles promo code redemption and administration
type PromoHandler struct {
	promos *services.PromoService
	logger *zap.Logger
}

func NewPromoHandler(promos *services.PromoService, logger *zap.Logger) *PromoHandler {
	return &PromoHandler{promos: promos, logger: logger}
}

// Redeem handles POST /promo/redeem
func (h *PromoHandler) Redeem(c *gin.Context) {
	var req models.RedeemPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	promo, acct, err := h.promos.Redeem(c.Request.Context(), subject(c), req.Code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    promo.Code,
		"amount":  promo.Amount,
		"balance": acct.Balance,
	})
}

// List handles GET /admin/promos
func (h *PromoHandler) List(c *gin.Context) {
	promos, err := h.promos.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"promos": promos})
}

// Create handles POST /admin/promos
func (h *PromoHandler) Create(c *gin.Context) {
	var req models.CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	promo, err := h.promos.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, promo)
}

// Toggle handles POST /admin/promos/:code/toggle
func (h *PromoHandler) Toggle(c *gin.Context) {
	promo, err := h.promos.Toggle(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, promo)
}
