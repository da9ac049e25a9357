package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/config"
	"github.com/ArowuTest/jackpot-backend/internal/handlers"
	"github.com/ArowuTest/jackpot-backend/internal/metrics"
	"github.com/ArowuTest/jackpot-backend/internal/middleware"
	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/pkg/jwt"
)

const healthTimeout = 2 * time.Second

// HandlerDependencies holds everything the router mounts.
type HandlerDependencies struct {
	Config         *config.Config
	Logger         *zap.Logger
	Tokens         *jwt.Manager
	Metrics        *metrics.Metrics
	RateLimiter    *middleware.RateLimiter
	AuthHandler    *handlers.AuthHandler
	GameHandler    *handlers.GameHandler
	AccountHandler *handlers.AccountHandler
	PromoHandler   *handlers.PromoHandler
	AdminHandler   *handlers.AdminHandler
	WSHandler      *handlers.WSHandler
	// Health reports whether storage is reachable; nil means always healthy.
	Health         func(context.Context) error
}

// SetupRouter sets up the router
func SetupRouter(deps HandlerDependencies) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(deps.Config.Server))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.MetricsMiddleware(deps.Metrics))

	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", healthHandler(deps))

		auth := public.Group("/auth")
		{
			auth.POST("/telegram", deps.AuthHandler.TelegramLogin)
			auth.POST("/mock", deps.AuthHandler.MockLogin)
			auth.POST("/admin/login", deps.AuthHandler.AdminLogin)
		}

		game := public.Group("/game")
		{
			game.GET("/current", deps.GameHandler.Current)
			game.GET("/history", deps.GameHandler.History)
			game.GET("/online", deps.GameHandler.Online)
		}

		public.GET("/ws", deps.WSHandler.Stream)
	}

	authenticate := middleware.JWTAuthMiddleware(deps.Tokens, deps.Logger)

	// Player routes
	player := router.Group("/api/v1")
	player.Use(authenticate, middleware.RequireRole(models.RolePlayer), deps.RateLimiter.Handler())
	{
		me := player.Group("/me")
		{
			me.GET("", deps.AccountHandler.Me)
			me.PUT("", deps.AccountHandler.UpdateMe)
			me.GET("/bets", deps.AccountHandler.MyBets)
		}

		player.POST("/game/bets", deps.GameHandler.PlaceBet)
		player.POST("/promo/redeem", deps.PromoHandler.Redeem)
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(authenticate, middleware.RequireRole(models.RoleAdmin))
	{
		accounts := admin.Group("/accounts")
		{
			accounts.GET("", deps.AdminHandler.ListAccounts)
			accounts.POST("/:id/balance", deps.AdminHandler.AdjustBalance)
			accounts.POST("/:id/active", deps.AdminHandler.SetActive)
		}

		promos := admin.Group("/promos")
		{
			promos.GET("", deps.PromoHandler.List)
			promos.POST("", deps.PromoHandler.Create)
			promos.POST("/:code/toggle", deps.PromoHandler.Toggle)
		}

		rig := admin.Group("/rig")
		{
			rig.GET("", deps.AdminHandler.GetRig)
			rig.PUT("", deps.AdminHandler.SetRig)
			rig.DELETE("", deps.AdminHandler.ClearRig)
		}

		round := admin.Group("/round")
		{
			round.POST("/force-draw", deps.AdminHandler.ForceDraw)
			round.POST("/void", deps.AdminHandler.VoidRound)
			round.POST("/resume", deps.AdminHandler.ResumeSettlement)
		}
	}

	return router
}

func healthHandler(deps HandlerDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				deps.Logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	}
}
