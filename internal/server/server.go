package server

import (
	"net/http"

	"github.com/bituzin/stacks-boost-app/internal/config"
	"github.com/bituzin/stacks-boost-app/internal/engine"
	"github.com/bituzin/stacks-boost-app/internal/handlers"
	"github.com/bituzin/stacks-boost-app/internal/helpers"
	"github.com/bituzin/stacks-boost-app/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP API over e. The metrics route is registered only
// when m is non-nil.
func NewRouter(e *engine.Engine, m *metrics.Registry) *gin.Engine {
	cfg := e.Config()
	if cfg.Stage == helpers.StageProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	InitializeRoutes(router, e, m)
	return router
}

// InitializeRoutes registers middleware and every API route on router
func InitializeRoutes(router *gin.Engine, e *engine.Engine, m *metrics.Registry) {
	cfg := e.Config()
	commonServices := handlers.NewCommonServices(e)

	healthHandler := handlers.NewHealthHandler(commonServices)
	networkHandler := handlers.NewNetworkHandler(commonServices)
	walletHandler := handlers.NewWalletHandler(commonServices)
	accountHandler := handlers.NewAccountHandler(commonServices)
	actionHandler := handlers.NewActionHandler(commonServices)

	router.Use(configureCORS(cfg))
	router.Use(handlers.RequestID())

	router.GET("/health", healthHandler.Health)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	if cfg.Stage != helpers.StageProd {
		router.Use(handlers.LogRequest())
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/config", networkHandler.GetNetwork)

		wallets := v1.Group("/wallets")
		{
			wallets.GET("", walletHandler.ListWallets)
			wallets.GET("/active", walletHandler.GetActiveWallet)
			wallets.POST("/select", walletHandler.SelectWallet)
			wallets.POST("/connect", walletHandler.ConnectWallet)
			wallets.POST("/disconnect", walletHandler.DisconnectWallet)
		}

		v1.GET("/position", accountHandler.GetPosition)

		account := v1.Group("/account")
		{
			account.GET("/balances", accountHandler.GetBalances)
			account.GET("/transactions", accountHandler.ListTransactions)
		}
		v1.GET("/transactions/:tx_id", accountHandler.GetTransaction)

		v1.POST("/actions/:action", actionHandler.SubmitAction)
		v1.GET("/lifecycle", actionHandler.GetLifecycle)
		v1.GET("/history", actionHandler.ListHistory)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Error: "Not found"})
	})
}

// configureCORS returns a configured CORS middleware
func configureCORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	switch {
	case len(cfg.CORSAllowedOrigins) == 0:
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	case len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*":
		corsConfig.AllowAllOrigins = true
	default:
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", handlers.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{handlers.RequestIDHeader}
	return cors.New(corsConfig)
}
