package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marketplace/sellerhub/internal/api/handlers"
	"marketplace/sellerhub/internal/api/middleware"
	"marketplace/sellerhub/internal/config"
	"marketplace/sellerhub/internal/services"
)

// Services are the application services exposed over HTTP.
type Services struct {
	Sellers      services.ISellerService
	Registration services.IRegistrationService
	Verification services.IVerificationService
	Catalog      services.ICatalogService
	Locations    services.ILocationService
	Account      services.IAccountService
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, svc Services, verifyLimiter *middleware.RateLimiterMiddleware, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ZapLogger(logger), middleware.ZapRecovery(logger))
	r.Use(middleware.CORSMiddleware(cfg.CorsAllowedOrigin))

	sellerHandler := handlers.NewSellerHandler(svc.Sellers, cfg.JwtSecret, cfg.JwtTTL)
	registrationHandler := handlers.NewRegistrationHandler(svc.Registration, svc.Verification)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog, svc.Locations)
	accountHandler := handlers.NewAccountHandler(svc.Account)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		v1.POST("/sellers/register", sellerHandler.Register)
		v1.POST("/sellers/login", sellerHandler.Login)

		v1.GET("/catalog/categories", catalogHandler.Categories)
		v1.GET("/catalog/cities", catalogHandler.Cities)
		v1.GET("/places/autocomplete", catalogHandler.SearchPlaces)
		v1.GET("/places/geocode", catalogHandler.ResolvePlace)

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			reg := authRequired.Group("/registration")
			reg.GET("", registrationHandler.GetDraft)
			reg.PUT("/:section", registrationHandler.UpdateSection)
			reg.POST("/steps/:step/validate", registrationHandler.ValidateStep)
			reg.POST("/steps/:step/advance", registrationHandler.AdvanceStep)
			reg.POST("/submit", registrationHandler.Submit)
			reg.POST("/documents", registrationHandler.DocumentUpload)
			reg.POST("/verification/:subject", verifyLimiter.Limit(), registrationHandler.StartVerification)
			reg.GET("/verification/:subject", registrationHandler.VerificationStatus)

			acc := authRequired.Group("/account")
			acc.GET("/profile", accountHandler.Profile)
			acc.PUT("/profile", accountHandler.UpdateProfile)
			acc.GET("/wallet", accountHandler.Wallet)
			acc.GET("/wallet/transactions", accountHandler.WalletTransactions)
			acc.GET("/tickets", accountHandler.Tickets)
			acc.POST("/tickets", accountHandler.CreateTicket)
			acc.GET("/orders", accountHandler.Orders)
		}
	}

	return r
}

// SetupServiceRouter configures the internal service Gin engine.
func SetupServiceRouter(shutdownChan chan<- struct{}, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ZapLogger(logger), middleware.ZapRecovery(logger))

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			logger.Info("received shutdown command via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				logger.Warn("shutdown already signaled")
			}
		case "ping":
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "pong"})
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Unknown service method: " + req.Method})
		}
	})
	return r
}
