package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadflow/internal/auth"
	"leadflow/internal/campaign"
	"leadflow/internal/config"
	"leadflow/internal/deposit"
	"leadflow/internal/lead"
	"leadflow/internal/payment"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(
	cfg *config.Config,
	depositHandler *deposit.Handler,
	leadHandler *lead.Handler,
	campaignHandler *campaign.Handler,
	paymentHandler *payment.Handler,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(10, 20))

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	// gateway webhook; authenticated by shared key, not JWT
	router.POST("/payments/confirm", paymentHandler.Confirm)

	if gin.Mode() != gin.ReleaseMode {
		router.GET("/dev/token", DevToken(cfg.JWTSecret))
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)

	authed := router.Group("/")
	authed.Use(authMiddleware)
	{
		authed.GET("/campaigns", campaignHandler.ListCampaigns)
		authed.GET("/campaigns/:campaignID", campaignHandler.GetCampaign)
	}

	influencer := router.Group("/")
	influencer.Use(authMiddleware, auth.RequireRole(auth.RoleInfluencer), ActorRateLimitMiddleware(2, 10))
	{
		influencer.POST("/leads/preview", leadHandler.Preview)
		influencer.POST("/leads", leadHandler.CreateLead)
		influencer.GET("/leads/mine", leadHandler.ListOwnLeads)
	}

	merchant := router.Group("/")
	merchant.Use(authMiddleware, auth.RequireRole(auth.RoleMerchant))
	{
		merchant.GET("/campaigns/mine", campaignHandler.ListOwnCampaigns)

		merchant.GET("/leads", leadHandler.ListLeads)
		merchant.POST("/leads/:leadID/validate", leadHandler.ValidateLead)
		merchant.POST("/leads/:leadID/reject", leadHandler.RejectLead)

		merchant.GET("/deposits", depositHandler.List)
		merchant.GET("/deposits/balance", depositHandler.GetBalance)
		merchant.POST("/deposits", depositHandler.CreateDeposit)
		merchant.GET("/deposits/stats", depositHandler.Stats)
		merchant.GET("/deposits/:depositID/transactions", depositHandler.History)
		merchant.POST("/deposits/:depositID/recharge", depositHandler.Recharge)
		merchant.POST("/deposits/:depositID/suspend", depositHandler.Suspend)
		merchant.POST("/deposits/:depositID/auto-recharge", depositHandler.ConfigureAutoRecharge)
	}

	return &Server{
		router: router,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
