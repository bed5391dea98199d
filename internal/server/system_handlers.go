package server

import (
	"net/http"

	"leadflow/internal/api"
	"leadflow/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// DevToken mints a bearer token for local testing. Not registered in release
// mode; identity management lives outside this service.
// @Summary      Mint a development token
// @Tags         system
// @Produce      json
// @Param        actor_id query string true "Actor UUID"
// @Param        role query string true "influencer or merchant"
// @Success      200 {object} map[string]string
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /dev/token [get]
func DevToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, err := uuid.Parse(c.Query("actor_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "actor_id must be a UUID"})
			return
		}

		role := c.Query("role")
		if role != auth.RoleInfluencer && role != auth.RoleMerchant {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "role must be influencer or merchant"})
			return
		}

		token, err := auth.GenerateToken(actorID, role, secret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to mint token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
