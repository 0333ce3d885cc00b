package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"liyu1981.xyz/iot-anchor-service/pkg/anchor"
	"liyu1981.xyz/iot-anchor-service/pkg/metrics"
)

type RestfulServer struct {
	Server           *gin.Engine
	Anchor           *anchor.Anchor
	Poller           *anchor.Poller
	RateLimiterStore *anchor.RateLimiterStore
	Metrics          *metrics.Collectors
	// Gatherer backs /metrics, prometheus.DefaultGatherer when nil.
	Gatherer          prometheus.Gatherer
	InternalAPISecret string
}

func (rs *RestfulServer) GetLimiter(userID string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(userID)
	}
}

func (rs *RestfulServer) CheckUserLimiter(userID string) bool {
	return rs.RateLimiterStore.Allow(userID)
}

func (rs *RestfulServer) SetLimiter(userID string, userRate float64, userBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(userID, rate.Limit(userRate), userBurst)
}

// RequireInternalSecret accepts only "Authorization: Bearer <InternalAPISecret>".
// With no secret configured every request is refused.
func (rs *RestfulServer) RequireInternalSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || rs.InternalAPISecret == "" ||
			subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(rs.InternalAPISecret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrorResponse{
				Kind:    "UNAUTHORIZED",
				Code:    "UNAUTHORIZED",
				Message: "missing or invalid internal api secret",
			}})
			return
		}
		c.Next()
	}
}

func (rs *RestfulServer) Setup() {
	rs.Server.Use(rs.Metrics.Middleware())

	gatherer := rs.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	rs.Server.GET("/healthz", rs.HealthCheck)
	rs.Server.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	rs.Server.GET("/stats/:chain", rs.GetStats)
	rs.Server.GET("/devices/:chip_id/status", rs.GetDeviceStatus)

	users := rs.Server.Group("/users/:user_id")
	{
		users.POST("/uploads", rs.PostUpload)
		users.GET("/uploads", rs.GetUploads)
		users.GET("/attempts", rs.GetAttempts)
		users.GET("/preferences", rs.GetPreferences)
		users.PUT("/preferences", rs.PutPreferences)
	}

	internal := rs.Server.Group("/internal", rs.RequireInternalSecret())
	{
		internal.POST("/confirmations/sweep", rs.PostSweep)
		internal.POST("/confirmations/:chain/:tx_id", rs.PostConfirmation)
		internal.POST("/users/:user_id/limiter", rs.PostLimiter)
	}
}
