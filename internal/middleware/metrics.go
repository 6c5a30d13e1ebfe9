package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/castaway-league-api/internal/service"
)

// unmatchedRoute labels requests that matched no registered route.
const unmatchedRoute = "unmatched"

// Metrics observes latency and status per route template, so
// /leagues/:id/leaderboard is one series however many leagues exist. Routes
// listed in skip, such as the scrape endpoint, are not observed.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		skipped[route] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := routeLabel(c)
		if _, ok := skipped[route]; ok {
			return
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
