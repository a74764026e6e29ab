package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"fixflow/internal/caching"

	"github.com/labstack/echo/v4"
)

// RateLimit caps requests per client IP on public endpoints. The
// counter lives in redis so the cap holds across instances. Redis
// being down fails open: a throttle is not worth an outage.
func RateLimit(cacheSvc caching.CacheService, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("%s:%s", c.Path(), c.RealIP())
			limited, err := cacheSvc.IsRateLimited(c.Request().Context(), key, limit, window)
			if err != nil {
				log.Printf("rate limit check failed for %s: %v", key, err)
				return next(c)
			}
			if limited {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts, retry later")
			}
			return next(c)
		}
	}
}
