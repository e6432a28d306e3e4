package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Admitter decides whether one more request from an identifier may proceed.
type Admitter interface {
	Admit(identifier string) bool
}

// OnRateLimited is called with the route when a request is declined.
type OnRateLimited func(route string)

// RateLimit declines requests over the admitter's window with 429. Caller
// identity is the client IP.
func RateLimit(adm Admitter, onReject OnRateLimited) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !adm.Admit(c.RealIP()) {
				if onReject != nil {
					onReject(c.Path())
				}
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": "Too Many Requests",
					"data": []map[string]string{{
						"code":    "ERR_RATE_LIMITED",
						"message": "rate limit exceeded, retry later",
					}},
				})
			}
			return next(c)
		}
	}
}
