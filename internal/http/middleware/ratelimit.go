// Package middleware contains the Gin middleware of the ops API.
//
// This file adapts the shared throttle.Limiter to HTTP: one token bucket per
// client address, 429 with the standard error envelope when empty.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/cheshire-bot/internal/throttle"
)

// KeyFunc selects the identity used to key a rate-limit bucket.
type KeyFunc func(*gin.Context) string

// KeyByClientIP keys buckets by the client address.
func KeyByClientIP() KeyFunc {
	return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
}

// RateLimit returns a middleware enforcing lim per key. A disabled limiter
// lets every request through.
//
// Rejected requests get:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: 1
//	{"request_id": "<uuid>", "code": "too_many_requests", "message": "rate limit exceeded"}
func RateLimit(lim *throttle.Limiter, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lim.Allow(keyFn(c)) {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
