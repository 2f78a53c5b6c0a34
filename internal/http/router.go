// Package httpapi wires the ops API: Gin, the middleware chain, and the
// handlers over the environment cache.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/cheshire-bot/internal/config"
	"github.com/tbourn/cheshire-bot/internal/http/docs"
	"github.com/tbourn/cheshire-bot/internal/http/handlers"
	"github.com/tbourn/cheshire-bot/internal/http/middleware"
	"github.com/tbourn/cheshire-bot/internal/throttle"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// RegisterRoutes attaches the middleware chain and every endpoint to r.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. Logger
//  4. Recovery
//  5. Body size limiter
//  6. Metrics
//  7. Per-IP rate limiter
//  8. gzip, CORS, and security headers
//
// /health, /metrics, and /swagger stay outside the bearer-token group.
func RegisterRoutes(r *gin.Engine, env handlers.Env, flusher handlers.Flusher, cfg config.Config) {
	hc := cfg.HTTP
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimit(throttle.New(hc.RateRPS, hc.RateBurst), middleware.KeyByClientIP()))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(cors.New(corsConfig(hc.CORS)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: hc.Security.EnableHSTS,
		HSTSMaxAge: hc.Security.HSTSMaxAge,
		NoStore:    true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if hc.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = hc.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(env, flusher)
	api := groupWithPrefix(r, hc.APIBasePath)
	api.Use(middleware.BearerToken(hc.OpsToken))
	{
		api.GET("/users", h.ListUsers)
		api.GET("/users/:id", h.GetUser)
		api.PUT("/users/:id/status", h.SetUserStatus)

		api.POST("/users/:id/orders", h.CreateOrder)
		api.PATCH("/users/:id/orders/:orderID", h.UpdateOrder)
		api.DELETE("/users/:id/orders/:orderID", h.DeleteOrder)

		api.GET("/chats/:id/triggers", h.ListChatTriggers)
		api.POST("/dump", h.Dump)
	}
}

// corsConfig allows every origin when none are configured. Credentials stay
// off; the ops token travels in the Authorization header.
func corsConfig(c config.CORSConfig) cors.Config {
	out := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 {
		out.AllowAllOrigins = true
	} else {
		out.AllowOrigins = c.AllowedOrigins
	}
	return out
}

// limitBody caps the request body at maxBytes; reads past it fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
