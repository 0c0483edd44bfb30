package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestId"
)

var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"base-uri 'self'",
	"font-src 'self' https: data:",
	"form-action 'self'",
	"frame-ancestors 'self'",
	"img-src 'self' data: https:",
	"object-src 'none'",
	"script-src 'self'",
	"script-src-attr 'none'",
	"style-src 'self' 'unsafe-inline'",
	"upgrade-insecure-requests",
}, "; ")

// requestID tags every request with an id, reusing a well-formed incoming one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"requestId", c.GetString(requestIDKey),
		)
	}
}

// recovery turns a panic into the generic 500 body.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		s.logger.Error("Panic while handling request",
			"path", c.Request.URL.Path,
			"requestId", c.GetString(requestIDKey),
			"panic", recovered,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, internalErrorBody)
	})
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-XSS-Protection", "0")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Download-Options", "noopen")
		h.Set("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// cors only admits the configured frontend origin. Preflights are answered
// here whether or not the origin matches; the browser enforces the result.
func cors(allowedOrigin string) gin.HandlerFunc {
	allowedOrigin = strings.TrimRight(allowedOrigin, "/")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Header("Vary", "Origin")
		if origin != "" && origin == allowedOrigin {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Accept")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// bodyLimit rejects bodies above n bytes with 413.
func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, payloadTooLargeBody)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// rateLimit admits requests through l keyed by the client IP. The IP comes
// from gin, which only honours forwarding headers from trusted proxies.
// When the store fails the request is let through.
func (s *Server) rateLimit(l RateLimiter, denied gin.H) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		decision, err := l.Allow(ctx, c.ClientIP())
		if err != nil {
			s.logger.ErrorContext(ctx, "Rate limiter unavailable",
				"route", c.FullPath(),
				"requestId", c.GetString(requestIDKey),
				"error", err,
			)
			c.Next()
			return
		}

		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(decision.RetrySeconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, denied)
			return
		}
		c.Next()
	}
}
