package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ddiaz-itx/ai-interviewer/internal/auth"
	"github.com/ddiaz-itx/ai-interviewer/internal/handler"
	"github.com/ddiaz-itx/ai-interviewer/pkg/response"
)

const requestIDHeader = "X-Request-ID"

func (app *application) AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifyClaimsFromAuthHeader(c, app.Handler.Auth)
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(handler.ClaimsKey, claims)
		c.Next()
	}
}

func verifyClaimsFromAuthHeader(c *gin.Context, authenticator *auth.Authenticator) (*auth.AdminClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header is missing")
	}

	fields := strings.Fields(authHeader)
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization header")
	}

	claims, err := authenticator.Verify(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// requestID propagates or assigns an X-Request-ID
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func (app *application) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		app.Logger.Sugar().Infow("http",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"),
		)
	}
}

func (app *application) cors() gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, o := range app.Config.GetCORSOrigins() {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP and forgets idle clients.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*visitor
	rps     rate.Limit
	burst   int
	idle    time.Duration
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*visitor),
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    3 * time.Minute,
	}
}

func (rl *rateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for k, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > rl.idle {
			delete(rl.clients, k)
		}
	}

	cl, ok := rl.clients[ip]
	if !ok {
		cl = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (app *application) rateLimit() gin.HandlerFunc {
	if !app.Config.Limiter.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	rl := newRateLimiter(app.Config.Limiter.RPS, app.Config.Limiter.Burst)
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			response.TooManyRequests(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
