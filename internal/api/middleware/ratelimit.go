package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterIdleTTL         = 30 * time.Minute
)

// clientLimiter stores the token bucket of one client.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware throttles a route per authenticated seller, falling
// back to the client IP for anonymous requests.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	logger  *zap.Logger
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiterMiddleware allows perMinute requests per client with the given burst.
func NewRateLimiterMiddleware(perMinute, burst int, logger *zap.Logger) *RateLimiterMiddleware {
	if burst < 1 {
		burst = 1
	}
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		logger:  logger,
		stop:    make(chan struct{}),
	}
	go rm.cleanupClients()
	return rm
}

// Close stops the background cleanup.
func (rm *RateLimiterMiddleware) Close() {
	rm.once.Do(func() { close(rm.stop) })
}

func clientIdentifier(c *gin.Context) string {
	if id := SellerID(c); id != "" {
		return "seller:" + id
	}
	return "ip:" + c.ClientIP()
}

func (rm *RateLimiterMiddleware) getClientLimiter(identifier string) *rate.Limiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	cl, exists := rm.clients[identifier]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rm.limit, rm.burst)}
		rm.clients[identifier] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

func (rm *RateLimiterMiddleware) cleanupClients() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rm.stop:
			return
		case <-ticker.C:
		}
		rm.mu.Lock()
		count := 0
		for id, cl := range rm.clients {
			if time.Since(cl.lastSeen) > limiterIdleTTL {
				delete(rm.clients, id)
				count++
			}
		}
		rm.mu.Unlock()
		if count > 0 {
			rm.logger.Debug("rate limiter cleanup", zap.Int("removed", count))
		}
	}
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientIdentifier(c)
		r := rm.getClientLimiter(key).Reserve()
		if !r.OK() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			rm.logger.Info("rate limit exceeded",
				zap.String("client", key), zap.String("path", c.FullPath()))
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("Rate limit exceeded, retry in %s", delay.Round(time.Second)),
			})
			return
		}
		c.Next()
	}
}
