// Package ratelimit provides per-client rate limiting using token buckets.
package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// tokenBucket refills at a steady rate up to its burst capacity
type tokenBucket struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity int, refillRate float64) *tokenBucket {
	return &tokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// refill expects tb.mu held
func (tb *tokenBucket) refill() {
	now := time.Now()
	tb.tokens += now.Sub(tb.lastRefill).Seconds() * tb.refillRate
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}
	tb.lastRefill = now
}

func (tb *tokenBucket) status() (remaining int, resetTime time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	remaining = int(tb.tokens)
	if tb.tokens < float64(tb.capacity) {
		needed := float64(tb.capacity) - tb.tokens
		resetTime = time.Now().Add(time.Duration(needed / tb.refillRate * float64(time.Second)))
	} else {
		resetTime = time.Now()
	}
	return remaining, resetTime
}

// Info describes the rate limit state returned with each decision
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// EndpointConfig overrides the default limit for a path prefix
type EndpointConfig struct {
	PathPrefix string
	Method     string // empty matches any method
	Limit      int
	Window     time.Duration
	Burst      int
}

// Config holds rate limiting configuration
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Endpoints       []EndpointConfig
}

// LoadConfig builds the limiter configuration from the environment, with
// tighter limits on the abuse-prone endpoints.
func LoadConfig() *Config {
	cfg := &Config{
		Enabled:         os.Getenv("RATE_LIMIT_ENABLED") != "false",
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Endpoints: []EndpointConfig{
			{PathPrefix: "/api/auth/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 10},
			{PathPrefix: "/api/auth/register", Method: "POST", Limit: 10, Window: time.Minute, Burst: 10},
			{PathPrefix: "/api/candidate/upload_resume/", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
			{PathPrefix: "/health", Limit: 0}, // unlimited
		},
	}
	if v := os.Getenv("RATE_LIMIT_DEFAULT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultLimit = n
		}
	}
	return cfg
}

// Limiter manages token buckets keyed by client, endpoint, and method
type Limiter struct {
	mu         sync.RWMutex
	buckets    map[string]*tokenBucket
	config     *Config
	lastAccess map[string]time.Time
	accessMu   sync.Mutex
	ticker     *time.Ticker
	stop       chan struct{}
}

// NewLimiter creates a rate limiter and starts its cleanup goroutine
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = LoadConfig()
	}
	l := &Limiter{
		buckets:    make(map[string]*tokenBucket),
		config:     config,
		lastAccess: make(map[string]time.Time),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		l.ticker = time.NewTicker(config.CleanupInterval)
		l.stop = make(chan struct{})
		go l.cleanupLoop()
	}
	return l
}

// Allow decides whether a request from clientID may proceed
func (l *Limiter) Allow(clientID, endpoint, method string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}

	ec := l.matchEndpoint(endpoint, method)
	if ec.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	key := clientID + ":" + ec.PathPrefix + ":" + method
	bucket := l.getBucket(key, ec)

	l.accessMu.Lock()
	l.lastAccess[key] = time.Now()
	l.accessMu.Unlock()

	allowed := bucket.allow()
	remaining, resetTime := bucket.status()

	var retryAfter time.Duration
	if !allowed {
		if retryAfter = time.Until(resetTime); retryAfter < 0 {
			retryAfter = 0
		}
	}
	return allowed, Info{
		Allowed:    allowed,
		Limit:      ec.Limit,
		Remaining:  remaining,
		ResetTime:  resetTime,
		RetryAfter: retryAfter,
	}
}

func (l *Limiter) matchEndpoint(endpoint, method string) EndpointConfig {
	for _, ec := range l.config.Endpoints {
		if strings.HasPrefix(endpoint, ec.PathPrefix) && (ec.Method == "" || ec.Method == method) {
			return ec
		}
	}
	return EndpointConfig{
		PathPrefix: "",
		Limit:      l.config.DefaultLimit,
		Window:     l.config.DefaultWindow,
		Burst:      l.config.DefaultLimit,
	}
}

func (l *Limiter) getBucket(key string, ec EndpointConfig) *tokenBucket {
	l.mu.RLock()
	bucket, exists := l.buckets[key]
	l.mu.RUnlock()
	if exists {
		return bucket
	}

	burst := ec.Burst
	if burst <= 0 {
		burst = ec.Limit
	}
	bucket = newTokenBucket(burst, float64(ec.Limit)/ec.Window.Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, exists := l.buckets[key]; exists {
		return existing
	}
	l.buckets[key] = bucket
	return bucket
}

func (l *Limiter) cleanupLoop() {
	for {
		select {
		case <-l.ticker.C:
			l.cleanupBuckets()
		case <-l.stop:
			return
		}
	}
}

// cleanupBuckets drops buckets idle for over an hour
func (l *Limiter) cleanupBuckets() {
	cutoff := time.Now().Add(-1 * time.Hour)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accessMu.Lock()
	defer l.accessMu.Unlock()

	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
		}
	}
}

// Stop stops the cleanup goroutine
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
	if l.stop != nil {
		close(l.stop)
	}
}
