package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"checkout-flow-api/logger"
	"checkout-flow-api/models"
	"checkout-flow-api/utils"
)

type RateLimiter struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Message  string
}

// Every route below reaches the processor, so each is budgeted per client IP.
var defaultConfigs = map[string]RateLimitConfig{
	"/process-payment": {
		Requests: 10,
		Window:   time.Minute,
		Message:  "Too many card payment attempts. Please wait a minute.",
	},
	"/api/payment-context": {
		Requests: 10,
		Window:   time.Minute,
		Message:  "Too many payment context requests. Please wait a minute.",
	},
	"/api/payments": {
		Requests: 10,
		Window:   time.Minute,
		Message:  "Too many payment attempts. Please wait a minute.",
	},
	"/api/ideal-payments": {
		Requests: 10,
		Window:   time.Minute,
		Message:  "Too many redirect payment attempts. Please wait a minute.",
	},
	"default": {
		Requests: 60,
		Window:   time.Minute,
		Message:  "Rate limit exceeded. Please slow down your requests.",
	},
}

const rateLimitScript = `
	local key = KEYS[1]
	local window_start = tonumber(ARGV[1])
	local limit = tonumber(ARGV[2])
	local current_time = ARGV[3]
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, 0, window_start - 1)

	local current_count = redis.call('ZCARD', key)

	if current_count < limit then
		redis.call('ZADD', key, current_time, member)
		redis.call('EXPIRE', key, 3600)
		return {1, limit - current_count - 1}
	else
		return {0, 0}
	end
`

// NewRateLimiter connects to Redis and fails if it cannot be reached.
func NewRateLimiter(redisURL string, log *zap.SugaredLogger) (*RateLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL for rate limiter: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	return &RateLimiter{client: client, logger: log}, nil
}

// Middleware answers 429 once a client exceeds the budget of its route. A
// Redis failure lets the request through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		log := logger.For(r.Context(), rl.logger)
		config := configForEndpoint(r.URL.Path)
		key := rateLimitKey(r)

		allowed, remaining, resetTime, err := rl.checkRateLimit(r.Context(), key, config)
		if err != nil {
			log.Warnw("rate limit check failed", "error", err, "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			log.Infow("rate limit exceeded", "key", key, "path", r.URL.Path)

			w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetTime).Seconds()), 10))
			utils.SendJSON(w, http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "Too many requests",
				Message: config.Message,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func configForEndpoint(path string) RateLimitConfig {
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}
	if config, ok := defaultConfigs[path]; ok {
		return config
	}
	return defaultConfigs["default"]
}

func rateLimitKey(r *http.Request) string {
	return fmt.Sprintf("rate_limit:checkout:%s:%s", clientIP(r), r.URL.Path)
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string, config RateLimitConfig) (allowed bool, remaining int, resetTime time.Time, err error) {
	now := time.Now()
	windowStart := now.Truncate(config.Window)
	windowEnd := windowStart.Add(config.Window)

	// Unique member so that two requests in the same second both count.
	member := strconv.FormatInt(now.UnixNano(), 10)

	result, err := rl.client.Eval(ctx, rateLimitScript, []string{key},
		windowStart.Unix(), config.Requests, now.Unix(), member).Result()
	if err != nil {
		return false, 0, time.Time{}, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}

	allowedInt, ok1 := values[0].(int64)
	remainingInt, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return false, 0, time.Time{}, fmt.Errorf("failed to parse redis result")
	}

	return allowedInt == 1, int(remainingInt), windowEnd, nil
}

// Ping lets the health endpoint report on the limiter's Redis connection.
func (rl *RateLimiter) Ping(ctx context.Context) error {
	return rl.client.Ping(ctx).Err()
}

func (rl *RateLimiter) Close() error {
	return rl.client.Close()
}

// SecurityHeadersMiddleware sets the baseline security headers and disables
// caching of API answers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/process-payment" {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}

		next.ServeHTTP(w, r)
	})
}
