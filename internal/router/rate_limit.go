package router

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/i18n"
	"github.com/manda2/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

func (r RateLimitRule) window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// limiter 返回是否放行以及需要等待的秒数
type limiter interface {
	allow(ctx context.Context, key string) (bool, int, error)
}

// RateLimitMiddleware 频率限制中间件；client 为 nil 时使用进程内令牌桶
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	var l limiter
	if client != nil {
		l = &redisLimiter{client: client, rule: rule}
	} else {
		l = newLocalLimiter(rule)
	}

	return func(c *gin.Context) {
		key := rateLimitKey(c, rule, keyFunc)
		allowed, waitSeconds, err := l.allow(c.Request.Context(), key)
		if err != nil {
			logger.FromContext(c.Request.Context()).Errorw("rate_limit_check_failed", "key", key, "error", err)
			response.Error(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable"))
			c.Abort()
			return
		}
		if !allowed {
			abortRateLimited(c, rule, waitSeconds)
			return
		}
		c.Next()
	}
}

// 首次计数时设置过期，返回 {当前计数, 剩余秒数}
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

var errUnexpectedScriptResult = errors.New("unexpected rate limit script result")

type redisLimiter struct {
	client *redis.Client
	rule   RateLimitRule
}

func (l *redisLimiter) allow(ctx context.Context, key string) (bool, int, error) {
	values, err := fixedWindowScript.Run(ctx, l.client, []string{"ratelimit:" + key}, l.rule.WindowSeconds).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) < 2 {
		return false, 0, errUnexpectedScriptResult
	}
	if values[0] <= int64(l.rule.MaxRequests) {
		return true, 0, nil
	}
	wait := int(values[1])
	if wait < 1 {
		wait = l.rule.WindowSeconds
	}
	return false, wait, nil
}

// localLimiter 进程内按 key 的令牌桶，容量为窗口内最大次数
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	refill  rate.Limit
	burst   int
}

// 超过该数量时清理已回满的令牌桶
const localLimiterSweepSize = 4096

func newLocalLimiter(rule RateLimitRule) *localLimiter {
	return &localLimiter{
		buckets: make(map[string]*rate.Limiter),
		refill:  rate.Every(rule.window() / time.Duration(rule.MaxRequests)),
		burst:   rule.MaxRequests,
	}
}

func (l *localLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	if len(l.buckets) >= localLimiterSweepSize {
		for k, b := range l.buckets {
			if b.Tokens() >= float64(l.burst) {
				delete(l.buckets, k)
			}
		}
	}
	b := rate.NewLimiter(l.refill, l.burst)
	l.buckets[key] = b
	return b
}

func (l *localLimiter) allow(_ context.Context, key string) (bool, int, error) {
	reservation := l.bucket(key).Reserve()
	delay := reservation.Delay()
	if delay == 0 {
		return true, 0, nil
	}
	reservation.Cancel()
	return false, int(math.Ceil(delay.Seconds())), nil
}

func rateLimitKey(c *gin.Context, rule RateLimitRule, keyFunc RateLimitKeyFunc) string {
	var key string
	if keyFunc != nil {
		key = strings.TrimSpace(keyFunc(c))
	}
	if key == "" {
		key = c.ClientIP()
	}
	if rule.Prefix == "" {
		return key
	}
	return rule.Prefix + ":" + key
}

func abortRateLimited(c *gin.Context, rule RateLimitRule, waitSeconds int) {
	if waitSeconds < 1 {
		waitSeconds = 1
	}
	msgKey := strings.TrimSpace(rule.MessageKey)
	if msgKey == "" {
		msgKey = "error.rate_limited"
	}
	c.Header("Retry-After", strconv.Itoa(waitSeconds))
	response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), msgKey, waitSeconds))
	c.Abort()
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyBySessionAndIP 使用会话 ID + IP 作为限流 key
func KeyBySessionAndIP(c *gin.Context) string {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		return c.ClientIP()
	}
	return sessionID + "|" + c.ClientIP()
}
