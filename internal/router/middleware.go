package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/manda2/internal/authz"
	"github.com/manda2/internal/cache"
	"github.com/manda2/internal/config"
	handlershared "github.com/manda2/internal/http/handlers/shared"
	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/i18n"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/metrics"
	"github.com/manda2/internal/repository"
	"github.com/manda2/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	requestIDHeader           = "X-Request-ID"
	operatorIsSuperContextKey = "operator_is_super"
)

// 不写 info 访问日志的运维路径
var quietPaths = map[string]struct{}{
	"/healthz": {},
	"/metrics": {},
}

var defaultCORSHeaders = []string{
	"Content-Type",
	"Accept-Language",
	"Authorization",
	"Cache-Control",
	"Last-Event-ID",
	"X-Locale",
	"X-Request-ID",
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = defaultCORSHeaders
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		header := c.Writer.Header()
		if allowedOrigin := resolveAllowedOrigin(c.GetHeader("Origin"), allowedOrigins, cfg.AllowCredentials); allowedOrigin != "" {
			header.Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Headers", headersHeader)
		header.Set("Access-Control-Allow-Methods", methodsHeader)
		header.Set("Access-Control-Expose-Headers", requestIDHeader)
		if cfg.MaxAge > 0 {
			header.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// resolveAllowedOrigin 通配且允许凭证时回显来源，否则按白名单匹配
func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	wildcard := false
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			wildcard = true
			continue
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	if !wildcard {
		return ""
	}
	if allowCredentials && origin != "" {
		return origin
	}
	return "*"
}

// RequestIDMiddleware 透传或生成请求 ID，并写入请求 context 的日志字段
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(response.RequestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), response.RequestIDKey, requestID))
		c.Next()
	}
}

// LoggerMiddleware 访问日志：5xx 记 error，4xx 记 warn，运维路径只记 debug
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		log := logger.FromContext(c.Request.Context()).With(
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if operatorID, ok := c.Get(handlershared.ContextOperatorID); ok {
			log = log.With("operator_id", operatorID)
		}
		switch {
		case len(c.Errors) > 0 || status >= http.StatusInternalServerError:
			log.Errorw("request", "errors", c.Errors.String())
		case status >= http.StatusBadRequest:
			log.Warnw("request")
		default:
			if _, quiet := quietPaths[c.Request.URL.Path]; quiet {
				log.Debugw("request")
				return
			}
			log.Infow("request")
		}
	}
}

// MetricsMiddleware Prometheus 请求指标中间件，按路由模板聚合
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		m.ObserveRequest(handler, c.Writer.Status(), float64(time.Since(start).Milliseconds()))
	}
}

// OperatorJWTAuthMiddleware 操作员 JWT 鉴权；令牌版本或签发时间落后于吊销点即拒绝
func OperatorJWTAuthMiddleware(secretKey string, operatorRepo repository.OperatorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			abortUnauthorized(c, "error.jwt_secret_missing")
			return
		}
		tokenString, key := bearerToken(c)
		if key != "" {
			abortUnauthorized(c, key)
			return
		}
		claims, err := service.ParseOperatorToken(secretKey, tokenString)
		if err != nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}

		state, key := loadOperatorAuthState(c, claims.OperatorID, operatorRepo)
		if key != "" {
			abortUnauthorized(c, key)
			return
		}
		if claims.TokenVersion != state.TokenVersion || !issuedAfter(claims.IssuedAt, state.TokenInvalidBefore) {
			abortUnauthorized(c, "error.token_revoked")
			return
		}

		c.Set(handlershared.ContextOperatorID, claims.OperatorID)
		c.Set(handlershared.ContextOperatorUsername, claims.Username)
		c.Set(operatorIsSuperContextKey, state.IsSuper)
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), "operator", claims.Username))
		c.Next()
	}
}

// loadOperatorAuthState 先读 Redis 缓存的令牌状态，未命中时查库并回填
func loadOperatorAuthState(c *gin.Context, operatorID uint, operatorRepo repository.OperatorRepository) (*cache.OperatorAuthState, string) {
	ctx := c.Request.Context()
	if cached, hit, err := cache.GetOperatorAuthState(ctx, operatorID); err == nil && hit && cached != nil {
		return cached, ""
	}
	if operatorRepo == nil {
		return nil, "error.token_invalid"
	}
	operator, err := operatorRepo.GetByID(operatorID)
	if err != nil || operator == nil {
		return nil, "error.token_invalid"
	}
	state := cache.BuildOperatorAuthState(operator)
	if err := cache.SetOperatorAuthState(ctx, state); err != nil {
		logger.FromContext(ctx).Warnw("operator_auth_state_cache_failed", "operator_id", operatorID, "error", err)
	}
	return state, ""
}

// OperatorRBACMiddleware 按路由模板与方法校验角色权限，超级操作员直接放行
func OperatorRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("operator_rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if c.GetBool(operatorIsSuperContextKey) {
			c.Next()
			return
		}

		operatorID, _ := c.Get(handlershared.ContextOperatorID)
		id, _ := operatorID.(uint)
		if id == 0 {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = c.Request.URL.Path
		}
		log := logger.FromContext(c.Request.Context()).With(
			"operator_id", id,
			"method", c.Request.Method,
			"resource", authz.NormalizeObject(route),
		)

		allowed, err := authzService.EnforceOperator(id, route, c.Request.Method)
		if err != nil {
			log.Errorw("operator_rbac_enforce_failed", "error", err)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			log.Warnw("operator_rbac_permission_denied")
			response.Forbidden(c, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CustomerIdentityMiddleware 可选顾客身份：无 Authorization 头时以匿名继续
func CustomerIdentityMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(c.GetHeader("Authorization")) == "" {
			c.Next()
			return
		}
		tokenString, key := bearerToken(c)
		if key != "" {
			abortUnauthorized(c, key)
			return
		}
		identity, err := service.ParseCustomerToken(secretKey, tokenString)
		if err != nil {
			abortUnauthorized(c, "error.customer_token_invalid")
			return
		}
		c.Set(handlershared.ContextCustomerIdentity, identity)
		c.Next()
	}
}

// bearerToken 读取 Bearer Token，失败时返回错误消息 key
func bearerToken(c *gin.Context) (string, string) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return "", "error.auth_header_missing"
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	token = strings.TrimSpace(token)
	if !ok || scheme != "Bearer" || token == "" {
		return "", "error.auth_header_invalid"
	}
	return token, ""
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}

// issuedAt 秒级精度，与吊销点同一秒签发的令牌仍有效
func issuedAfter(issuedAt *jwt.NumericDate, invalidBeforeUnix int64) bool {
	if invalidBeforeUnix <= 0 {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Time.Unix() >= invalidBeforeUnix
}
