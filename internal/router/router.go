package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/manda2/internal/authz"
	"github.com/manda2/internal/cache"
	"github.com/manda2/internal/config"
	adminhandlers "github.com/manda2/internal/http/handlers/admin"
	publichandlers "github.com/manda2/internal/http/handlers/public"
	"github.com/manda2/internal/http/response"
	"github.com/manda2/internal/i18n"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	if logger.L == nil {
		logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "manda2"
	}
	submitRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:submit", redisPrefix),
		WindowSeconds: cfg.Security.SubmitRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SubmitRateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(gin.CustomRecovery(recoverWithEnvelope))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(MetricsMiddleware(c.Metrics))
	r.NoRoute(func(ctx *gin.Context) {
		response.Error(ctx, response.CodeNotFound, i18n.T(i18n.ResolveLocale(ctx), "error.not_found"))
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开目录
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:product_id", publicHandler.GetProduct)
			public.GET("/stores", publicHandler.ListStores)
			public.GET("/delivery-zones", publicHandler.ListDeliveryZones)
		}

		// 顾客会话
		sessions := apiV1.Group("/sessions")
		{
			sessions.POST("", CustomerIdentityMiddleware(cfg.UserJWT.SecretKey), publicHandler.OpenSession)
			sessions.GET("/:id", publicHandler.GetSession)
			sessions.DELETE("/:id", publicHandler.CloseSession)
			sessions.PUT("/:id/location", publicHandler.SetLocation)

			sessions.GET("/:id/cart", publicHandler.GetCart)
			sessions.DELETE("/:id/cart", publicHandler.ClearCart)
			sessions.POST("/:id/cart/items", publicHandler.AddCartItem)
			sessions.PUT("/:id/cart/items/:product_id", publicHandler.UpdateCartItem)
			sessions.DELETE("/:id/cart/items/:product_id", publicHandler.RemoveCartItem)

			sessions.GET("/:id/checkout", publicHandler.GetCheckout)
			sessions.POST("/:id/checkout/advance", publicHandler.AdvanceCheckout)
			sessions.POST("/:id/checkout/back", publicHandler.BackCheckout)
			sessions.PUT("/:id/checkout/details", publicHandler.SetAddressDetails)
			sessions.PUT("/:id/checkout/payment", publicHandler.SelectPaymentMethod)
			sessions.POST("/:id/checkout/submit", RateLimitMiddleware(cache.Client(), submitRule, KeyBySessionAndIP), publicHandler.SubmitCheckout)

			sessions.GET("/:id/ticket", publicHandler.GetTicket)
			sessions.POST("/:id/new-order", publicHandler.NewOrder)
		}

		// 后台接口（需要操作员认证 + RBAC）
		admin := apiV1.Group("/admin")
		admin.Use(OperatorJWTAuthMiddleware(cfg.OperatorJWT.SecretKey, c.OperatorRepo))
		admin.Use(OperatorRBACMiddleware(c.AuthzService))
		{
			admin.GET("/monitor/orders", adminHandler.ListMonitorOrders)
			admin.GET("/monitor/stream", adminHandler.StreamMonitor)
			admin.PATCH("/sales/:id/fulfillment-status", adminHandler.UpdateFulfillmentStatus)

			admin.GET("/reports/metrics", adminHandler.GetReportMetrics)
			admin.GET("/reports/trends", adminHandler.GetReportTrends)
			admin.GET("/reports/top-products", adminHandler.GetReportTopProducts)

			admin.POST("/operators/:username/revoke", adminHandler.RevokeOperatorTokens)
		}
	}

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if c.Metrics != nil {
		r.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
	}

	for _, item := range buildAdminPermissionCatalog(r) {
		logger.Debugw("router_admin_permission", "module", item.Module, "permission", item.Permission)
	}

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}

// recoverWithEnvelope panic 时记录堆栈上下文并返回统一 500 响应
func recoverWithEnvelope(c *gin.Context, recovered any) {
	logger.FromContext(c.Request.Context()).Errorw("panic_recovered",
		"route", c.FullPath(),
		"panic", recovered,
	)
	response.Error(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.internal"))
	c.Abort()
}
