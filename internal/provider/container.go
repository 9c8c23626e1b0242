package provider

import (
	"github.com/manda2/internal/authz"
	"github.com/manda2/internal/cache"
	"github.com/manda2/internal/config"
	"github.com/manda2/internal/events"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/metrics"
	"github.com/manda2/internal/models"
	"github.com/manda2/internal/queue"
	"github.com/manda2/internal/repository"
	"github.com/manda2/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	EventBus    *events.Bus
	Metrics     *metrics.Metrics

	// Repositories
	OperatorRepo repository.OperatorRepository
	ProductRepo  repository.ProductRepository
	StoreRepo    repository.StoreRepository
	AddressRepo  repository.AddressRepository
	SaleRepo     repository.SaleRepository
	ReportRepo   repository.ReportRepository

	// Services
	AuthzService       *authz.Service
	AuthService        *service.AuthService
	CatalogService     *service.CatalogService
	OrderService       *service.OrderService
	FulfillmentService *service.FulfillmentService
	SessionService     *service.SessionService
	ReportService      *service.ReportService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		EventBus:    events.NewBus(cfg.Kafka),
		Metrics:     m,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OperatorRepo = repository.NewOperatorRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.StoreRepo = repository.NewStoreRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.SaleRepo = repository.NewSaleRepository(db)
	c.ReportRepo = repository.NewReportRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.SyncBuiltinRoles(); err != nil {
		logger.Errorw("provider_sync_builtin_roles_failed", "error", err)
		panic(err)
	}

	checkout := c.Config.Checkout
	c.AuthService = service.NewAuthService(c.Config, c.OperatorRepo)
	c.CatalogService = service.NewCatalogService(c.ProductRepo, c.StoreRepo, checkout.DeliveryZones)
	c.OrderService = service.NewOrderService(c.SaleRepo, c.AddressRepo, c.QueueClient, c.Metrics, checkout.SourceTag)
	c.FulfillmentService = service.NewFulfillmentService(c.SaleRepo, c.QueueClient, c.Metrics)
	c.SessionService = service.NewSessionService(c.OrderService, c.CatalogService, checkout.PaymentDelay(), checkout.SessionIdleTTL(), c.Metrics)
	c.ReportService = service.NewReportService(c.ReportRepo, c.Config.Report, c.Metrics)
}

// MonitorFeed 为一个看板连接创建数据源：启用推送且事件总线可用时由事件触发刷新
func (c *Container) MonitorFeed() service.StatusFeed {
	monitor := c.Config.Monitor
	poller := service.NewPollingFeed(c.FulfillmentService, c.OrderService.SourceTag(), monitor.PollInterval(), monitor.Jitter(), c.Metrics)
	if monitor.PushEnabled && c.EventBus.Enabled() {
		return service.NewTriggeredFeed(poller, c.EventBus)
	}
	return poller
}

// Close 释放外部连接
func (c *Container) Close() {
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := c.EventBus.Close(); err != nil {
		logger.Warnw("provider_close_event_bus_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
