package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/manda2/internal/cache"
	"github.com/manda2/internal/config"
	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/metrics"
	"github.com/manda2/internal/repository"
)

const (
	reportCacheTTL          = 45 * time.Second
	reportDefaultTimezone   = "America/Mexico_City"
	reportDefaultTopLimit   = 5
	reportDisplayDateLayout = "2006-01-02 15:04:05"
)

// ReportService 月度经营指标服务
// 说明：本月至今与上月整月对比，所有指标按查询时实时计算。
type ReportService struct {
	repo     repository.ReportRepository
	location *time.Location
	timezone string
	cacheTTL time.Duration
	topLimit int
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewReportService 创建报表服务
func NewReportService(repo repository.ReportRepository, cfg config.ReportConfig, m *metrics.Metrics) *ReportService {
	timezone := strings.TrimSpace(cfg.Timezone)
	if timezone == "" {
		timezone = reportDefaultTimezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warnw("report_timezone_invalid", "timezone", timezone, "error", err)
		location = time.UTC
		timezone = "UTC"
	}
	ttl := reportCacheTTL
	if cfg.CacheTTLSeconds > 0 {
		ttl = time.Duration(cfg.CacheTTLSeconds) * time.Second
	}
	limit := cfg.TopProductsLimit
	if limit <= 0 {
		limit = reportDefaultTopLimit
	}
	return &ReportService{
		repo:     repo,
		location: location,
		timezone: timezone,
		cacheTTL: ttl,
		topLimit: limit,
		metrics:  m,
		now:      time.Now,
	}
}

// ReportQueryInput 报表查询输入
type ReportQueryInput struct {
	ForceRefresh bool
}

// ReportPeriodMetrics 单个周期的指标
type ReportPeriodMetrics struct {
	From              string `json:"from"`
	To                string `json:"to"`
	TotalSales        string `json:"total_sales"`
	TotalOrders       int64  `json:"total_orders"`
	TotalProductsSold int64  `json:"total_products_sold"`
	AvgOrderValue     string `json:"avg_order_value"`
}

// ReportChange 指标环比变化
type ReportChange struct {
	Percent string `json:"percent"`
	Trend   string `json:"trend"`
}

// ReportChanges 四项指标的环比变化
type ReportChanges struct {
	Sales         ReportChange `json:"sales"`
	Orders        ReportChange `json:"orders"`
	ProductsSold  ReportChange `json:"products_sold"`
	AvgOrderValue ReportChange `json:"avg_order_value"`
}

// ReportMetricsResponse 月度对比响应
type ReportMetricsResponse struct {
	Timezone string              `json:"timezone"`
	Current  ReportPeriodMetrics `json:"current"`
	Prior    ReportPeriodMetrics `json:"prior"`
	Changes  ReportChanges       `json:"changes"`
	Loading  bool                `json:"loading"`
}

// ReportTrendPoint 日趋势点
type ReportTrendPoint struct {
	Date   string `json:"date"`
	Orders int64  `json:"orders"`
	Sales  string `json:"sales"`
}

// ReportTrendResponse 本月日趋势
type ReportTrendResponse struct {
	Timezone string             `json:"timezone"`
	From     string             `json:"from"`
	To       string             `json:"to"`
	Points   []ReportTrendPoint `json:"points"`
}

// ReportProductRanking 商品销量排行项
type ReportProductRanking struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Amount    string `json:"amount"`
}

// ReportTopProductsResponse 本月商品排行
type ReportTopProductsResponse struct {
	Timezone    string                 `json:"timezone"`
	From        string                 `json:"from"`
	To          string                 `json:"to"`
	TopProducts []ReportProductRanking `json:"top_products"`
}

// reportPeriod 统计区间 [startAt, endAt)，displayTo 为展示用的闭区间终点
type reportPeriod struct {
	startAt   time.Time
	endAt     time.Time
	displayTo time.Time
}

// resolveReportPeriods 本月 [1 日 00:00, now]，上月 [1 日 00:00, 月末 23:59:59]
func resolveReportPeriods(now time.Time, location *time.Location) (reportPeriod, reportPeriod) {
	local := now.In(location)
	currentStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, location)
	priorStart := currentStart.AddDate(0, -1, 0)
	current := reportPeriod{startAt: currentStart, endAt: local, displayTo: local}
	prior := reportPeriod{startAt: priorStart, endAt: currentStart, displayTo: currentStart.Add(-time.Second)}
	return current, prior
}

// PercentChange 环比百分比：上期为 0 时，本期大于 0 记 100，否则记 0
func PercentChange(current, prior float64) float64 {
	if prior == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - prior) / prior * 100
}

func buildReportChange(current, prior float64) ReportChange {
	change := PercentChange(current, prior)
	trend := constants.TrendUp
	if change < 0 {
		trend = constants.TrendDown
	}
	return ReportChange{Percent: formatPercentValue(change), Trend: trend}
}

// ZeroReportMetrics 出错时返回的全零指标
func ZeroReportMetrics() ReportMetricsResponse {
	zero := ReportPeriodMetrics{TotalSales: formatMoneyValue(0), AvgOrderValue: formatMoneyValue(0)}
	flat := ReportChange{Percent: formatPercentValue(0), Trend: constants.TrendUp}
	return ReportMetricsResponse{
		Current: zero,
		Prior:   zero,
		Changes: ReportChanges{Sales: flat, Orders: flat, ProductsSold: flat, AvgOrderValue: flat},
		Loading: false,
	}
}

type periodTotals struct {
	sales    float64
	orders   int64
	products int64
	avg      float64
}

func (s *ReportService) loadPeriod(period reportPeriod) (periodTotals, error) {
	summary, err := s.repo.GetSalesSummary(period.startAt, period.endAt)
	if err != nil {
		return periodTotals{}, err
	}
	products, err := s.repo.GetProductsSold(period.startAt, period.endAt)
	if err != nil {
		return periodTotals{}, err
	}
	totals := periodTotals{sales: summary.TotalSales, orders: summary.TotalOrders, products: products}
	if summary.TotalOrders > 0 {
		totals.avg = summary.TotalSales / float64(summary.TotalOrders)
	}
	return totals, nil
}

func (s *ReportService) periodMetrics(period reportPeriod, totals periodTotals) ReportPeriodMetrics {
	return ReportPeriodMetrics{
		From:              period.startAt.Format(reportDisplayDateLayout),
		To:                period.displayTo.Format(reportDisplayDateLayout),
		TotalSales:        formatMoneyValue(totals.sales),
		TotalOrders:       totals.orders,
		TotalProductsSold: totals.products,
		AvgOrderValue:     formatMoneyValue(totals.avg),
	}
}

// GetMetrics 本月与上月对比，任一查询失败整体返回错误
func (s *ReportService) GetMetrics(ctx context.Context, input ReportQueryInput) (*ReportMetricsResponse, error) {
	now := s.now()
	cacheKey := cache.ReportMetricsKey(now.In(s.location), s.timezone)
	return cache.Remember(ctx, cacheKey, s.cacheTTL, input.ForceRefresh, func() (*ReportMetricsResponse, error) {
		current, prior := resolveReportPeriods(now, s.location)
		currentTotals, err := s.loadPeriod(current)
		if err != nil {
			return nil, s.fetchFailed(ctx, err)
		}
		priorTotals, err := s.loadPeriod(prior)
		if err != nil {
			return nil, s.fetchFailed(ctx, err)
		}
		s.metrics.ReportComputed(true)
		return &ReportMetricsResponse{
			Timezone: s.timezone,
			Current:  s.periodMetrics(current, currentTotals),
			Prior:    s.periodMetrics(prior, priorTotals),
			Changes: ReportChanges{
				Sales:         buildReportChange(currentTotals.sales, priorTotals.sales),
				Orders:        buildReportChange(float64(currentTotals.orders), float64(priorTotals.orders)),
				ProductsSold:  buildReportChange(float64(currentTotals.products), float64(priorTotals.products)),
				AvgOrderValue: buildReportChange(currentTotals.avg, priorTotals.avg),
			},
		}, nil
	})
}

// GetTrends 本月每日订单数与销售额
func (s *ReportService) GetTrends(ctx context.Context, input ReportQueryInput) (*ReportTrendResponse, error) {
	now := s.now()
	cacheKey := cache.ReportTrendsKey(now.In(s.location), s.timezone)
	return cache.Remember(ctx, cacheKey, s.cacheTTL, input.ForceRefresh, func() (*ReportTrendResponse, error) {
		current, _ := resolveReportPeriods(now, s.location)
		rows, err := s.repo.ListSalePoints(current.startAt, current.endAt)
		if err != nil {
			return nil, s.fetchFailed(ctx, err)
		}
		s.metrics.ReportComputed(true)
		return &ReportTrendResponse{
			Timezone: s.timezone,
			From:     current.startAt.Format(reportDisplayDateLayout),
			To:       current.displayTo.Format(reportDisplayDateLayout),
			Points:   s.dailyPoints(current, rows),
		}, nil
	})
}

type dayBucket struct {
	orders int64
	sales  float64
}

// dailyPoints 按本地自然日汇总，无订单的日期补零
func (s *ReportService) dailyPoints(period reportPeriod, rows []repository.ReportSalePointRow) []ReportTrendPoint {
	buckets := make(map[string]*dayBucket)
	for _, row := range rows {
		day := row.CreatedAt.In(s.location).Format("2006-01-02")
		bucket, ok := buckets[day]
		if !ok {
			bucket = &dayBucket{}
			buckets[day] = bucket
		}
		bucket.orders++
		bucket.sales += row.Total
	}

	points := make([]ReportTrendPoint, 0)
	for cursor := period.startAt; !cursor.After(period.endAt); cursor = cursor.AddDate(0, 0, 1) {
		day := cursor.Format("2006-01-02")
		point := ReportTrendPoint{Date: day, Sales: formatMoneyValue(0)}
		if bucket, ok := buckets[day]; ok {
			point.Orders = bucket.orders
			point.Sales = formatMoneyValue(bucket.sales)
		}
		points = append(points, point)
	}
	return points
}

// GetTopProducts 本月销量排行
func (s *ReportService) GetTopProducts(ctx context.Context, input ReportQueryInput) (*ReportTopProductsResponse, error) {
	now := s.now()
	cacheKey := cache.ReportTopProductsKey(now.In(s.location), s.timezone, s.topLimit)
	return cache.Remember(ctx, cacheKey, s.cacheTTL, input.ForceRefresh, func() (*ReportTopProductsResponse, error) {
		current, _ := resolveReportPeriods(now, s.location)
		rows, err := s.repo.GetTopProducts(current.startAt, current.endAt, s.topLimit)
		if err != nil {
			return nil, s.fetchFailed(ctx, err)
		}
		items := make([]ReportProductRanking, 0, len(rows))
		for _, row := range rows {
			items = append(items, ReportProductRanking{
				ProductID: row.ProductID,
				Name:      row.Name,
				Quantity:  row.Quantity,
				Amount:    formatMoneyValue(row.Amount),
			})
		}
		s.metrics.ReportComputed(true)
		return &ReportTopProductsResponse{
			Timezone:    s.timezone,
			From:        current.startAt.Format(reportDisplayDateLayout),
			To:          current.displayTo.Format(reportDisplayDateLayout),
			TopProducts: items,
		}, nil
	})
}

// InvalidateCurrent 清除本月报表缓存（新订单或状态变化后调用）
func (s *ReportService) InvalidateCurrent(ctx context.Context) error {
	at := s.now().In(s.location)
	return cache.Del(ctx,
		cache.ReportMetricsKey(at, s.timezone),
		cache.ReportTrendsKey(at, s.timezone),
		cache.ReportTopProductsKey(at, s.timezone, s.topLimit),
	)
}

// Warmup 强制重算并写入缓存
func (s *ReportService) Warmup(ctx context.Context) error {
	input := ReportQueryInput{ForceRefresh: true}
	if _, err := s.GetMetrics(ctx, input); err != nil {
		return err
	}
	if _, err := s.GetTrends(ctx, input); err != nil {
		return err
	}
	if _, err := s.GetTopProducts(ctx, input); err != nil {
		return err
	}
	return nil
}

func (s *ReportService) fetchFailed(ctx context.Context, err error) error {
	s.metrics.ReportComputed(false)
	logger.FromContext(ctx).Warnw("report_fetch_failed", "error", err)
	return fmt.Errorf("%w: %v", ErrReportFetchFailed, err)
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatPercentValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
