package cache

import (
	"fmt"
	"time"
)

// 报表缓存按自然月分桶，写入新订单后按月失效
const (
	reportMetricsKeyFmt     = "report:metrics:%s:%s"
	reportTrendsKeyFmt      = "report:trends:%s:%s"
	reportTopProductsKeyFmt = "report:top_products:%s:%s:%d"
)

func monthBucket(at time.Time) string {
	return at.Format("2006-01")
}

// ReportMetricsKey 月度对比指标缓存键
func ReportMetricsKey(at time.Time, timezone string) string {
	return fmt.Sprintf(reportMetricsKeyFmt, monthBucket(at), timezone)
}

// ReportTrendsKey 日趋势缓存键
func ReportTrendsKey(at time.Time, timezone string) string {
	return fmt.Sprintf(reportTrendsKeyFmt, monthBucket(at), timezone)
}

// ReportTopProductsKey 商品排行缓存键
func ReportTopProductsKey(at time.Time, timezone string, limit int) string {
	return fmt.Sprintf(reportTopProductsKeyFmt, monthBucket(at), timezone, limit)
}
