package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	CategoryID string
	Search     string
	OnlyStock  bool
	Page       int
	PageSize   int
}

// ReportSummaryRow 报表区间汇总
type ReportSummaryRow struct {
	TotalSales  float64
	TotalOrders int64
}

// ReportSalePointRow 报表区间内单笔订单的时间与金额
type ReportSalePointRow struct {
	ID        uint
	Total     float64
	CreatedAt time.Time
}

// ReportProductRankingRow 商品销量排行原始行
type ReportProductRankingRow struct {
	ProductID uint
	Name      string
	Quantity  int64
	Amount    float64
}
