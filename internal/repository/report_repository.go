package repository

import (
	"time"

	"github.com/manda2/internal/models"

	"gorm.io/gorm"
)

// ReportRepository 报表聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。区间均为 [startAt, endAt)。
type ReportRepository interface {
	GetSalesSummary(startAt, endAt time.Time) (ReportSummaryRow, error)
	GetProductsSold(startAt, endAt time.Time) (int64, error)
	ListSalePoints(startAt, endAt time.Time) ([]ReportSalePointRow, error)
	GetTopProducts(startAt, endAt time.Time, limit int) ([]ReportProductRankingRow, error)
}

// GormReportRepository GORM 报表聚合实现
type GormReportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建报表仓库
func NewReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

func saleRange(db *gorm.DB, startAt, endAt time.Time) *gorm.DB {
	return db.Model(&models.Sale{}).
		Where("created_at >= ? AND created_at < ?", startAt.UTC(), endAt.UTC())
}

// GetSalesSummary 区间销售额与订单数
func (r *GormReportRepository) GetSalesSummary(startAt, endAt time.Time) (ReportSummaryRow, error) {
	result := ReportSummaryRow{}
	if err := saleRange(r.db, startAt, endAt).Count(&result.TotalOrders).Error; err != nil {
		return result, err
	}
	if err := saleRange(r.db, startAt, endAt).
		Select("COALESCE(SUM(total), 0)").
		Scan(&result.TotalSales).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetProductsSold 区间内售出商品件数（按订单创建时间归属）
func (r *GormReportRepository) GetProductsSold(startAt, endAt time.Time) (int64, error) {
	var total int64
	err := r.db.Table("sale_items AS si").
		Joins("JOIN sales s ON s.id = si.sale_id").
		Where("s.created_at >= ? AND s.created_at < ?", startAt.UTC(), endAt.UTC()).
		Select("COALESCE(SUM(si.quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ListSalePoints 区间内订单的创建时间与金额，按时间升序
func (r *GormReportRepository) ListSalePoints(startAt, endAt time.Time) ([]ReportSalePointRow, error) {
	var sales []models.Sale
	if err := saleRange(r.db, startAt, endAt).
		Select("id", "total", "created_at").
		Order("created_at ASC, id ASC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	rows := make([]ReportSalePointRow, 0, len(sales))
	for _, sale := range sales {
		rows = append(rows, ReportSalePointRow{
			ID:        sale.ID,
			Total:     sale.Total.Float(),
			CreatedAt: sale.CreatedAt,
		})
	}
	return rows, nil
}

// GetTopProducts 区间内按销量排序的商品
func (r *GormReportRepository) GetTopProducts(startAt, endAt time.Time, limit int) ([]ReportProductRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []ReportProductRankingRow
	err := r.db.Table("sale_items AS si").
		Select("si.product_id AS product_id, COALESCE(p.name, '') AS name, COALESCE(SUM(si.quantity), 0) AS quantity, COALESCE(SUM(si.quantity * si.unit_price), 0) AS amount").
		Joins("JOIN sales s ON s.id = si.sale_id").
		Joins("LEFT JOIN products p ON p.id = si.product_id").
		Where("s.created_at >= ? AND s.created_at < ?", startAt.UTC(), endAt.UTC()).
		Group("si.product_id, p.name").
		Order("quantity DESC, si.product_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
