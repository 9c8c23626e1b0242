package repository

import (
	"errors"
	"time"

	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/models"

	"gorm.io/gorm"
)

// SaleRepository 销售订单数据访问接口
type SaleRepository interface {
	Create(sale *models.Sale) error
	GetByID(id uint) (*models.Sale, error)
	ListOpenBySource(source string) ([]models.Sale, error)
	UpdateFulfillmentStatus(id uint, from, to string, updatedAt time.Time) (int64, error)
}

// GormSaleRepository GORM 实现
type GormSaleRepository struct {
	db *gorm.DB
}

// NewSaleRepository 创建销售订单仓库
func NewSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create 创建订单
func (r *GormSaleRepository) Create(sale *models.Sale) error {
	return r.db.Omit("Items").Create(sale).Error
}

// GetByID 根据 ID 获取订单
func (r *GormSaleRepository) GetByID(id uint) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// ListOpenBySource 获取指定来源未完成的订单，最早创建的在前
func (r *GormSaleRepository) ListOpenBySource(source string) ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.db.
		Where("source = ? AND fulfillment_status <> ?", source, constants.FulfillmentStatusCompleted).
		Order("created_at ASC, id ASC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// UpdateFulfillmentStatus 条件更新履约状态，仅当当前状态等于 from 时生效，返回影响行数
func (r *GormSaleRepository) UpdateFulfillmentStatus(id uint, from, to string, updatedAt time.Time) (int64, error) {
	result := r.db.Model(&models.Sale{}).
		Where("id = ? AND fulfillment_status = ?", id, from).
		UpdateColumns(map[string]interface{}{
			"fulfillment_status": to,
			"updated_at":         updatedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
