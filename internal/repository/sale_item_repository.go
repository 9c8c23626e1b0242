package repository

import (
	"github.com/manda2/internal/models"

	"gorm.io/gorm"
)

// SaleItemRepository 销售明细数据访问接口
type SaleItemRepository interface {
	CreateBatch(items []models.SaleItem) error
}

// GormSaleItemRepository GORM 实现
type GormSaleItemRepository struct {
	db *gorm.DB
}

// NewSaleItemRepository 创建销售明细仓库
func NewSaleItemRepository(db *gorm.DB) *GormSaleItemRepository {
	return &GormSaleItemRepository{db: db}
}

// CreateBatch 批量写入明细
func (r *GormSaleItemRepository) CreateBatch(items []models.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}
