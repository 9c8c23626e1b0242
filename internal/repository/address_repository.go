package repository

import (
	"github.com/manda2/internal/models"

	"gorm.io/gorm"
)

// AddressRepository 用户地址数据访问接口
type AddressRepository interface {
	Create(address *models.UserAddress) error
	ListByUser(userID string) ([]models.UserAddress, error)
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// Create 保存地址
func (r *GormAddressRepository) Create(address *models.UserAddress) error {
	return r.db.Create(address).Error
}

// ListByUser 获取用户保存过的地址，最新在前
func (r *GormAddressRepository) ListByUser(userID string) ([]models.UserAddress, error) {
	var addresses []models.UserAddress
	if err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}
