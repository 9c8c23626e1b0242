package repository

import (
	"errors"
	"strings"

	"github.com/manda2/internal/models"

	"gorm.io/gorm"
)

// StoreRepository 门店数据访问接口
type StoreRepository interface {
	ListActive() ([]models.Store, error)
	GetActiveByName(name string) (*models.Store, error)
	Create(store *models.Store) error
}

// GormStoreRepository GORM 实现
type GormStoreRepository struct {
	db *gorm.DB
}

// NewStoreRepository 创建门店仓库
func NewStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// ListActive 获取营业中的门店
func (r *GormStoreRepository) ListActive() ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// GetActiveByName 按名称获取营业中的门店
func (r *GormStoreRepository) GetActiveByName(name string) (*models.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var store models.Store
	if err := r.db.Where("name = ? AND is_active = ?", name, true).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

// Create 创建门店
func (r *GormStoreRepository) Create(store *models.Store) error {
	return r.db.Create(store).Error
}
