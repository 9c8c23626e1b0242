package repository

import (
	"errors"
	"strings"

	"github.com/manda2/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// List 按名称升序；过滤条件各自独立，可任意组合
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := r.db.Model(&models.Product{}).
		Scopes(productFilterScope(r.db, filter)).
		Order("name ASC, id ASC").
		Scopes(func(q *gorm.DB) *gorm.DB { return applyPagination(q, filter.Page, filter.PageSize) }).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func productFilterScope(db *gorm.DB, filter ProductListFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if filter.OnlyStock {
			q = q.Where("stock > ?", 0)
		}
		if categoryID := strings.TrimSpace(filter.CategoryID); categoryID != "" {
			q = q.Where("category_id = ?", categoryID)
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			q = q.Where(containsFold(db, "name", search))
		}
		return q
	}
}

// GetByID 根据 ID 获取商品，不存在返回 nil
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}
