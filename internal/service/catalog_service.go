package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/models"
	"github.com/manda2/internal/repository"
)

// CatalogService 商品目录与履约地点服务（只读）
type CatalogService struct {
	productRepo   repository.ProductRepository
	storeRepo     repository.StoreRepository
	deliveryZones []string
}

// NewCatalogService 创建目录服务
func NewCatalogService(productRepo repository.ProductRepository, storeRepo repository.StoreRepository, deliveryZones []string) *CatalogService {
	zones := make([]string, 0, len(deliveryZones))
	for _, zone := range deliveryZones {
		if trimmed := strings.TrimSpace(zone); trimmed != "" {
			zones = append(zones, trimmed)
		}
	}
	return &CatalogService{
		productRepo:   productRepo,
		storeRepo:     storeRepo,
		deliveryZones: zones,
	}
}

// ProductQuery 商品查询条件
type ProductQuery struct {
	Search     string
	CategoryID string
	Page       int
	PageSize   int
}

// ListProducts 有库存的商品
func (s *CatalogService) ListProducts(ctx context.Context, query ProductQuery) ([]models.Product, error) {
	_ = ctx
	products, err := s.productRepo.List(repository.ProductListFilter{
		Search:     query.Search,
		CategoryID: query.CategoryID,
		OnlyStock:  true,
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogFetchFailed, err)
	}
	return products, nil
}

// GetProduct 获取商品（含无库存商品，库存由购物车判断）
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	_ = ctx
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogFetchFailed, err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListStores 营业中的自提门店
func (s *CatalogService) ListStores(ctx context.Context) ([]models.Store, error) {
	_ = ctx
	stores, err := s.storeRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogFetchFailed, err)
	}
	return stores, nil
}

// DeliveryZones 可配送区域
func (s *CatalogService) DeliveryZones() []string {
	zones := make([]string, len(s.deliveryZones))
	copy(zones, s.deliveryZones)
	return zones
}

// ValidateSelection 校验履约方式与地点，地点为空表示仅切换方式
func (s *CatalogService) ValidateSelection(ctx context.Context, mode, location string) (*FulfillmentSelection, error) {
	_ = ctx
	mode = strings.ToLower(strings.TrimSpace(mode))
	location = strings.TrimSpace(location)
	if !isValidFulfillmentMode(mode) {
		return nil, ErrFulfillmentModeInvalid
	}
	selection := &FulfillmentSelection{Mode: mode, Location: location}
	if location == "" {
		return selection, nil
	}
	switch mode {
	case constants.FulfillmentModeDelivery:
		for _, zone := range s.deliveryZones {
			if zone == location {
				return selection, nil
			}
		}
		return nil, ErrLocationInvalid
	default:
		store, err := s.storeRepo.GetActiveByName(location)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCatalogFetchFailed, err)
		}
		if store == nil {
			return nil, ErrLocationInvalid
		}
		return selection, nil
	}
}
