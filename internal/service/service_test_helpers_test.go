package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/manda2/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Operator{}, &models.Product{}, &models.Store{}, &models.UserAddress{}, &models.Sale{}, &models.SaleItem{}); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	return db
}

func testProduct(id uint, price string, stock int) models.Product {
	return models.Product{
		ID:    id,
		Name:  fmt.Sprintf("product-%d", id),
		Price: models.NewMoneyFromDecimal(decimal.RequireFromString(price)),
		Stock: stock,
	}
}
