package main

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/manda2/internal/models"
)

func TestBuildHistoricalSalesCoversTwoMonths(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	products := seedProducts()
	for i := range products {
		products[i].ID = uint(i + 1)
	}
	sales := buildHistoricalSales(now, products, "Manda2", []string{"Condesa, CDMX"}, rand.New(rand.NewPCG(1, 2)))
	if len(sales) == 0 {
		t.Fatalf("expected historical sales")
	}

	priorStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	currentStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var prior, current int
	for _, sale := range sales {
		if sale.CreatedAt.Before(priorStart) || !sale.CreatedAt.Before(now) {
			t.Fatalf("sale outside range: %s", sale.CreatedAt)
		}
		if sale.CreatedAt.Before(currentStart) {
			prior++
		} else {
			current++
		}
		if sale.Source != "Manda2" || sale.FulfillmentStatus != "completed" || len(sale.Items) == 0 {
			t.Fatalf("unexpected sale: %+v", sale)
		}
		sum := models.NewMoneyFromInt(0)
		for _, item := range sale.Items {
			sum = models.NewMoneyFromDecimal(sum.Decimal.Add(item.UnitPrice.MulQuantity(item.Quantity).Decimal))
		}
		if !sum.Equal(sale.Total.Decimal) {
			t.Fatalf("sale total %s does not match items %s", sale.Total.String(), sum.String())
		}
	}
	if prior == 0 || current == 0 {
		t.Fatalf("both months should have sales, prior=%d current=%d", prior, current)
	}
}

func TestBuildHistoricalSalesWithoutProducts(t *testing.T) {
	now := time.Now().UTC()
	if sales := buildHistoricalSales(now, nil, "Manda2", nil, rand.New(rand.NewPCG(1, 2))); len(sales) != 0 {
		t.Fatalf("no products should produce no sales, got %d", len(sales))
	}
	products := seedProducts()
	products[0].ID = 1
	if sales := buildHistoricalSales(now, products[:1], "Manda2", nil, nil); len(sales) != 0 {
		t.Fatalf("nil rng should produce no sales")
	}
}
