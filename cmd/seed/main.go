package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/manda2/internal/authz"
	"github.com/manda2/internal/config"
	"github.com/manda2/internal/constants"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/models"
	"github.com/manda2/internal/repository"
	"github.com/manda2/internal/service"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	var withHistory bool
	var seed uint64
	flag.BoolVar(&withHistory, "history", true, "生成本月与上月的历史销售数据")
	flag.Uint64Var(&seed, "seed", 20260301, "历史数据随机种子")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 商品
	for _, product := range seedProducts() {
		var existing models.Product
		if err := models.DB.Where("name = ?", product.Name).Limit(1).Find(&existing).Error; err != nil {
			stdLog.Fatalf("Failed to query product %s: %v", product.Name, err)
		}
		if existing.ID != 0 {
			stdLog.Printf("Product already exists: %s", product.Name)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Name, err)
		} else {
			stdLog.Printf("Created product: %s", product.Name)
		}
	}

	// 自提门店
	for _, store := range seedStores() {
		var existing models.Store
		if err := models.DB.Where("name = ?", store.Name).Limit(1).Find(&existing).Error; err != nil {
			stdLog.Fatalf("Failed to query store %s: %v", store.Name, err)
		}
		if existing.ID != 0 {
			stdLog.Printf("Store already exists: %s", store.Name)
			continue
		}
		if err := models.DB.Create(&store).Error; err != nil {
			stdLog.Printf("Failed to create store %s: %v", store.Name, err)
		} else {
			stdLog.Printf("Created store: %s", store.Name)
		}
	}

	// 操作员与角色
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.SyncBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}
	operatorRepo := repository.NewOperatorRepository(models.DB)
	authService := service.NewAuthService(cfg, operatorRepo)
	for _, item := range seedOperators() {
		operator, err := operatorRepo.GetByUsername(item.operator.Username)
		if err != nil {
			stdLog.Fatalf("Failed to query operator %s: %v", item.operator.Username, err)
		}
		if operator == nil {
			operator = &item.operator
			if err := operatorRepo.Create(operator); err != nil {
				stdLog.Fatalf("Failed to create operator %s: %v", operator.Username, err)
			}
			stdLog.Printf("Created operator: %s", operator.Username)
		}
		if len(item.roles) > 0 {
			if err := authzService.SetOperatorRoles(operator.ID, item.roles); err != nil {
				stdLog.Fatalf("Failed to assign roles to %s: %v", operator.Username, err)
			}
		}
		token, expiresAt, err := authService.IssueOperatorToken(operator.Username)
		if err != nil {
			stdLog.Fatalf("Failed to issue token for %s: %v", operator.Username, err)
		}
		roles, err := authzService.OperatorRoles(operator.ID)
		if err != nil {
			stdLog.Fatalf("Failed to read roles of %s: %v", operator.Username, err)
		}
		if operator.IsSuper {
			roles = append(roles, "super")
		}
		fmt.Printf("operator=%s roles=%s expires=%s\nAuthorization: Bearer %s\n",
			operator.Username, strings.Join(roles, ","), expiresAt.Format(time.RFC3339), token)
	}

	// 本地联调用的顾客令牌
	customerToken, customerExpiresAt, err := authService.GenerateCustomerJWT(service.CustomerIdentity{
		UserID:   "demo-customer",
		Email:    "cliente@manda2.mx",
		FullName: "Cliente Demo",
	})
	if err != nil {
		stdLog.Fatalf("Failed to issue customer token: %v", err)
	}
	fmt.Printf("customer=demo-customer expires=%s\nAuthorization: Bearer %s\n", customerExpiresAt.Format(time.RFC3339), customerToken)

	if !withHistory {
		return
	}

	// 历史销售（本月与上月）
	var existingSales int64
	if err := models.DB.Model(&models.Sale{}).Where("source = ?", cfg.Checkout.SourceTag).Count(&existingSales).Error; err != nil {
		stdLog.Fatalf("Failed to count sales: %v", err)
	}
	if existingSales > 0 {
		stdLog.Printf("Sales already exist (%d), skip history", existingSales)
		return
	}
	var products []models.Product
	if err := models.DB.Order("id ASC").Find(&products).Error; err != nil {
		stdLog.Fatalf("Failed to load products: %v", err)
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))
	sales := buildHistoricalSales(time.Now().UTC(), products, cfg.Checkout.SourceTag, cfg.Checkout.DeliveryZones, rng)
	created := 0
	for i := range sales {
		sale := sales[i]
		items := sale.Items
		sale.Items = nil
		err := models.DB.Transaction(func(tx *gorm.DB) error {
			if err := repository.NewSaleRepository(tx).Create(&sale); err != nil {
				return err
			}
			for j := range items {
				items[j].SaleID = sale.ID
			}
			return repository.NewSaleItemRepository(tx).CreateBatch(items)
		})
		if err != nil {
			stdLog.Printf("Failed to create sale: %v", err)
			continue
		}
		created++
	}
	stdLog.Printf("Created %d historical sales", created)
}

type seedOperator struct {
	operator models.Operator
	roles    []string
}

func seedOperators() []seedOperator {
	return []seedOperator{
		{operator: models.Operator{Username: "manager", DisplayName: "Gerente", IsSuper: true}},
		{operator: models.Operator{Username: "cocina", DisplayName: "Cocina"}, roles: []string{constants.RoleKitchen}},
		{operator: models.Operator{Username: "encargado", DisplayName: "Encargado de turno"}, roles: []string{constants.RoleManager}},
	}
}

func seedProducts() []models.Product {
	price := func(value string) models.Money {
		return models.NewMoneyFromDecimal(decimal.RequireFromString(value))
	}
	return []models.Product{
		{Name: "Tacos al pastor (orden)", Price: price("65.00"), Stock: 120, CategoryID: "comida"},
		{Name: "Quesadilla de flor de calabaza", Price: price("48.50"), Stock: 80, CategoryID: "comida"},
		{Name: "Tamal oaxaqueño", Price: price("32.00"), Stock: 60, CategoryID: "comida"},
		{Name: "Agua de horchata 1L", Price: price("35.00"), Stock: 90, CategoryID: "bebidas"},
		{Name: "Café de olla", Price: price("28.00"), Stock: 150, CategoryID: "bebidas"},
		{Name: "Aguacate Hass", Price: price("89.90"), Stock: 40, CategoryID: "frutas", IsWeighted: true},
		{Name: "Limón sin semilla", Price: price("42.00"), Stock: 55, CategoryID: "frutas", IsWeighted: true},
		{Name: "Pan de muerto", Price: price("120.00"), Stock: 0, CategoryID: "panaderia"},
	}
}

func seedStores() []models.Store {
	return []models.Store{
		{Name: "Sucursal Roma (Orizaba 101)", Address: "Orizaba 101, Roma Norte, CDMX", IsActive: true},
		{Name: "Sucursal Condesa (Tamaulipas 55)", Address: "Tamaulipas 55, Condesa, CDMX", IsActive: true},
		{Name: "Sucursal Coyoacán (cerrada)", Address: "Allende 12, Coyoacán, CDMX", IsActive: false},
	}
}

// buildHistoricalSales 生成上月初至今的销售与明细，时间均为 UTC
func buildHistoricalSales(now time.Time, products []models.Product, source string, zones []string, rng *rand.Rand) []models.Sale {
	available := make([]models.Product, 0, len(products))
	for _, product := range products {
		if product.ID != 0 && product.Price.IsPositive() {
			available = append(available, product)
		}
	}
	if len(available) == 0 || rng == nil {
		return nil
	}
	stores := seedStores()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := monthStart.AddDate(0, -1, 0)

	sales := make([]models.Sale, 0)
	for day := start; day.Before(now); day = day.AddDate(0, 0, 1) {
		count := 1 + rng.IntN(4)
		for n := 0; n < count; n++ {
			createdAt := day.Add(time.Duration(9+rng.IntN(12))*time.Hour + time.Duration(rng.IntN(60))*time.Minute)
			if !createdAt.Before(now) {
				continue
			}
			lines := 1 + rng.IntN(3)
			items := make([]models.SaleItem, 0, lines)
			total := decimal.Zero
			for l := 0; l < lines; l++ {
				product := available[rng.IntN(len(available))]
				qty := 1 + rng.IntN(3)
				items = append(items, models.SaleItem{
					ProductID: product.ID,
					Quantity:  qty,
					UnitPrice: product.Price,
					CreatedAt: createdAt,
				})
				total = total.Add(product.Price.MulQuantity(qty).Decimal)
			}

			mode := constants.FulfillmentModePickup
			location := stores[rng.IntN(2)].Name
			if len(zones) > 0 && rng.IntN(2) == 0 {
				mode = constants.FulfillmentModeDelivery
				location = zones[rng.IntN(len(zones))]
			}
			payment := constants.PaymentMethodCash
			if rng.IntN(2) == 0 {
				payment = constants.PaymentMethodCard
			}
			sales = append(sales, models.Sale{
				Total:               models.NewMoneyFromDecimal(total),
				PaymentMethod:       payment,
				Notes:               fmt.Sprintf("Order from %s (%s) - %s.", source, mode, location),
				Source:              source,
				FulfillmentMode:     mode,
				FulfillmentLocation: location,
				FulfillmentStatus:   constants.FulfillmentStatusCompleted,
				CreatedAt:           createdAt,
				UpdatedAt:           createdAt,
				Items:               items,
			})
		}
	}
	return sales
}
