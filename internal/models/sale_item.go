package models

import "time"

// SaleItem 销售明细表（由外部协作方写入，报表只读）
type SaleItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                   // 主键
	SaleID    uint      `gorm:"not null;index" json:"sale_id"`                          // 销售订单ID
	ProductID uint      `gorm:"not null;index" json:"product_id"`                       // 商品ID
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`                     // 数量
	UnitPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 成交单价
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                // 创建时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (SaleItem) TableName() string {
	return "sale_items"
}
