package models

import (
	"time"
)

// Product 商品表（目录只读，库存仅由目录侧维护）
type Product struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                    // 主键
	Name       string    `gorm:"type:varchar(200);not null;index" json:"name"`            // 商品名称
	Price      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"`      // 单价
	Stock      int       `gorm:"not null;default:0;index" json:"stock"`                   // 库存
	ImageURL   string    `gorm:"type:varchar(500)" json:"image_url,omitempty"`            // 图片地址
	CategoryID string    `gorm:"type:varchar(64);index" json:"category_id,omitempty"`     // 分类标识
	IsWeighted bool      `gorm:"not null;default:false" json:"is_weighted"`               // 是否称重（按 kg 计价）
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
