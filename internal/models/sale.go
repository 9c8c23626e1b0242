package models

import "time"

// Sale 销售订单表
type Sale struct {
	ID                  uint      `gorm:"primarykey" json:"id"`                                                    // 主键
	Total               Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total"`                      // 订单总额（提交时购物车合计快照）
	PaymentMethod       string    `gorm:"type:varchar(20);not null" json:"payment_method"`                         // 支付方式 cash/card
	Notes               string    `gorm:"type:text" json:"notes"`                                                  // 订单备注（方式、地点、详情）
	Source              string    `gorm:"type:varchar(40);not null;index" json:"source"`                           // 来源标识
	UserID              *string   `gorm:"type:varchar(64);index" json:"user_id,omitempty"`                         // 下单用户（匿名为空）
	CustomerName        string    `gorm:"type:varchar(200)" json:"customer_name,omitempty"`                        // 顾客名称
	FulfillmentMode     string    `gorm:"type:varchar(20)" json:"fulfillment_mode,omitempty"`                      // 履约方式 delivery/pickup
	FulfillmentLocation string    `gorm:"type:varchar(300)" json:"fulfillment_location,omitempty"`                 // 配送区域或自提门店
	FulfillmentStatus   string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"fulfillment_status"` // 履约状态
	CreatedAt           time.Time `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt           time.Time `json:"updated_at"`                                                              // 更新时间

	Items []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"` // 销售明细
}

// TableName 指定表名
func (Sale) TableName() string {
	return "sales"
}
