package models

import "time"

// Store 门店表（自提网点）
type Store struct {
	ID        uint      `gorm:"primarykey" json:"id"`                           // 主键
	Name      string    `gorm:"type:varchar(200);not null;index" json:"name"`   // 门店名称
	Address   string    `gorm:"type:varchar(500)" json:"address,omitempty"`     // 门店地址
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`   // 是否营业
	CreatedAt time.Time `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                     // 更新时间
}

// TableName 指定表名
func (Store) TableName() string {
	return "stores"
}
