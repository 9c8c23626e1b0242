package models

import "time"

// UserAddress 用户地址表（只追加）
type UserAddress struct {
	ID        uint      `gorm:"primarykey" json:"id"`                          // 主键
	UserID    string    `gorm:"type:varchar(64);not null;index" json:"user_id"` // 身份提供方用户ID
	Address   string    `gorm:"type:varchar(500);not null" json:"address"`      // 地址（配送区域）
	CreatedAt time.Time `gorm:"index" json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (UserAddress) TableName() string {
	return "user_addresses"
}
