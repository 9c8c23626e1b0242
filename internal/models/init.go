package models

import (
	"strings"

	"github.com/manda2/internal/logger"
)

// InitDefaultOperator 初始化默认操作员账号
func InitDefaultOperator(username string) (*Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "manager"
	}

	var existing Operator
	err := DB.Where("username = ?", username).Limit(1).Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing.ID != 0 {
		return &existing, nil
	}

	operator := Operator{
		Username:    username,
		DisplayName: username,
		IsSuper:     true,
	}
	if err := DB.Create(&operator).Error; err != nil {
		return nil, err
	}
	logger.Warnw("default_operator_created", "username", username, "is_super", operator.IsSuper)
	return &operator, nil
}
