package repository

import "gorm.io/gorm"

// MaxPageSize 单页条数上限
const MaxPageSize = 100

// applyPagination 分页；pageSize<=0 不分页，超过上限按上限截断，页码从 1 开始
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
