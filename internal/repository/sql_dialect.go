package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// dialectOf 当前连接的方言，未知时按 sqlite 处理
func dialectOf(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return dialectSQLite
	}
	switch name := strings.ToLower(db.Dialector.Name()); name {
	case "postgres", "postgresql":
		return dialectPostgres
	case "":
		return dialectSQLite
	default:
		return name
	}
}

// containsFold 名称包含关键字（忽略大小写），通配符按字面匹配
func containsFold(db *gorm.DB, column, keyword string) clause.Expression {
	return containsFoldFor(dialectOf(db), column, keyword)
}

func containsFoldFor(dialect, column, keyword string) clause.Expr {
	col := clause.Column{Name: strings.TrimSpace(column)}
	keyword = strings.TrimSpace(keyword)
	if dialect == dialectPostgres {
		return clause.Expr{SQL: "? ILIKE ?", Vars: []interface{}{col, "%" + likeEscaper.Replace(keyword) + "%"}}
	}
	// sqlite 的 LIKE 只对 ASCII 忽略大小写，两侧统一转小写
	return clause.Expr{
		SQL:  `LOWER(?) LIKE ? ESCAPE '\'`,
		Vars: []interface{}{col, "%" + likeEscaper.Replace(strings.ToLower(keyword)) + "%"},
	}
}
