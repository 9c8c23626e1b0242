package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// moneyScale 金额精度：比索到分
const moneyScale = 2

// Money 金额，读写时统一保留两位小数
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(moneyScale)}
}

// NewMoneyFromInt 整数比索
func NewMoneyFromInt(amount int64) Money {
	return Money{Decimal: decimal.NewFromInt(amount)}
}

// MulQuantity 单价乘以数量
func (m Money) MulQuantity(qty int) Money {
	return NewMoneyFromDecimal(m.Decimal.Mul(decimal.NewFromInt(int64(qty))))
}

// Float 浮点值，仅用于报表聚合
func (m Money) Float() float64 {
	f, _ := m.rounded().Float64()
	return f
}

// String 两位小数文本
func (m Money) String() string {
	return m.rounded().StringFixed(moneyScale)
}

// MarshalJSON 金额以字符串输出，避免前端浮点误差
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 兼容字符串与数字两种写法
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := b
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return err
	}
	m.Decimal = d.Round(moneyScale)
	return nil
}

// Value 实现 driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.rounded().Value()
}

// Scan 实现 sql.Scanner
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.Decimal = d.Round(moneyScale)
	return nil
}

func (m Money) rounded() decimal.Decimal {
	return m.Decimal.Round(moneyScale)
}
