package model

import (
	"github.com/shopspring/decimal"
)

// Balance 用户余额模型（GORM）
// (user_id, coin) 唯一，首次引用时惰性创建，结算后余额不允许为负
type Balance struct {
	ID     uint64          `gorm:"primaryKey" json:"id"`
	UserID uint64          `gorm:"column:user_id;uniqueIndex:uq_balances_user_coin" json:"user_id"`
	Coin   string          `gorm:"column:coin;uniqueIndex:uq_balances_user_coin" json:"coin"`
	Amount decimal.Decimal `gorm:"column:amount;type:numeric(36,18)" json:"amount"`
}

func (Balance) TableName() string {
	return "balances"
}
