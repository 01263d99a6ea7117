package model

import (
	"github.com/shopspring/decimal"
)

// 流水类型
const (
	TxTypeTradeBuy  = "trade_buy"
	TxTypeTradeSell = "trade_sell"
)

const TxStatusCompleted = "completed"

// Transaction 资金流水模型（GORM，只追加不修改）
type Transaction struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	UserID    uint64          `gorm:"column:user_id;index" json:"user_id"`
	Coin      string          `gorm:"column:coin;index" json:"coin"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(36,18)" json:"amount"`
	Type      string          `gorm:"column:type" json:"type"`
	Status    string          `gorm:"column:status" json:"status"`
	CreatedAt int64           `gorm:"column:created_at" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
