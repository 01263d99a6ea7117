package model

import (
	"github.com/shopspring/decimal"
)

// 订单方向
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// 订单状态：open -> filled，剩余数量减到 0 时置为 filled，不可逆
const (
	OrderStatusOpen   = "open"
	OrderStatusFilled = "filled"
)

// SubmitOrderMsg 下单消息（handler -> kafka -> 批量入库）
type SubmitOrderMsg struct {
	OrderID   uint64 `json:"order_id"`
	UserID    uint64 `json:"user_id"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	Amount    string `json:"amount"`
	CreatedAt int64  `json:"created_at"`
}

// Order 订单模型（GORM）
// Amount 为剩余未成交数量，撮合过程只减不增
type Order struct {
	OrderID   uint64          `gorm:"primaryKey;column:order_id" json:"order_id"`
	UserID    uint64          `gorm:"column:user_id;index" json:"user_id"`
	Symbol    string          `gorm:"column:symbol;index" json:"symbol"`
	Side      string          `gorm:"column:side" json:"side"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(36,18)" json:"price"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(36,18)" json:"amount"`
	Status    string          `gorm:"column:status" json:"status"`
	CreatedAt int64           `gorm:"column:created_at" json:"created_at"`
	UpdatedAt int64           `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
