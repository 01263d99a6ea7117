package service

import (
	"github.com/shopspring/decimal"
)

// DefaultTradingFeeRate 默认手续费率 0.1%
var DefaultTradingFeeRate = decimal.RequireFromString("0.001")

// AmountScale 金额定点精度：18 位小数
const AmountScale = 18

// QuantizeAmount 截断到 18 位小数，向零截断，永不进位
func QuantizeAmount(v decimal.Decimal) decimal.Decimal {
	return v.Truncate(AmountScale)
}

// CalculateTradingFee 计算成交手续费
// amount <= 0 返回 0；结果按 18 位小数截断，账务侧要求跨实现逐位一致
func CalculateTradingFee(amount, rate decimal.Decimal) decimal.Decimal {
	if amount.Sign() <= 0 {
		return decimal.Zero
	}
	return QuantizeAmount(amount.Mul(rate))
}
