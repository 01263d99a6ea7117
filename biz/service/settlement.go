package service

import (
	"github.com/shopspring/decimal"
)

// SettlementResult 单笔成交的双边资金变动
type SettlementResult struct {
	BuyerBaseDelta   decimal.Decimal
	BuyerQuoteDelta  decimal.Decimal
	SellerBaseDelta  decimal.Decimal
	SellerQuoteDelta decimal.Decimal
	BuyerFee         decimal.Decimal
	SellerFee        decimal.Decimal
}

// SettleTrade 计算一笔成交的资金变动
// 买方手续费按买入的基础币数量收取，卖方手续费按计价币成交额收取
// 买方支付全额计价币，手续费从到手的基础币里扣
// 两笔手续费只从双方扣除，不记入任何账户
func SettleTrade(price, amount, feeRate decimal.Decimal) SettlementResult {
	grossQuote := price.Mul(amount)

	buyerFee := CalculateTradingFee(amount, feeRate)
	sellerFee := CalculateTradingFee(grossQuote, feeRate)

	return SettlementResult{
		BuyerBaseDelta:   amount.Sub(buyerFee),
		BuyerQuoteDelta:  grossQuote.Neg(),
		SellerBaseDelta:  amount.Neg(),
		SellerQuoteDelta: grossQuote.Sub(sellerFee),
		BuyerFee:         buyerFee,
		SellerFee:        sellerFee,
	}
}
