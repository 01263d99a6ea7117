package service

import (
	"cex-match/biz/dal/pg"
	"cex-match/biz/model"
)

// 业务层只做聚合和编排，所有数据操作通过 pg 仓储

func ListOrders(userID uint64, status string) ([]model.Order, error) {
	return pg.ListOrders(userID, status)
}

func GetOrderByID(orderID uint64) (*model.Order, error) {
	return pg.GetOrderByID(orderID)
}

// OrderBookSnapshot 订单簿快照：某交易对的全部 open 买卖单，按优先级排序
func OrderBookSnapshot(symbol string) ([]model.Order, []model.Order, error) {
	bids, err := pg.ListOpenOrdersBySymbol(symbol, model.SideBuy)
	if err != nil {
		return nil, nil, err
	}
	asks, err := pg.ListOpenOrdersBySymbol(symbol, model.SideSell)
	if err != nil {
		return nil, nil, err
	}
	return bids, asks, nil
}
