package service

import (
	"testing"

	"cex-match/biz/model"
)

// 连接池未初始化时批量入库直接丢弃，不允许 panic
func TestBatchInsertOrdersWithoutPool(t *testing.T) {
	batchInsertOrders([]model.SubmitOrderMsg{{
		OrderID: 1,
		UserID:  1,
		Symbol:  "BTCUSDT",
		Side:    model.SideBuy,
		Price:   "100",
		Amount:  "1",
	}})
	batchInsertOrders(nil)
}
