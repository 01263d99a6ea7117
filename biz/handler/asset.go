package handler

import (
	"context"
	"strconv"

	"cex-match/biz/service"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// GetBalance 查询用户余额
func GetBalance(ctx context.Context, c *app.RequestContext) {
	userID, err := strconv.ParseUint(string(c.Query("user_id")), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "missing user_id"})
		return
	}
	balances, err := service.GetUserBalances(userID)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, balances)
}

// ListTransactions 查询用户资金流水
func ListTransactions(ctx context.Context, c *app.RequestContext) {
	userID, _ := strconv.ParseUint(string(c.Query("user_id")), 10, 64)
	limit := 50
	if l := string(c.Query("limit")); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	txs, err := service.ListUserTransactions(userID, limit)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, txs)
}
