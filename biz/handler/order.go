package handler

import (
	"context"
	"strconv"

	"cex-match/biz/model"
	"cex-match/biz/service"
	"cex-match/biz/util"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/shopspring/decimal"
)

type SubmitOrderRequest struct {
	UserID uint64 `json:"user_id"`
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Price  string `json:"price"`
	Amount string `json:"amount"`
}

// SubmitOrder RESTful 下单接口
// 校验后写入 Kafka 下单链路，由消费 worker 批量入库
func SubmitOrder(ctx context.Context, c *app.RequestContext) {
	var req SubmitOrderRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		return
	}
	if req.UserID == 0 || req.Symbol == "" || req.Price == "" || req.Amount == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "missing required fields"})
		return
	}
	if req.Side != model.SideBuy && req.Side != model.SideSell {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "side must be buy or sell"})
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.Sign() <= 0 {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "price must be a positive decimal"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "amount must be a positive decimal"})
		return
	}
	if _, _, err := util.SplitSymbol(req.Symbol, util.QuoteCoins()); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "unsupported symbol"})
		return
	}

	orderID, err := service.SubmitOrder(model.SubmitOrderMsg{
		UserID: req.UserID,
		Symbol: util.NormalizeSymbol(req.Symbol),
		Side:   req.Side,
		Price:  service.QuantizeAmount(price).String(),
		Amount: service.QuantizeAmount(amount).String(),
	})
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{"order_id": orderID, "status": "received"})
}

// GetOrder 查询单个订单
func GetOrder(ctx context.Context, c *app.RequestContext) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "invalid order id"})
		return
	}
	order, err := service.GetOrderByID(orderID)
	if err != nil {
		c.JSON(consts.StatusNotFound, map[string]interface{}{"error": "order not found"})
		return
	}
	c.JSON(consts.StatusOK, order)
}

// ListOrders 查询订单列表
func ListOrders(ctx context.Context, c *app.RequestContext) {
	userID, _ := strconv.ParseUint(string(c.Query("user_id")), 10, 64)
	status := string(c.Query("status"))
	orders, err := service.ListOrders(userID, status)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	c.JSON(consts.StatusOK, orders)
}
