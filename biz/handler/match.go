package handler

import (
	"context"
	"errors"

	"cex-match/biz/service"
	"cex-match/biz/util"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

var matchService *service.MatchService

// InitMatchHandler 注入撮合编排实例
func InitMatchHandler(s *service.MatchService) {
	matchService = s
}

// RunMatching POST /api/match/:symbol 对一个交易对触发一轮撮合
func RunMatching(ctx context.Context, c *app.RequestContext) {
	symbol := c.Param("symbol")
	report, err := matchService.RunMatching(ctx, symbol)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUnsupportedSymbol):
			c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "unsupported symbol"})
		case errors.Is(err, service.ErrSymbolBusy):
			c.JSON(consts.StatusConflict, map[string]interface{}{"error": "matching already in flight"})
		default:
			c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		}
		return
	}
	if report.Proposed == 0 {
		c.JSON(consts.StatusOK, map[string]interface{}{
			"symbol":  report.Symbol,
			"matches": 0,
			"detail":  "No crossable orders",
		})
		return
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"symbol":   report.Symbol,
		"matches":  report.Settled,
		"proposed": report.Proposed,
	})
}

// GetOrderbook GET /api/orderbook/:symbol 订单簿快照
func GetOrderbook(ctx context.Context, c *app.RequestContext) {
	symbol := util.NormalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{"error": "symbol required"})
		return
	}
	bids, asks, err := service.OrderBookSnapshot(symbol)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}
	bidItems := make([]map[string]interface{}, 0, len(bids))
	for _, o := range bids {
		bidItems = append(bidItems, map[string]interface{}{
			"id": o.OrderID, "price": o.Price.String(), "amount": o.Amount.String(),
		})
	}
	askItems := make([]map[string]interface{}, 0, len(asks))
	for _, o := range asks {
		askItems = append(askItems, map[string]interface{}{
			"id": o.OrderID, "price": o.Price.String(), "amount": o.Amount.String(),
		})
	}
	c.JSON(consts.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"bids":   bidItems,
		"asks":   askItems,
	})
}
