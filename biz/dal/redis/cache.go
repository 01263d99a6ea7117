package redis

import (
	"context"
	"encoding/json"
	"fmt"
)

// CacheSettlement 缓存最近成交结算到 Redis 列表，只保留最新 maxLen 条
func CacheSettlement(symbol string, event interface{}, maxLen int64) {
	if Client == nil {
		return
	}
	ctx := context.Background()
	key := "settlements:" + symbol
	val, err := json.Marshal(event)
	if err == nil {
		Client.LPush(ctx, key, val)
		Client.LTrim(ctx, key, 0, maxLen-1)
	}
}

// CacheUserActiveOrder 缓存用户活跃订单ID
func CacheUserActiveOrder(userID, orderID uint64) {
	if Client == nil || userID == 0 || orderID == 0 {
		return
	}
	ctx := context.Background()
	key := fmt.Sprintf("user:active_orders:%d", userID)
	Client.SAdd(ctx, key, orderID)
}

// RemoveUserActiveOrder 订单完全成交后从活跃集合移除
func RemoveUserActiveOrder(userID, orderID uint64) {
	if Client == nil || userID == 0 || orderID == 0 {
		return
	}
	ctx := context.Background()
	key := fmt.Sprintf("user:active_orders:%d", userID)
	Client.SRem(ctx, key, orderID)
}
