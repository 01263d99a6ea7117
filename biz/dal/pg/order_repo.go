package pg

import (
	"context"
	"time"

	"cex-match/biz/model"

	"gorm.io/gorm"
)

// OrderRepo 订单仓储，绑定到一个 *gorm.DB（可能是事务句柄）
type OrderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// OpenOrders 查询某交易对某方向的全部 open 订单，按价格/时间/ID优先级排序
// buy: 价格降序；sell: 价格升序；同价按 created_at、order_id 升序
func (r *OrderRepo) OpenOrders(ctx context.Context, symbol, side string) ([]model.Order, error) {
	priceOrder := "price asc"
	if side == model.SideBuy {
		priceOrder = "price desc"
	}
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND side = ? AND status = ?", symbol, side, model.OrderStatusOpen).
		Order(priceOrder).Order("created_at asc").Order("order_id asc").
		Find(&orders).Error
	return orders, err
}

// SaveFill 持久化撮合后的剩余数量与状态
func (r *OrderRepo) SaveFill(ctx context.Context, order *model.Order) error {
	order.UpdatedAt = time.Now().UnixMilli()
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ?", order.OrderID).
		Updates(map[string]interface{}{
			"amount":     order.Amount,
			"status":     order.Status,
			"updated_at": order.UpdatedAt,
		}).Error
}

// InsertOrder 插入订单
func InsertOrder(order *model.Order) error {
	return GormDB.Create(order).Error
}

// GetOrderByID 查询单个订单
func GetOrderByID(orderID uint64) (*model.Order, error) {
	var order model.Order
	err := GormDB.Where("order_id = ?", orderID).First(&order).Error
	return &order, err
}

// ListOrders 查询订单列表
func ListOrders(userID uint64, status string) ([]model.Order, error) {
	var orders []model.Order
	db := GormDB.Model(&model.Order{})
	if userID != 0 {
		db = db.Where("user_id = ?", userID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at desc").Find(&orders).Error
	return orders, err
}

// ListOpenOrdersBySymbol 查询交易对的全部 open 订单（订单簿快照用）
func ListOpenOrdersBySymbol(symbol, side string) ([]model.Order, error) {
	return NewOrderRepo(GormDB).OpenOrders(context.Background(), symbol, side)
}
