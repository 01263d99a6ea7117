package service

import (
	"cex-match/biz/model"

	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// BookOrder 撮合用内存订单，Amount 为剩余数量
type BookOrder struct {
	OrderID   uint64
	UserID    uint64
	Side      string
	Price     decimal.Decimal
	Amount    decimal.Decimal
	CreatedAt int64
}

// BookOrderFromModel 从持久化订单构造撮合订单
func BookOrderFromModel(o model.Order) BookOrder {
	return BookOrder{
		OrderID:   o.OrderID,
		UserID:    o.UserID,
		Side:      o.Side,
		Price:     o.Price,
		Amount:    o.Amount,
		CreatedAt: o.CreatedAt,
	}
}

// MatchExecution 一次撮合扫描产生的单笔成交
type MatchExecution struct {
	BuyOrderID  uint64
	SellOrderID uint64
	Price       decimal.Decimal
	Amount      decimal.Decimal
}

// bookKey 排序键：价格 + 时间 + 订单ID，三段保证严格全序
type bookKey struct {
	price     decimal.Decimal
	createdAt int64
	id        uint64
}

func compareTimeID(l, r bookKey) int {
	if l.createdAt != r.createdAt {
		if l.createdAt < r.createdAt {
			return -1
		}
		return 1
	}
	switch {
	case l.id < r.id:
		return -1
	case l.id > r.id:
		return 1
	}
	return 0
}

// 买盘比较器：价格降序，同价按时间、订单ID升序
type bidComparator struct{}

func (bidComparator) Compare(l, r interface{}) int {
	lk, rk := l.(bookKey), r.(bookKey)
	if c := lk.price.Cmp(rk.price); c != 0 {
		return -c // 价格高优先
	}
	return compareTimeID(lk, rk)
}

func (bidComparator) CalcScore(key interface{}) float64 {
	f, _ := key.(bookKey).price.Float64()
	return -f
}

// 卖盘比较器：价格升序，同价按时间、订单ID升序
type askComparator struct{}

func (askComparator) Compare(l, r interface{}) int {
	lk, rk := l.(bookKey), r.(bookKey)
	if c := lk.price.Cmp(rk.price); c != 0 {
		return c // 价格低优先
	}
	return compareTimeID(lk, rk)
}

func (askComparator) CalcScore(key interface{}) float64 {
	f, _ := key.(bookKey).price.Float64()
	return f
}

// buildBook 过滤掉剩余数量或价格非正的订单后按优先级入跳表
func buildBook(orders []BookOrder, cmp skiplist.Comparable) *skiplist.SkipList {
	book := skiplist.New(cmp)
	for i := range orders {
		o := orders[i]
		if o.Amount.Sign() <= 0 || o.Price.Sign() <= 0 {
			continue
		}
		book.Set(bookKey{price: o.Price, createdAt: o.CreatedAt, id: o.OrderID}, &o)
	}
	return book
}

// MatchOrders 对一个交易对的买卖盘做一次撮合扫描
// 双指针沿排序后的队列推进，买一价低于卖一价即终止（后续不可能再交叉）
// 成交价恒取卖方订单价格，成交量取双方剩余量较小者
// 买卖任一方剩余量减到 0 各自推进指针，可能同一步同时推进
// 返回顺序即发现顺序，下游按该顺序逐笔做结算与偿付检查
func MatchOrders(buys, sells []BookOrder) []MatchExecution {
	bidBook := buildBook(buys, bidComparator{})
	askBook := buildBook(sells, askComparator{})

	var matches []MatchExecution
	b, s := bidBook.Front(), askBook.Front()
	for b != nil && s != nil {
		bid := b.Value.(*BookOrder)
		ask := s.Value.(*BookOrder)

		if bid.Price.Cmp(ask.Price) < 0 {
			break
		}

		fill := decimal.Min(bid.Amount, ask.Amount)
		matches = append(matches, MatchExecution{
			BuyOrderID:  bid.OrderID,
			SellOrderID: ask.OrderID,
			Price:       ask.Price,
			Amount:      fill,
		})

		bid.Amount = bid.Amount.Sub(fill)
		ask.Amount = ask.Amount.Sub(fill)

		if bid.Amount.IsZero() {
			b = b.Next()
		}
		if ask.Amount.IsZero() {
			s = s.Next()
		}
	}
	return matches
}
