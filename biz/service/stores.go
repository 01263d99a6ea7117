package service

import (
	"context"

	"cex-match/biz/dal/pg"
	"cex-match/biz/model"
)

// 仓储接口按能力拆分，由撮合编排注入使用，不走全局会话

type OrderRepository interface {
	OpenOrders(ctx context.Context, symbol, side string) ([]model.Order, error)
	SaveFill(ctx context.Context, order *model.Order) error
}

type BalanceRepository interface {
	GetOrCreate(ctx context.Context, userID uint64, coin string) (*model.Balance, error)
	Save(ctx context.Context, bal *model.Balance) error
}

type LedgerRepository interface {
	Append(ctx context.Context, tx *model.Transaction) error
}

// Stores 同一事务内可用的全部仓储
type Stores struct {
	Orders   OrderRepository
	Balances BalanceRepository
	Ledger   LedgerRepository
}

// StoreFactory 把一轮撮合的全部写操作放进同一事务，失败整体回滚
type StoreFactory interface {
	InTransaction(ctx context.Context, fn func(Stores) error) error
}

type pgStoreFactory struct {
	inner *pg.TxFactory
}

// NewPgStoreFactory 基于 GORM 事务的生产实现
func NewPgStoreFactory(f *pg.TxFactory) StoreFactory {
	return &pgStoreFactory{inner: f}
}

func (s *pgStoreFactory) InTransaction(ctx context.Context, fn func(Stores) error) error {
	return s.inner.InTransaction(ctx, func(o *pg.OrderRepo, b *pg.BalanceRepo, l *pg.LedgerRepo) error {
		return fn(Stores{Orders: o, Balances: b, Ledger: l})
	})
}
