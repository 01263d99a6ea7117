package pg

import (
	"context"

	"gorm.io/gorm"
)

// TxFactory 把一次撮合批次的所有写操作放进同一个数据库事务
// 事务内任一步失败则整体回滚，不存在部分提交
type TxFactory struct {
	db *gorm.DB
}

func NewTxFactory(db *gorm.DB) *TxFactory {
	return &TxFactory{db: db}
}

func (f *TxFactory) InTransaction(ctx context.Context, fn func(orders *OrderRepo, balances *BalanceRepo, ledger *LedgerRepo) error) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewOrderRepo(tx), NewBalanceRepo(tx), NewLedgerRepo(tx))
	})
}
