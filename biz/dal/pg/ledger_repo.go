package pg

import (
	"context"

	"cex-match/biz/model"

	"gorm.io/gorm"
)

// LedgerRepo 资金流水仓储，只追加
type LedgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Append(ctx context.Context, tx *model.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListTransactions 查询用户资金流水
func ListTransactions(userID uint64, limit int) ([]model.Transaction, error) {
	var txs []model.Transaction
	db := GormDB.Model(&model.Transaction{})
	if userID != 0 {
		db = db.Where("user_id = ?", userID)
	}
	err := db.Order("created_at desc").Limit(limit).Find(&txs).Error
	return txs, err
}
