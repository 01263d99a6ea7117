package pg

import (
	"context"
	"errors"

	"cex-match/biz/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BalanceRepo 余额仓储，绑定到一个 *gorm.DB（可能是事务句柄）
type BalanceRepo struct {
	db *gorm.DB
}

func NewBalanceRepo(db *gorm.DB) *BalanceRepo {
	return &BalanceRepo{db: db}
}

// GetOrCreate 按 (user_id, coin) 查询余额，不存在则创建零余额行
func (r *BalanceRepo) GetOrCreate(ctx context.Context, userID uint64, coin string) (*model.Balance, error) {
	var bal model.Balance
	err := r.db.WithContext(ctx).Where("user_id = ? AND coin = ?", userID, coin).First(&bal).Error
	if err == nil {
		return &bal, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	bal = model.Balance{UserID: userID, Coin: coin, Amount: decimal.Zero}
	if err := r.db.WithContext(ctx).Create(&bal).Error; err != nil {
		return nil, err
	}
	return &bal, nil
}

// Save 持久化余额变更
func (r *BalanceRepo) Save(ctx context.Context, bal *model.Balance) error {
	return r.db.WithContext(ctx).Model(&model.Balance{}).
		Where("id = ?", bal.ID).
		Update("amount", bal.Amount).Error
}

// GetUserBalances 查询用户全部余额
func GetUserBalances(userID uint64) ([]model.Balance, error) {
	var balances []model.Balance
	err := GormDB.Where("user_id = ?", userID).Find(&balances).Error
	return balances, err
}
