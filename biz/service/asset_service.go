package service

import (
	"cex-match/biz/dal/pg"
	"cex-match/biz/model"
)

func GetUserBalances(userID uint64) ([]model.Balance, error) {
	return pg.GetUserBalances(userID)
}

func ListUserTransactions(userID uint64, limit int) ([]model.Transaction, error) {
	return pg.ListTransactions(userID, limit)
}
