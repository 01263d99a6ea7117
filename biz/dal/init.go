package dal

import (
	"cex-match/biz/dal/kafka"
	"cex-match/biz/dal/pg"
	"cex-match/biz/dal/redis"
)

func Init() {
	pg.Init()
	redis.Init()
	kafka.Init()
}
