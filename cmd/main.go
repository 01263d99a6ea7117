package main

import (
	"context"
	"io"
	"os"

	"cex-match/biz/dal"
	"cex-match/biz/dal/pg"
	"cex-match/biz/handler"
	"cex-match/biz/service"
	"cex-match/biz/util"
	"cex-match/conf"
	cexutil "cex-match/util"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/cors"
	"github.com/hertz-contrib/gzip"
	"github.com/hertz-contrib/logger/accesslog"
	"github.com/hertz-contrib/pprof"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	_ = godotenv.Load()
	cfg := conf.GetConf()

	initLog(cfg)
	cexutil.SetNodeID(cfg.MatchEngine.NodeID)
	cexutil.InitSonyFlake()
	dal.Init()

	// 下单链路与结算事件发布
	service.InitOrderKafkaWriter(cfg.Kafka.Topics["orders"])
	service.StartOrderKafkaConsumer(cfg.Kafka.Topics["orders"])
	if err := service.InitSettlementPublisher(cfg.Kafka.Topics["settlements"], 256); err != nil {
		hlog.Fatalf("初始化结算事件发布失败: %v", err)
	}

	feeRate := service.DefaultTradingFeeRate
	if cfg.MatchEngine.FeeRate != "" {
		r, err := decimal.NewFromString(cfg.MatchEngine.FeeRate)
		if err != nil {
			hlog.Fatalf("非法手续费率配置: %v", err)
		}
		feeRate = r
	}

	// 每交易对互斥锁：Consul 可用时用分布式锁，否则退化为进程内锁
	locker := service.NewLocalSymbolLocker()
	if len(cfg.Consul.Addresses) > 0 {
		helper, err := service.NewConsulHelperWithAddrs(cfg.Consul.Addresses)
		if err != nil {
			hlog.Warnf("Consul不可用，使用进程内交易对锁: %v", err)
		} else {
			if err := helper.RegisterMatchService(cfg.MatchEngine.NodeID, cfg.MatchEngine.MatchPort); err != nil {
				hlog.Warnf("撮合服务注册到Consul失败: %v", err)
			}
			locker = service.NewConsulSymbolLocker(helper)
		}
	}

	matchService := service.NewMatchService(
		service.NewPgStoreFactory(pg.NewTxFactory(pg.GormDB)),
		locker,
		feeRate,
		util.QuoteCoins(),
		cfg.MatchEngine.NodeID,
		service.AuditLogger(),
	)
	handler.InitMatchHandler(matchService)

	h := server.New(server.WithHostPorts(cfg.Hertz.Address))
	registerMiddlewares(h, cfg)
	registerRoutes(h)

	h.OnShutdown = append(h.OnShutdown, func(ctx context.Context) {
		service.ShutdownOrderKafkaWriter()
		service.StopOrderKafkaConsumer()
		service.ShutdownSettlementPublisher()
	})

	h.Spin()
}

func initLog(cfg *conf.Config) {
	hlog.SetLevel(conf.LogLevel())
	if cfg.Hertz.LogFileName != "" {
		hlog.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Hertz.LogFileName,
			MaxSize:    cfg.Hertz.LogMaxSize,
			MaxBackups: cfg.Hertz.LogMaxBackups,
			MaxAge:     cfg.Hertz.LogMaxAge,
		}))
	}
}

func registerMiddlewares(h *server.Hertz, cfg *conf.Config) {
	if cfg.Hertz.EnableCors {
		h.Use(cors.Default())
	}
	if cfg.Hertz.EnableGzip {
		h.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	if cfg.Hertz.EnableAccessLog {
		h.Use(accesslog.New())
	}
	if cfg.Hertz.EnablePprof {
		pprof.Register(h)
	}
}

func registerRoutes(h *server.Hertz) {
	api := h.Group("/api")
	api.POST("/order", handler.SubmitOrder)
	api.GET("/order/:id", handler.GetOrder)
	api.GET("/orders", handler.ListOrders)
	api.GET("/orderbook/:symbol", handler.GetOrderbook)
	api.POST("/match/:symbol", handler.RunMatching)
	api.GET("/balance", handler.GetBalance)
	api.GET("/transactions", handler.ListTransactions)
}
