package service

import (
	"sync"

	"cex-match/conf"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	auditLogger *zap.Logger
	auditOnce   sync.Once
)

// AuditLogger 结算审计日志，JSON 结构化、滚动文件输出
// 每笔成交的结算结果（含被销毁的两笔手续费）各落一条记录，供对账回放
func AuditLogger() *zap.Logger {
	auditOnce.Do(func() {
		hc := conf.GetConf().Hertz
		fileName := hc.AuditFileName
		if fileName == "" {
			fileName = "log/settlement_audit.log"
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   fileName,
			MaxSize:    hc.LogMaxSize,
			MaxBackups: hc.LogMaxBackups,
			MaxAge:     hc.LogMaxAge,
		})
		core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), w, zapcore.InfoLevel)
		auditLogger = zap.New(core)
	})
	return auditLogger
}
