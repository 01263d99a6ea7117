package service

import (
	"context"
	"encoding/json"
	"time"

	kafkaDal "cex-match/biz/dal/kafka"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/panjf2000/ants/v2"
	"github.com/segmentio/kafka-go"
)

// SettlementEvent 事务提交后推送到 Kafka 的结算事件
type SettlementEvent struct {
	EventID     uint64 `json:"event_id"`
	Symbol      string `json:"symbol"`
	BuyOrderID  uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
	BuyUserID   uint64 `json:"buy_user_id"`
	SellUserID  uint64 `json:"sell_user_id"`
	Price       string `json:"price"`
	Amount      string `json:"amount"`
	BuyerFee    string `json:"buyer_fee"`
	SellerFee   string `json:"seller_fee"`
	Timestamp   int64  `json:"timestamp"`
	NodeID      string `json:"node_id"`
}

// Kafka结算事件批量写入相关
var (
	settlementBatchChan   chan SettlementEvent
	settlementKafkaTopic  string
	settlementPool        *ants.Pool
	settlementWriterClose chan struct{}
)

// InitSettlementPublisher 启动结算事件批量写入协程与投递协程池
func InitSettlementPublisher(topic string, poolSize int) error {
	settlementKafkaTopic = topic
	settlementBatchChan = make(chan SettlementEvent, 10000)
	settlementWriterClose = make(chan struct{})
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return err
	}
	settlementPool = pool
	go batchSettlementKafkaWriter()
	return nil
}

// ShutdownSettlementPublisher 优雅关闭，写完剩余数据再退出
func ShutdownSettlementPublisher() {
	if settlementWriterClose != nil {
		close(settlementWriterClose)
	}
	if settlementPool != nil {
		settlementPool.Release()
	}
}

// PublishSettlements 事务提交成功后异步投递结算事件
func PublishSettlements(events []SettlementEvent) {
	if settlementPool == nil || settlementBatchChan == nil {
		return
	}
	err := settlementPool.Submit(func() {
		for _, ev := range events {
			settlementBatchChan <- ev
		}
	})
	if err != nil {
		hlog.Errorf("提交结算事件投递任务失败: %v", err)
	}
}

func batchSettlementKafkaWriter() {
	batch := make([]kafka.Message, 0, 100)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case ev := <-settlementBatchChan:
			msgBytes, err := json.Marshal(ev)
			if err == nil {
				batch = append(batch, kafka.Message{Value: msgBytes})
			}
			if len(batch) >= 100 {
				flushSettlementKafkaBatch(&batch)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				flushSettlementKafkaBatch(&batch)
			}
		case <-settlementWriterClose:
			// 收到关闭信号，写完剩余数据再退出
			if len(batch) > 0 {
				flushSettlementKafkaBatch(&batch)
			}
			return
		}
	}
}

func flushSettlementKafkaBatch(batch *[]kafka.Message) {
	if len(*batch) == 0 {
		return
	}
	writer := kafkaDal.GetWriter(settlementKafkaTopic)
	if writer == nil {
		hlog.Errorf("Kafka writer未初始化，topic=%v，无法写入结算事件", settlementKafkaTopic)
		return
	}
	err := writer.WriteMessages(context.Background(), (*batch)...)
	if err != nil {
		hlog.Errorf("写入结算事件到Kafka失败，topic=%v，err=%v", settlementKafkaTopic, err)
	}
	*batch = (*batch)[:0]
}
