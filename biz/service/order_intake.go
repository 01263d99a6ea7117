package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	kafkaDal "cex-match/biz/dal/kafka"
	"cex-match/biz/dal/pg"
	redisDal "cex-match/biz/dal/redis"
	"cex-match/biz/model"
	"cex-match/conf"
	"cex-match/util"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/segmentio/kafka-go"
)

// 下单链路：handler 校验 -> Kafka -> 消费 worker 批量入库
// 撮合本身不走该链路，只消费落库后的 open 订单

// Kafka订单写入相关
var (
	orderBatchChan        chan model.SubmitOrderMsg
	orderKafkaTopic       string
	orderKafkaWriterClose chan struct{}
)

func InitOrderKafkaWriter(topic string) {
	orderKafkaTopic = topic
	orderBatchChan = make(chan model.SubmitOrderMsg, 10000)
	orderKafkaWriterClose = make(chan struct{})
	go batchOrderKafkaWriter()
}

// ShutdownOrderKafkaWriter 优雅关闭Kafka批量写入协程
func ShutdownOrderKafkaWriter() {
	if orderKafkaWriterClose != nil {
		close(orderKafkaWriterClose)
	}
}

// SubmitOrder 接收一笔已校验的订单：生成ID、写Kafka、缓存活跃订单
func SubmitOrder(order model.SubmitOrderMsg) (uint64, error) {
	id, err := util.GenerateOrderID()
	if err != nil {
		hlog.Errorf("生成订单ID失败: %v", err)
		return 0, err
	}
	order.OrderID = id
	order.CreatedAt = time.Now().UnixMilli()

	hlog.Infof("SubmitOrder called, order_id=%d, symbol=%s, side=%s, price=%s, amount=%s",
		order.OrderID, order.Symbol, order.Side, order.Price, order.Amount)

	saveOrderToKafka(order)
	redisDal.CacheUserActiveOrder(order.UserID, order.OrderID)
	return order.OrderID, nil
}

func saveOrderToKafka(order model.SubmitOrderMsg) {
	if orderBatchChan != nil {
		orderBatchChan <- order
	}
}

func batchOrderKafkaWriter() {
	batch := make([]kafka.Message, 0, 100)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case order := <-orderBatchChan:
			msgBytes, err := json.Marshal(order)
			if err == nil {
				batch = append(batch, kafka.Message{Value: msgBytes})
			}
			if len(batch) >= 100 {
				flushOrderKafkaBatch(&batch)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				flushOrderKafkaBatch(&batch)
			}
		case <-orderKafkaWriterClose:
			// 收到关闭信号，写完剩余数据再退出
			if len(batch) > 0 {
				flushOrderKafkaBatch(&batch)
			}
			return
		}
	}
}

func flushOrderKafkaBatch(batch *[]kafka.Message) {
	if len(*batch) == 0 {
		return
	}
	writer := kafkaDal.GetWriter(orderKafkaTopic)
	if writer == nil {
		hlog.Errorf("Kafka writer未初始化，topic=%v，无法写入订单", orderKafkaTopic)
		return
	}
	err := writer.WriteMessages(context.Background(), (*batch)...)
	if err != nil {
		hlog.Errorf("写入订单到Kafka失败，topic=%v，err=%v", orderKafkaTopic, err)
	}
	*batch = (*batch)[:0]
}

// Kafka订单消费批量入库相关
var orderKafkaConsumerClose chan struct{}

func StartOrderKafkaConsumer(topic string) {
	orderKafkaConsumerClose = make(chan struct{})
	brokers := conf.GetConf().Kafka.Brokers
	consumerNum := runtime.NumCPU()
	for i := 0; i < consumerNum; i++ {
		go orderKafkaConsumerWorker(i, brokers, topic)
	}
}

func StopOrderKafkaConsumer() {
	if orderKafkaConsumerClose != nil {
		close(orderKafkaConsumerClose)
	}
}

func orderKafkaConsumerWorker(idx int, brokers []string, topic string) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "order-db-writer",
		MinBytes: 1000,
		MaxBytes: 20e6,
	})
	defer func() { _ = r.Close() }()
	hlog.Infof("[OrderIntake-%d] Kafka Reader初始化: topic=%s, brokers=%v", idx, topic, brokers)

	batch := make([]model.SubmitOrderMsg, 0, 1000)
	for {
		select {
		case <-orderKafkaConsumerClose:
			if len(batch) > 0 {
				batchInsertOrders(batch)
			}
			return
		default:
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			m, err := r.ReadMessage(ctx)
			cancel()
			if err != nil {
				if len(batch) > 0 {
					batchInsertOrders(batch)
					batch = batch[:0]
				}
				continue
			}
			var order model.SubmitOrderMsg
			if err := json.Unmarshal(m.Value, &order); err == nil {
				batch = append(batch, order)
			}
			if len(batch) >= 1000 {
				batchInsertOrders(batch)
				batch = batch[:0]
			}
		}
	}
}

func batchInsertOrders(orders []model.SubmitOrderMsg) {
	if pg.PostgresClient == nil || len(orders) == 0 {
		return
	}
	// 构造原生多值INSERT语句
	query := "INSERT INTO orders (order_id, user_id, symbol, side, price, amount, status, created_at, updated_at) VALUES "
	args := make([]interface{}, 0, len(orders)*9)
	valueStrings := make([]string, 0, len(orders))
	for i, order := range orders {
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			i*9+1, i*9+2, i*9+3, i*9+4, i*9+5, i*9+6, i*9+7, i*9+8, i*9+9))
		args = append(args,
			order.OrderID,
			order.UserID,
			order.Symbol,
			order.Side,
			order.Price,
			order.Amount,
			model.OrderStatusOpen,
			order.CreatedAt,
			order.CreatedAt,
		)
	}
	query += strings.Join(valueStrings, ",")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := pg.PostgresClient.Exec(ctx, query, args...)
	if err != nil {
		hlog.Errorf("[OrderIntake] 批量插入订单到Postgres失败: %v", err)
	} else {
		hlog.Infof("[OrderIntake] 批量插入订单到Postgres成功, 数量: %d", len(orders))
	}
}
