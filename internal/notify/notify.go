package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TickerSync/internal/config"
	"TickerSync/internal/interfaces"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// 告警输出方式
const (
	SinkLog   = "log"
	SinkKafka = "kafka"
)

// LogNotifier 以日志形式输出告警
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, messages []string) error {
	_ = ctx
	for _, m := range messages {
		n.logger.Infof("[ALERT] %s", m)
	}
	return nil
}

// Alert 写入 Kafka 的告警消息体
type Alert struct {
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// KafkaNotifier 将告警同步写入 Kafka topic
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
	logger   *logrus.Logger
}

// NewKafkaNotifier 连接 brokers 创建同步生产者
func NewKafkaNotifier(cfg config.KafkaConfig, logger *logrus.Logger) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("未配置Kafka brokers")
	}
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("创建Kafka生产者失败: %w", err)
	}
	return NewKafkaNotifierWithProducer(producer, cfg.Topic, logger), nil
}

// NewKafkaNotifierWithProducer 使用已有生产者
func NewKafkaNotifierWithProducer(producer sarama.SyncProducer, topic string, logger *logrus.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, now: time.Now, logger: logger}
}

func (n *KafkaNotifier) Send(ctx context.Context, messages []string) error {
	for _, m := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := json.Marshal(Alert{Message: m, SentAt: n.now().UTC()})
		if err != nil {
			return fmt.Errorf("序列化告警失败: %w", err)
		}
		partition, offset, err := n.producer.SendMessage(&sarama.ProducerMessage{
			Topic: n.topic,
			Value: sarama.ByteEncoder(payload),
		})
		if err != nil {
			return fmt.Errorf("发送Kafka告警失败: %w", err)
		}
		n.logger.WithFields(logrus.Fields{
			"topic":     n.topic,
			"partition": partition,
			"offset":    offset,
		}).Debug("告警已写入Kafka")
	}
	return nil
}

// Close 关闭生产者
func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}

// New 按配置选择告警输出；kafka 初始化失败时返回错误
func New(cfg config.AlertsConfig, logger *logrus.Logger) (interfaces.Notifier, error) {
	switch cfg.Sink {
	case SinkKafka:
		n, err := NewKafkaNotifier(cfg.Kafka, logger)
		if err != nil {
			return nil, err
		}
		return n, nil
	case SinkLog, "":
		return NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("不支持的告警输出方式: %s", cfg.Sink)
	}
}
