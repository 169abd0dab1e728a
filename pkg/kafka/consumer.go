// 文件: pkg/kafka/consumer.go
// Kafka 消费者组
//
// 消费端只关心 Record；sarama 的 session / claim 细节都收在这里。
// 处理失败的消息记一次失败后照常提交，避免一条坏消息卡住整个分区。

package kafka

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// =============================================================================
// Consumer 配置
// =============================================================================

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
	Topics  []string `yaml:"topics"`

	// FromOldest 新消费者组从最早的消息开始读，默认只读新消息
	FromOldest bool `yaml:"from_oldest"`

	// RetryBackoff Consume 出错后重新加入消费者组前的等待时间
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// DefaultConsumerConfig 默认配置
func DefaultConsumerConfig(brokers []string, groupID string, topics []string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:      brokers,
		GroupID:      groupID,
		Topics:       topics,
		RetryBackoff: time.Second,
	}
}

// SaramaConfig 转换成 sarama 配置
func (cfg ConsumerConfig) SaramaConfig() *sarama.Config {
	sc := sarama.NewConfig()
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	if cfg.FromOldest {
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	sc.Consumer.Offsets.AutoCommit.Enable = true
	return sc
}

// Record 一条消费到的消息
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// MessageHandler 消息处理函数，ctx 在 rebalance 或 Stop 时取消
type MessageHandler func(ctx context.Context, rec Record) error

// ConsumerStats 统计信息
type ConsumerStats struct {
	Consumed int64 // 处理成功
	Failed   int64 // 处理失败（已跳过）
	Sessions int64 // 加入消费者组的次数
	Lag      int64 // 最近一条消息距离 high water mark 的差
}

// =============================================================================
// Consumer 消费者
// =============================================================================

// Consumer Kafka 消费者组封装
type Consumer struct {
	group   sarama.ConsumerGroup
	config  ConsumerConfig
	handler *groupHandler
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer 连接 broker 创建消费者
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, cfg.SaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return NewConsumerWith(group, cfg, handler, logger), nil
}

// NewConsumerWith 包装一个已有的 sarama.ConsumerGroup（测试时传入假实现）
func NewConsumerWith(group sarama.ConsumerGroup, cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("kafka").With(zap.String("group", cfg.GroupID))
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		group:   group,
		config:  cfg,
		handler: &groupHandler{handle: handler, logger: logger},
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start 后台消费，直到 Stop
func (c *Consumer) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			// rebalance 之后 Consume 返回，需要重新加入
			if err := c.group.Consume(c.ctx, c.config.Topics, c.handler); err != nil {
				c.logger.Error("consume failed", zap.Strings("topics", c.config.Topics), zap.Error(err))
				if !c.sleep(c.config.RetryBackoff) {
					return
				}
			}
			if c.ctx.Err() != nil {
				return
			}
		}
	}()
}

func (c *Consumer) sleep(d time.Duration) bool {
	if d <= 0 {
		return c.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-c.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Stats 获取统计信息
func (c *Consumer) Stats() ConsumerStats {
	return c.handler.stats()
}

// Stop 停止消费并关闭消费者组
func (c *Consumer) Stop() error {
	c.cancel()
	c.wg.Wait()
	return c.group.Close()
}

// =============================================================================
// sarama.ConsumerGroupHandler 实现
// =============================================================================

type groupHandler struct {
	handle MessageHandler
	logger *zap.Logger

	consumed atomic.Int64
	failed   atomic.Int64
	sessions atomic.Int64
	lag      atomic.Int64
}

var _ sarama.ConsumerGroupHandler = (*groupHandler)(nil)

func (h *groupHandler) Setup(s sarama.ConsumerGroupSession) error {
	h.sessions.Add(1)
	h.logger.Info("joined consumer group",
		zap.String("member", s.MemberID()),
		zap.Int32("generation", s.GenerationID()),
	)
	return nil
}

func (h *groupHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim 逐条处理一个分区，session 结束时返回
func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			rec := Record{
				Topic:     msg.Topic,
				Partition: msg.Partition,
				Offset:    msg.Offset,
				Key:       msg.Key,
				Value:     msg.Value,
				Timestamp: msg.Timestamp,
			}
			if err := h.handle(ctx, rec); err != nil {
				h.failed.Add(1)
				h.logger.Warn("handle failed",
					zap.String("topic", msg.Topic),
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			} else {
				h.consumed.Add(1)
			}
			if hwm := claim.HighWaterMarkOffset(); hwm > 0 {
				h.lag.Store(hwm - msg.Offset - 1)
			}
			session.MarkMessage(msg, "")
		}
	}
}

func (h *groupHandler) stats() ConsumerStats {
	return ConsumerStats{
		Consumed: h.consumed.Load(),
		Failed:   h.failed.Load(),
		Sessions: h.sessions.Load(),
		Lag:      h.lag.Load(),
	}
}
