// 文件: pkg/events/publisher.go
// 事件发布器
//
// KafkaPublisher：生产环境，按 RunID 分区保证顺序
// NatsPublisher： 本地开发，subject = loan.sim.{type}
// MultiPublisher：同时发往多个目的地
// NopPublisher：  未配置任何消息系统时使用

package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"loanlab.com/pkg/kafka"
	"loanlab.com/pkg/nats"
)

var ErrPublisherClosed = errors.New("event publisher is closed")

// Publisher 事件发布器
type Publisher interface {
	Publish(ctx context.Context, e *LoanEvent) error
	Close() error
}

// =============================================================================
// KafkaPublisher
// =============================================================================

// messageSender *kafka.Producer 满足此接口
type messageSender interface {
	SendRaw(topic, key string, value []byte) error
	Close() error
}

// KafkaPublisher Kafka 事件发布器
type KafkaPublisher struct {
	producer messageSender
	topic    string
	closed   atomic.Bool
}

var _ messageSender = (*kafka.Producer)(nil)

// NewKafkaPublisher 包装 Kafka 生产者，topic 为空时使用 TopicLoanEvents
func NewKafkaPublisher(p *kafka.Producer, topic string) *KafkaPublisher {
	return newKafkaPublisher(p, topic)
}

func newKafkaPublisher(p messageSender, topic string) *KafkaPublisher {
	if topic == "" {
		topic = TopicLoanEvents
	}
	return &KafkaPublisher{producer: p, topic: topic}
}

// Topic 实际写入的 topic
func (p *KafkaPublisher) Topic() string { return p.topic }

// Publish 发布事件
func (p *KafkaPublisher) Publish(ctx context.Context, e *LoanEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := e.Value()
	if err != nil {
		return err
	}
	return p.producer.SendRaw(p.topic, e.Key(), data)
}

// Close 关闭发布器
func (p *KafkaPublisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.producer.Close()
}

// =============================================================================
// NatsPublisher
// =============================================================================

// subjectPublisher *nats.Publisher 满足此接口
type subjectPublisher interface {
	Publish(subject string, data any) error
	Close()
}

var _ subjectPublisher = (*nats.Publisher)(nil)

// NatsPublisher NATS 事件发布器
type NatsPublisher struct {
	publisher subjectPublisher
	closed    atomic.Bool
}

// NewNatsPublisher 包装 NATS 发布者
func NewNatsPublisher(p *nats.Publisher) *NatsPublisher {
	return &NatsPublisher{publisher: p}
}

// Publish 发布事件到 loan.sim.{type}
func (p *NatsPublisher) Publish(ctx context.Context, e *LoanEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.publisher.Publish(e.Subject(), e)
}

// Close 关闭发布器
func (p *NatsPublisher) Close() error {
	if !p.closed.Swap(true) {
		p.publisher.Close()
	}
	return nil
}

// =============================================================================
// MultiPublisher / NopPublisher
// =============================================================================

// MultiPublisher 依次发往所有发布器，错误合并返回
type MultiPublisher struct {
	publishers []Publisher
}

func NewMultiPublisher(ps ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: ps}
}

func (m *MultiPublisher) Publish(ctx context.Context, e *LoanEvent) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopPublisher 丢弃所有事件
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *LoanEvent) error { return nil }
func (NopPublisher) Close() error                              { return nil }

// MemoryPublisher 把事件保存在内存里（测试和一次性运行用）
type MemoryPublisher struct {
	mu     sync.Mutex
	events []LoanEvent
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (m *MemoryPublisher) Publish(_ context.Context, e *LoanEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Events 已发布事件的副本
func (m *MemoryPublisher) Events() []LoanEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LoanEvent, len(m.events))
	copy(out, m.events)
	return out
}
