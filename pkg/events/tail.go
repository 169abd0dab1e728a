// 文件: pkg/events/tail.go
// 事件消费端
//
// Kafka 消费者和 NATS 订阅者拿到的都是原始字节，
// Tail 负责解码、按运行 / 类型过滤，再交给业务回调。

package events

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"loanlab.com/pkg/kafka"
	"loanlab.com/pkg/nats"
)

var ErrMalformedEvent = errors.New("malformed loan event")

// Filter 过滤条件，零值表示全部接收
type Filter struct {
	RunID string
	Types []EventType
}

// Match 事件是否满足过滤条件
func (f Filter) Match(e *LoanEvent) bool {
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Handler 事件回调
type Handler func(ctx context.Context, e *LoanEvent) error

// TailStats 统计信息
type TailStats struct {
	Delivered int64 // 交给回调的事件
	Skipped   int64 // 被过滤掉的事件
	Malformed int64 // 解码失败或 subject 与类型不符
}

// Tail 事件消费端
type Tail struct {
	filter  Filter
	handler Handler
	logger  *zap.Logger

	delivered atomic.Int64
	skipped   atomic.Int64
	malformed atomic.Int64
}

func NewTail(filter Filter, h Handler, logger *zap.Logger) *Tail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tail{filter: filter, handler: h, logger: logger.Named("tail")}
}

// Handle 解码并分发一条消息
func (t *Tail) Handle(ctx context.Context, data []byte) error {
	e, err := Decode(data)
	if err != nil || e.Type == "" {
		t.malformed.Add(1)
		if err == nil {
			err = errors.New("missing type")
		}
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return t.deliver(ctx, e)
}

func (t *Tail) deliver(ctx context.Context, e *LoanEvent) error {
	if !t.filter.Match(e) {
		t.skipped.Add(1)
		t.logger.Debug("event filtered", zap.String("run_id", e.RunID), zap.String("type", string(e.Type)))
		return nil
	}
	t.delivered.Add(1)
	return t.handler(ctx, e)
}

// KafkaHandler 适配 kafka.Consumer
func (t *Tail) KafkaHandler() kafka.MessageHandler {
	return func(ctx context.Context, rec kafka.Record) error {
		return t.Handle(ctx, rec.Value)
	}
}

// NatsHandler 适配 nats.Subscriber；subject 必须和事件类型一致
func (t *Tail) NatsHandler() nats.MessageHandler {
	return func(subject string, data []byte) error {
		e, err := nats.UnmarshalJSON[LoanEvent](data)
		if err != nil {
			t.malformed.Add(1)
			return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if e.Subject() != subject {
			t.malformed.Add(1)
			return fmt.Errorf("%w: type %q on subject %q", ErrMalformedEvent, e.Type, subject)
		}
		return t.deliver(context.Background(), e)
	}
}

// Stats 获取统计信息
func (t *Tail) Stats() TailStats {
	return TailStats{
		Delivered: t.delivered.Load(),
		Skipped:   t.skipped.Load(),
		Malformed: t.malformed.Load(),
	}
}
