// 文件: pkg/nats/subscriber.go
// NATS 订阅者
//
// 所有订阅共用一个 handler；处理失败只记日志和计数，不会影响后续消息

package nats

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// MessageHandler 消息处理函数
type MessageHandler func(subject string, data []byte) error

// SubscriberStats 统计信息
type SubscriberStats struct {
	Received int64
	Failed   int64
}

// Subscriber NATS 订阅者
type Subscriber struct {
	conn    *nats.Conn
	handler MessageHandler
	logger  *zap.Logger

	mu   sync.Mutex
	subs []*nats.Subscription

	received atomic.Int64
	failed   atomic.Int64
}

// ConnOptions 断线重连都打日志，重连次数不限
func ConnOptions(logger *zap.Logger) []nats.Option {
	return []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	}
}

// NewSubscriber 连接 NATS 并创建订阅者
func NewSubscriber(url string, handler MessageHandler, logger *zap.Logger, opts ...nats.Option) (*Subscriber, error) {
	s := newSubscriber(handler, logger)
	conn, err := nats.Connect(url, append(ConnOptions(s.logger), opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	s.conn = conn
	return s, nil
}

func newSubscriber(handler MessageHandler, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{handler: handler, logger: logger.Named("nats")}
}

func (s *Subscriber) dispatch(msg *nats.Msg) {
	s.received.Add(1)
	if err := s.handler(msg.Subject, msg.Data); err != nil {
		s.failed.Add(1)
		s.logger.Warn("handle failed", zap.String("subject", msg.Subject), zap.Error(err))
	}
}

// Subscribe 订阅主题，支持通配符（loan.sim.>）
func (s *Subscriber) Subscribe(subjects ...string) error {
	for _, subject := range subjects {
		sub, err := s.conn.Subscribe(subject, s.dispatch)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.track(sub)
	}
	return nil
}

// SubscribeQueue 队列订阅，同一 queue 内的订阅者分摊消息
func (s *Subscriber) SubscribeQueue(subject, queue string) error {
	sub, err := s.conn.QueueSubscribe(subject, queue, s.dispatch)
	if err != nil {
		return fmt.Errorf("queue subscribe %s: %w", subject, err)
	}
	s.track(sub)
	return nil
}

func (s *Subscriber) track(sub *nats.Subscription) {
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

// Stats 获取统计信息
func (s *Subscriber) Stats() SubscriberStats {
	return SubscriberStats{Received: s.received.Load(), Failed: s.failed.Load()}
}

// Close 处理完已收到的消息后关闭
func (s *Subscriber) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return err
	}
	return nil
}

// UnmarshalJSON 反序列化 JSON
func UnmarshalJSON[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
