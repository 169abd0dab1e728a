package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// sarama 假实现
// =============================================================================

type fakeSession struct {
	ctx    context.Context
	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "member-1" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}
func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) markedOffsets() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.marked...)
}

type fakeClaim struct {
	msgs chan *sarama.ConsumerMessage
	hwm  int64
}

func (c *fakeClaim) Topic() string                            { return "loan_sim_events" }
func (c *fakeClaim) Partition() int32                         { return 0 }
func (c *fakeClaim) InitialOffset() int64                     { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64               { return c.hwm }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func newClaim(hwm int64, values ...string) *fakeClaim {
	c := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, len(values)), hwm: hwm}
	for i, v := range values {
		c.msgs <- &sarama.ConsumerMessage{
			Topic:  "loan_sim_events",
			Offset: int64(i),
			Key:    []byte("run1"),
			Value:  []byte(v),
		}
	}
	close(c.msgs)
	return c
}

// fakeGroup 每次 Consume 交付一个 claim，之后阻塞到 ctx 取消
type fakeGroup struct {
	claims  chan *fakeClaim
	session *fakeSession
	closed  bool
}

func (g *fakeGroup) Consume(ctx context.Context, _ []string, handler sarama.ConsumerGroupHandler) error {
	g.session = &fakeSession{ctx: ctx}
	if err := handler.Setup(g.session); err != nil {
		return err
	}
	select {
	case claim := <-g.claims:
		if err := handler.ConsumeClaim(g.session, claim); err != nil {
			return err
		}
	case <-ctx.Done():
	}
	<-ctx.Done()
	return handler.Cleanup(g.session)
}
func (g *fakeGroup) Errors() <-chan error      { return nil }
func (g *fakeGroup) Close() error              { g.closed = true; return nil }
func (g *fakeGroup) Pause(map[string][]int32)  {}
func (g *fakeGroup) Resume(map[string][]int32) {}
func (g *fakeGroup) PauseAll()                 {}
func (g *fakeGroup) ResumeAll()                {}

var _ sarama.ConsumerGroup = (*fakeGroup)(nil)

// =============================================================================
// 测试
// =============================================================================

func TestConsumeClaim_HandlesAndMarksEveryMessage(t *testing.T) {
	var got []string
	h := &groupHandler{
		handle: func(_ context.Context, rec Record) error {
			got = append(got, string(rec.Value))
			if string(rec.Value) == "bad" {
				return errors.New("malformed")
			}
			return nil
		},
		logger: zap.NewNop(),
	}

	session := &fakeSession{ctx: context.Background()}
	claim := newClaim(10, "a", "bad", "c")

	require.NoError(t, h.ConsumeClaim(session, claim))
	assert.Equal(t, []string{"a", "bad", "c"}, got)
	// 失败的消息也提交，不会卡住分区
	assert.Equal(t, []int64{0, 1, 2}, session.markedOffsets())

	stats := h.stats()
	assert.Equal(t, int64(2), stats.Consumed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(7), stats.Lag) // hwm 10 - offset 2 - 1
}

func TestConsumeClaim_StopsOnSessionDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called atomic.Bool
	h := &groupHandler{
		handle: func(context.Context, Record) error {
			called.Store(true)
			return nil
		},
		logger: zap.NewNop(),
	}
	// 未关闭的空 claim：只能靠 ctx 退出
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage)}

	done := make(chan error, 1)
	go func() { done <- h.ConsumeClaim(&fakeSession{ctx: ctx}, claim) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ConsumeClaim did not return")
	}
	assert.False(t, called.Load())
}

func TestConsumer_StartStop(t *testing.T) {
	group := &fakeGroup{claims: make(chan *fakeClaim, 1)}
	group.claims <- newClaim(0, "x", "y")

	received := make(chan Record, 2)
	cfg := DefaultConsumerConfig(nil, "loan-event-tail", []string{"loan_sim_events"})
	c := NewConsumerWith(group, cfg, func(_ context.Context, rec Record) error {
		received <- rec
		return nil
	}, nil)

	c.Start()
	for i := 0; i < 2; i++ {
		select {
		case rec := <-received:
			assert.Equal(t, "loan_sim_events", rec.Topic)
			assert.Equal(t, []byte("run1"), rec.Key)
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}

	require.NoError(t, c.Stop())
	assert.True(t, group.closed)
	assert.Equal(t, int64(2), c.Stats().Consumed)
	assert.Equal(t, int64(1), c.Stats().Sessions)
}

func TestConsumerConfig_SaramaConfig(t *testing.T) {
	cfg := DefaultConsumerConfig([]string{"localhost:9092"}, "g", []string{"t"})
	assert.Equal(t, sarama.OffsetNewest, cfg.SaramaConfig().Consumer.Offsets.Initial)

	cfg.FromOldest = true
	assert.Equal(t, sarama.OffsetOldest, cfg.SaramaConfig().Consumer.Offsets.Initial)
}
