package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanlab.com/pkg/alert"
	"loanlab.com/pkg/kafka"
	"loanlab.com/pkg/loan"
	"loanlab.com/pkg/simulation"
)

func sampleReport() simulation.TickReport {
	pos := loan.Position{CollateralAmount: 0.2, AssetPrice: 65000, LoanAmount: 4000, AnnualInterestRate: 0.05}
	return simulation.TickReport{
		Seq:             7,
		Timestamp:       time.Unix(1700000000, 0),
		Status:          simulation.StatusRunning,
		Price:           65000,
		ElapsedDays:     7,
		DaysAccrued:     1,
		InterestDelta:   0.27,
		InterestAccrued: 1.9,
		Reborrow:        simulation.ReborrowDecision{Applied: true, Reason: simulation.ReasonApplied, OldLoan: 2000, NewLoan: 4000, Delta: 2000},
		Position:        pos,
		Snapshot:        loan.ComputeSnapshot(pos, loan.DefaultThresholds()),
	}
}

func TestLoanEvent_Message(t *testing.T) {
	e := &LoanEvent{EventID: 42, RunID: "run1", Type: EventReborrow}
	assert.Equal(t, TopicLoanEvents, e.Topic())
	assert.Equal(t, "run1", e.Key())
	assert.Equal(t, "loan.sim.reborrow", e.Subject())

	// 没有 RunID 时按 EventID 分区
	assert.Equal(t, "42", (&LoanEvent{EventID: 42}).Key())

	// EventID 以字符串输出，避免 JS 端精度丢失
	data, err := e.Value()
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "42", raw["event_id"])

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, int64(42), decoded.EventID)
}

func TestNextID_Unique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		id := NextID()
		require.False(t, seen[id])
		seen[id] = true
	}
	assert.NotEmpty(t, NewRunID())
}

func TestRecorder_RecordTick(t *testing.T) {
	mem := NewMemoryPublisher()
	r := NewRecorder("run-a", mem, nil)

	rep := sampleReport()
	rep.Ended = true
	require.NoError(t, r.RecordTick(context.Background(), rep))

	evs := mem.Events()
	require.Len(t, evs, 3)
	assert.Equal(t, EventTick, evs[0].Type)
	assert.Equal(t, EventReborrow, evs[1].Type)
	assert.Equal(t, EventEnded, evs[2].Type)

	assert.Equal(t, "run-a", evs[0].RunID)
	assert.Equal(t, int64(7), evs[0].Seq)
	assert.Equal(t, 0.27, evs[0].Delta)
	assert.Equal(t, 2000.0, evs[1].Delta)
	assert.Equal(t, 4000.0, evs[1].Loan)
	assert.Equal(t, loan.ZoneHealthy, evs[0].Zone)
	assert.NotEqual(t, evs[0].EventID, evs[1].EventID)
}

func TestRecorder_TickOnly(t *testing.T) {
	mem := NewMemoryPublisher()
	r := NewRecorder("", mem, nil)
	assert.NotEmpty(t, r.RunID())

	rep := sampleReport()
	rep.Reborrow = simulation.ReborrowDecision{Reason: simulation.ReasonAtCeiling}
	require.NoError(t, r.RecordTick(context.Background(), rep))
	assert.Len(t, mem.Events(), 1)
}

func TestRecorder_ResetAndAlert(t *testing.T) {
	mem := NewMemoryPublisher()
	r := NewRecorder("run-b", mem, nil)
	ctx := context.Background()

	rep := sampleReport()
	require.NoError(t, r.RecordReset(ctx, rep.Position, rep.Snapshot))

	trig := alert.Trigger{Rule: alert.AlertRule{AlertID: alert.RuleMarginCall, Threshold: 0.7}, Value: 0.75, Seq: 7}
	require.NoError(t, r.RecordAlert(ctx, rep, trig))

	evs := mem.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, EventReset, evs[0].Type)
	assert.Equal(t, EventAlert, evs[1].Type)
	assert.Equal(t, alert.RuleMarginCall, evs[1].AlertID)
	assert.InDelta(t, 0.05, evs[1].Delta, 1e-9)
}

func TestKafkaPublisher(t *testing.T) {
	cfg := kafka.DefaultProducerConfig([]string{"localhost:9092"})
	sc := cfg.SaramaConfig()
	sc.Producer.Return.Successes = true
	mock := mocks.NewAsyncProducer(t, sc)
	mock.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		e, err := Decode(val)
		if err != nil {
			return err
		}
		if e.Type != EventTick {
			return errors.New("unexpected event type")
		}
		return nil
	})

	p := NewKafkaPublisher(kafka.NewProducerWith(mock, nil), "custom_topic")
	assert.Equal(t, "custom_topic", p.Topic())
	require.NoError(t, p.Publish(context.Background(), &LoanEvent{EventID: 1, RunID: "r", Type: EventTick}))

	// 写入配置的 topic，而不是默认 topic
	select {
	case msg := <-mock.Successes():
		assert.Equal(t, "custom_topic", msg.Topic)
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "r", string(key))
	case <-time.After(time.Second):
		t.Fatal("message not produced")
	}

	require.NoError(t, p.Close())
	err := p.Publish(context.Background(), &LoanEvent{EventID: 2})
	assert.True(t, errors.Is(err, ErrPublisherClosed))
}

type fakeSender struct {
	topics []string
	keys   []string
}

func (f *fakeSender) SendRaw(topic, key string, _ []byte) error {
	f.topics = append(f.topics, topic)
	f.keys = append(f.keys, key)
	return nil
}
func (f *fakeSender) Close() error { return nil }

func TestKafkaPublisher_DefaultTopic(t *testing.T) {
	sender := &fakeSender{}
	p := newKafkaPublisher(sender, "")
	require.NoError(t, p.Publish(context.Background(), &LoanEvent{EventID: 9, Type: EventTick}))
	assert.Equal(t, []string{TopicLoanEvents}, sender.topics)
	assert.Equal(t, []string{"9"}, sender.keys)
}

type fakeSubjectPublisher struct {
	subjects []string
	closed   bool
}

func (f *fakeSubjectPublisher) Publish(subject string, _ any) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

func (f *fakeSubjectPublisher) Close() { f.closed = true }

func TestNatsPublisher(t *testing.T) {
	fake := &fakeSubjectPublisher{}
	p := &NatsPublisher{publisher: fake}
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, &LoanEvent{Type: EventTick}))
	require.NoError(t, p.Publish(ctx, &LoanEvent{Type: EventAlert}))
	assert.Equal(t, []string{"loan.sim.tick", "loan.sim.alert"}, fake.subjects)

	// 已取消的 ctx 不发布
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, p.Publish(cctx, &LoanEvent{Type: EventTick}), context.Canceled)

	require.NoError(t, p.Close())
	assert.True(t, fake.closed)
	assert.ErrorIs(t, p.Publish(ctx, &LoanEvent{Type: EventTick}), ErrPublisherClosed)
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, *LoanEvent) error { return f.err }
func (f failingPublisher) Close() error                              { return nil }

func TestMultiPublisher(t *testing.T) {
	boom := errors.New("boom")
	mem := NewMemoryPublisher()
	m := NewMultiPublisher(mem, failingPublisher{err: boom}, NopPublisher{})

	err := m.Publish(context.Background(), &LoanEvent{Type: EventTick})
	assert.ErrorIs(t, err, boom)
	// 前面的发布器不受影响
	assert.Len(t, mem.Events(), 1)
	assert.NoError(t, m.Close())
}
