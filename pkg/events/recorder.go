package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"loanlab.com/pkg/alert"
	"loanlab.com/pkg/loan"
	"loanlab.com/pkg/simulation"
)

// Recorder 把模拟结果转换成事件并发布
//
// 每个 tick 发一条 tick 事件；加借生效、到期时额外各发一条。
type Recorder struct {
	runID     string
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRecorder runID 为空时自动生成
func NewRecorder(runID string, p Publisher, logger *zap.Logger) *Recorder {
	if runID == "" {
		runID = NewRunID()
	}
	if p == nil {
		p = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{runID: runID, publisher: p, logger: logger, now: time.Now}
}

// RunID 当前运行 ID
func (r *Recorder) RunID() string { return r.runID }

// SetRunID 重置后开始新的运行
func (r *Recorder) SetRunID(id string) { r.runID = id }

func (r *Recorder) base(t EventType, seq int64, pos loan.Position, snap loan.RiskSnapshot) *LoanEvent {
	return &LoanEvent{
		EventID:   NextID(),
		RunID:     r.runID,
		Seq:       seq,
		Type:      t,
		Price:     pos.AssetPrice,
		Loan:      pos.LoanAmount,
		LTV:       snap.LTV,
		Zone:      snap.Zone,
		CreatedAt: r.now(),
	}
}

// EventsFromTick 把一次 tick 转换成事件（不发布）
func (r *Recorder) EventsFromTick(rep simulation.TickReport) []*LoanEvent {
	out := make([]*LoanEvent, 0, 3)

	tick := r.base(EventTick, rep.Seq, rep.Position, rep.Snapshot)
	tick.ElapsedDays = rep.ElapsedDays
	tick.InterestAccrued = rep.InterestAccrued
	tick.Delta = rep.InterestDelta
	out = append(out, tick)

	if rep.Reborrow.Applied {
		e := r.base(EventReborrow, rep.Seq, rep.Position, rep.Snapshot)
		e.ElapsedDays = rep.ElapsedDays
		e.InterestAccrued = rep.InterestAccrued
		e.Delta = rep.Reborrow.Delta
		out = append(out, e)
	}

	if rep.Ended {
		e := r.base(EventEnded, rep.Seq, rep.Position, rep.Snapshot)
		e.ElapsedDays = rep.ElapsedDays
		e.InterestAccrued = rep.InterestAccrued
		out = append(out, e)
	}
	return out
}

// RecordTick 发布一次 tick 的事件
func (r *Recorder) RecordTick(ctx context.Context, rep simulation.TickReport) error {
	for _, e := range r.EventsFromTick(rep) {
		if err := r.publisher.Publish(ctx, e); err != nil {
			r.logger.Warn("publish event failed",
				zap.String("type", string(e.Type)),
				zap.Int64("seq", e.Seq),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// RecordReset 发布重置事件
func (r *Recorder) RecordReset(ctx context.Context, pos loan.Position, snap loan.RiskSnapshot) error {
	return r.publisher.Publish(ctx, r.base(EventReset, 0, pos, snap))
}

// RecordAlert 发布预警事件
func (r *Recorder) RecordAlert(ctx context.Context, rep simulation.TickReport, t alert.Trigger) error {
	e := r.base(EventAlert, rep.Seq, rep.Position, rep.Snapshot)
	e.ElapsedDays = rep.ElapsedDays
	e.InterestAccrued = rep.InterestAccrued
	e.AlertID = t.Rule.AlertID
	e.Delta = t.Value - t.Rule.Threshold
	return r.publisher.Publish(ctx, e)
}
