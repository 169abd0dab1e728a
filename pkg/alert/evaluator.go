package alert

import (
	"context"
	"time"

	"go.uber.org/zap"

	"loanlab.com/pkg/loan"
	"loanlab.com/pkg/scenario"
	"loanlab.com/pkg/simulation"
)

// 默认规则 ID
const (
	RuleMarginCall  = "ltv_margin_call"
	RuleLiquidation = "ltv_liquidation"
)

// DefaultRules 按阈值生成追保和强平两条 LTV 预警
func DefaultRules(th loan.Thresholds) []AlertRule {
	return []AlertRule{
		{
			AlertID:   RuleMarginCall,
			Metric:    MetricLTV,
			Direction: DirectionHigh,
			Threshold: th.MarginCallLTV,
			Type:      AlertAlways,
			Message:   "LTV reached margin call level " + scenario.FormatPercent(th.MarginCallLTV),
		},
		{
			AlertID:   RuleLiquidation,
			Metric:    MetricLTV,
			Direction: DirectionHigh,
			Threshold: th.LiquidationLTV,
			Type:      AlertAlways,
			Message:   "LTV reached liquidation level " + scenario.FormatPercent(th.LiquidationLTV),
		},
	}
}

// Trigger 一次触发
type Trigger struct {
	Rule      AlertRule `json:"rule"`
	Value     float64   `json:"value"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

// Evaluator 对每个 tick 结果检查 LTV 和价格预警
type Evaluator struct {
	manager Manager
	logger  *zap.Logger
}

func NewEvaluator(m Manager, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{manager: m, logger: logger}
}

// Install 订阅一组规则
func (e *Evaluator) Install(ctx context.Context, rules []AlertRule) error {
	for _, r := range rules {
		if err := e.manager.Subscribe(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate 检查一次 tick
func (e *Evaluator) Evaluate(ctx context.Context, r simulation.TickReport) ([]Trigger, error) {
	checks := []struct {
		metric Metric
		value  float64
	}{
		{MetricLTV, r.Snapshot.LTV},
		{MetricPrice, r.Price},
	}

	var out []Trigger
	for _, c := range checks {
		rules, err := e.manager.Triggered(ctx, c.metric, c.value)
		if err != nil {
			return out, err
		}
		for _, rule := range rules {
			e.logger.Warn("alert triggered",
				zap.String("alert_id", rule.AlertID),
				zap.String("metric", string(c.metric)),
				zap.Float64("value", c.value),
				zap.Float64("threshold", rule.Threshold),
			)
			out = append(out, Trigger{Rule: rule, Value: c.value, Seq: r.Seq, Timestamp: r.Timestamp})
		}
	}
	return out, nil
}
