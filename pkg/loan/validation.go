package loan

import (
	"errors"
	"fmt"
)

var (
	ErrThresholdRange = errors.New("ltv threshold must be within (0, 1)")
	ErrThresholdOrder = errors.New("ltv thresholds must satisfy target < margin call < liquidation")
)

// Validate 校验阈值
//
// 公式层不做校验（非单调的阈值在数学上依然有定义），
// 但这样的组合会给出自相矛盾的建议（同时“危险”和“可以多借”），
// 所以在所有接收阈值的边界（配置加载、输入解析、模拟器）统一拒绝。
func (t Thresholds) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"target_ltv", t.TargetLTV},
		{"margin_call_ltv", t.MarginCallLTV},
		{"liquidation_ltv", t.LiquidationLTV},
	}
	for _, c := range checks {
		if c.value <= 0 || c.value >= 1 {
			return fmt.Errorf("%s=%v: %w", c.name, c.value, ErrThresholdRange)
		}
	}
	if t.TargetLTV >= t.MarginCallLTV || t.MarginCallLTV >= t.LiquidationLTV {
		return fmt.Errorf("%v / %v / %v: %w",
			t.TargetLTV, t.MarginCallLTV, t.LiquidationLTV, ErrThresholdOrder)
	}
	return nil
}
