package simulation

import "math"

// 加借策略的判定结果
const (
	ReasonApplied       = "applied"
	ReasonDisabled      = "disabled"
	ReasonNotRunning    = "not_running"
	ReasonLTVOutOfRange = "ltv_out_of_range"
	ReasonAtCeiling     = "at_ceiling"
	ReasonAtTarget      = "at_target"
	ReasonInsignificant = "insignificant"
)

// ReborrowInput 加借策略的输入
type ReborrowInput struct {
	Enabled         bool
	Status          Status
	LTV             float64
	LoanAmount      float64
	CollateralValue float64
	TargetLTV       float64
	TriggerLTV      float64
	Ceiling         float64
	MinIncrease     float64
}

// ReborrowDecision 加借策略的输出
type ReborrowDecision struct {
	Applied bool    `json:"applied"`
	Reason  string  `json:"reason"`
	OldLoan float64 `json:"old_loan"`
	NewLoan float64 `json:"new_loan"`
	Delta   float64 `json:"delta"`
}

// ApplyReborrowPolicy 自动加借策略（纯函数）
//
// 条件：启用、RUNNING、0 < ltv < trigger、loan < ceiling
// 目标：把贷款加到 cv * targetLTV，但不超过 ceiling
// 增量不超过 MinIncrease 时不生效。
func ApplyReborrowPolicy(in ReborrowInput) ReborrowDecision {
	d := ReborrowDecision{OldLoan: in.LoanAmount, NewLoan: in.LoanAmount}

	switch {
	case !in.Enabled:
		d.Reason = ReasonDisabled
		return d
	case in.Status != StatusRunning:
		d.Reason = ReasonNotRunning
		return d
	case in.LTV <= 0 || in.LTV >= in.TriggerLTV:
		d.Reason = ReasonLTVOutOfRange
		return d
	case in.LoanAmount >= in.Ceiling:
		d.Reason = ReasonAtCeiling
		return d
	}

	delta := in.CollateralValue*in.TargetLTV - in.LoanAmount
	if delta <= 0 {
		d.Reason = ReasonAtTarget
		return d
	}

	newLoan := math.Min(in.LoanAmount+delta, in.Ceiling)
	increase := newLoan - in.LoanAmount
	if increase <= in.MinIncrease {
		d.Reason = ReasonInsignificant
		return d
	}

	d.Applied = true
	d.Reason = ReasonApplied
	d.NewLoan = newLoan
	d.Delta = increase
	return d
}
