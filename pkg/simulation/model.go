package simulation

import (
	"errors"
	"fmt"
	"time"

	"loanlab.com/pkg/loan"
)

// =============================================================================
// 配置
// =============================================================================

const (
	DefaultLoanTermDays        = 365
	DefaultDayStep             = 1.0
	DefaultVolatility          = 0.02 // 每个 tick 价格在 ±1% 内波动
	DefaultMinPrice            = 1000.0
	DefaultReborrowTriggerLTV  = 0.40
	DefaultBorrowCeiling       = 5000.0
	DefaultMinReborrowIncrease = 0.01 // 低于 1 美分的加借视为噪音
	DefaultHistoryLimit        = 50   // 图表最多保留的点数
	DefaultTickInterval        = 5 * time.Second
)

var ErrInvalidConfig = errors.New("invalid simulation config")

// Config 模拟参数
type Config struct {
	// LoanTermDays：贷款期限（天），到期后不再计息
	LoanTermDays int `json:"loan_term_days" yaml:"loan_term_days"`

	// DayStep：每个 tick 推进的天数
	DayStep float64 `json:"day_step" yaml:"day_step"`

	// Volatility：价格扰动幅度，每个 tick 乘以 1 + U(-v/2, v/2)
	Volatility float64 `json:"volatility" yaml:"volatility"`

	// MinPrice：价格下限
	MinPrice float64 `json:"min_price" yaml:"min_price"`

	// 自动加借策略
	ReborrowEnabled     bool    `json:"reborrow_enabled" yaml:"reborrow_enabled"`
	ReborrowTriggerLTV  float64 `json:"reborrow_trigger_ltv" yaml:"reborrow_trigger_ltv"`
	BorrowCeiling       float64 `json:"borrow_ceiling" yaml:"borrow_ceiling"`
	MinReborrowIncrease float64 `json:"min_reborrow_increase" yaml:"min_reborrow_increase"`

	// HistoryLimit：价格 / LTV 历史的容量
	HistoryLimit int `json:"history_limit" yaml:"history_limit"`
}

// DefaultConfig 默认模拟参数
func DefaultConfig() Config {
	return Config{
		LoanTermDays:        DefaultLoanTermDays,
		DayStep:             DefaultDayStep,
		Volatility:          DefaultVolatility,
		MinPrice:            DefaultMinPrice,
		ReborrowEnabled:     true,
		ReborrowTriggerLTV:  DefaultReborrowTriggerLTV,
		BorrowCeiling:       DefaultBorrowCeiling,
		MinReborrowIncrease: DefaultMinReborrowIncrease,
		HistoryLimit:        DefaultHistoryLimit,
	}
}

// withDefaults 零值字段使用默认值（LoanTermDays、Volatility 等 0 有意义的字段除外）
func (c Config) withDefaults() Config {
	if c.DayStep == 0 {
		c.DayStep = DefaultDayStep
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.MinReborrowIncrease == 0 {
		c.MinReborrowIncrease = DefaultMinReborrowIncrease
	}
	return c
}

// Validate 校验模拟参数
func (c Config) Validate() error {
	switch {
	case c.LoanTermDays <= 0:
		return fmt.Errorf("loan_term_days=%d: %w", c.LoanTermDays, ErrInvalidConfig)
	case c.DayStep <= 0:
		return fmt.Errorf("day_step=%v: %w", c.DayStep, ErrInvalidConfig)
	case c.Volatility < 0 || c.Volatility >= 2:
		return fmt.Errorf("volatility=%v: %w", c.Volatility, ErrInvalidConfig)
	case c.MinPrice < 0:
		return fmt.Errorf("min_price=%v: %w", c.MinPrice, ErrInvalidConfig)
	case c.HistoryLimit <= 0:
		return fmt.Errorf("history_limit=%d: %w", c.HistoryLimit, ErrInvalidConfig)
	case c.BorrowCeiling < 0:
		return fmt.Errorf("borrow_ceiling=%v: %w", c.BorrowCeiling, ErrInvalidConfig)
	case c.ReborrowEnabled && (c.ReborrowTriggerLTV <= 0 || c.ReborrowTriggerLTV >= 1):
		return fmt.Errorf("reborrow_trigger_ltv=%v: %w", c.ReborrowTriggerLTV, ErrInvalidConfig)
	}
	return nil
}

// =============================================================================
// 状态
// =============================================================================

// Status 模拟状态
//
// RUNNING → ENDED 单向转换，ENDED 之后价格仍然会波动，但天数和利息冻结。
type Status string

const (
	StatusRunning Status = "RUNNING"
	StatusEnded   Status = "ENDED"
)

// Sample 历史序列中的一个点
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// State 模拟状态快照（副本，调用方可以随意持有）
type State struct {
	Status          Status   `json:"status"`
	ElapsedDays     float64  `json:"elapsed_days"`
	InterestAccrued float64  `json:"interest_accrued"`
	Ticks           int64    `json:"ticks"`
	PriceHistory    []Sample `json:"price_history"`
	LTVHistory      []Sample `json:"ltv_history"`
}

// TickReport 一次 tick 的结果
type TickReport struct {
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`

	PrevPrice float64 `json:"prev_price"`
	Price     float64 `json:"price"`

	ElapsedDays float64 `json:"elapsed_days"`
	// DaysAccrued：本次 tick 跨过的整天数
	DaysAccrued     int     `json:"days_accrued"`
	InterestDelta   float64 `json:"interest_delta"`
	InterestAccrued float64 `json:"interest_accrued"`

	// Ended：本次 tick 刚好到期
	Ended bool `json:"ended"`

	Reborrow ReborrowDecision  `json:"reborrow"`
	Position loan.Position     `json:"position"`
	Snapshot loan.RiskSnapshot `json:"snapshot"`
}
