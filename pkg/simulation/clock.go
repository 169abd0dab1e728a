package simulation

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"loanlab.com/pkg/loan"
)

// =============================================================================
// Clock 模拟时钟
// =============================================================================
//
// 一个 Clock 对应一笔模拟贷款。两个写入方：
// - 用户修改参数（Update / Reset）
// - 定时 tick（Tick）
// 两者都在同一把锁下执行，一次 tick 不会和一次用户修改交错。
//
// 每次 tick 的顺序是固定的，后面的步骤读取前面步骤的结果：
//  1. 价格扰动，写入价格历史
//  2. 推进天数，跨过整天时计息（使用 tick 开始时的贷款）
//  3. 重新计算 LTV
//  4. 自动加借策略
//  5. 重新计算快照，写入 LTV 历史
type Clock struct {
	mu sync.Mutex

	cfg Config
	pos loan.Position
	th  loan.Thresholds

	// principal 用户输入的本金，自动加借不会修改它
	principal float64

	status Status
	// steps 已推进的步数；elapsed 由 steps*DayStep 得出，不做浮点累加
	steps    int64
	elapsed  float64
	interest float64
	seq      int64

	prices *History
	ltvs   *History

	rng    RandomSource
	now    func() time.Time
	logger *zap.Logger
}

// Option Clock 的可选参数
type Option func(*Clock)

// WithRandomSource 注入随机源
func WithRandomSource(r RandomSource) Option {
	return func(c *Clock) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithNow 注入时间函数
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger 注入日志
func WithLogger(l *zap.Logger) Option {
	return func(c *Clock) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClock 创建模拟时钟，并以当前价格 / LTV 作为历史的种子点
func NewClock(cfg Config, pos loan.Position, th loan.Thresholds, opts ...Option) (*Clock, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}

	c := &Clock{
		cfg:       cfg,
		pos:       pos,
		th:        th,
		principal: pos.LoanAmount,
		prices:    NewHistory(cfg.HistoryLimit),
		ltvs:      NewHistory(cfg.HistoryLimit),
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = newTimeSource()
	}
	c.resetLocked()
	return c, nil
}

// =============================================================================
// Tick
// =============================================================================

// Tick 推进一步
func (c *Clock) Tick() TickReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.seq++

	// 1. 价格扰动
	prev := c.pos.AssetPrice
	c.pos.AssetPrice = c.perturb(prev)
	c.prices.Append(Sample{Timestamp: now, Value: c.pos.AssetPrice})

	// 2. 推进天数 + 计息
	loanAtStart := c.pos.LoanAmount
	days, interestDelta, ended := c.advanceLocked(loanAtStart)

	// 3. 重新计算 LTV
	cv := c.pos.CollateralValue()
	ltv := loan.LTV(loanAtStart, cv)

	// 4. 自动加借
	decision := ApplyReborrowPolicy(ReborrowInput{
		Enabled:         c.cfg.ReborrowEnabled,
		Status:          c.status,
		LTV:             ltv,
		LoanAmount:      loanAtStart,
		CollateralValue: cv,
		TargetLTV:       c.th.TargetLTV,
		TriggerLTV:      c.cfg.ReborrowTriggerLTV,
		Ceiling:         c.cfg.BorrowCeiling,
		MinIncrease:     c.cfg.MinReborrowIncrease,
	})
	if decision.Applied {
		c.pos.LoanAmount = decision.NewLoan
		c.logger.Info("reborrow applied",
			zap.Int64("seq", c.seq),
			zap.Float64("ltv", ltv),
			zap.Float64("old_loan", decision.OldLoan),
			zap.Float64("new_loan", decision.NewLoan),
		)
	}

	// 5. 加借之后的快照
	snap := loan.ComputeSnapshot(c.pos, c.th)
	c.ltvs.Append(Sample{Timestamp: now, Value: snap.LTV})

	if ended {
		c.logger.Info("loan term ended",
			zap.Float64("elapsed_days", c.elapsed),
			zap.Float64("interest_accrued", c.interest),
		)
	}

	return TickReport{
		Seq:             c.seq,
		Timestamp:       now,
		Status:          c.status,
		PrevPrice:       prev,
		Price:           c.pos.AssetPrice,
		ElapsedDays:     c.elapsed,
		DaysAccrued:     days,
		InterestDelta:   interestDelta,
		InterestAccrued: c.interest,
		Ended:           ended,
		Reborrow:        decision,
		Position:        c.pos,
		Snapshot:        snap,
	}
}

// perturb price * (1 + U(-v/2, v/2))，不低于 MinPrice
func (c *Clock) perturb(price float64) float64 {
	if c.cfg.Volatility > 0 {
		u := (c.rng.Float64() - 0.5) * c.cfg.Volatility
		price *= 1 + u
	}
	return math.Max(c.cfg.MinPrice, price)
}

// advanceLocked 推进天数，到期后不再推进也不再计息
func (c *Clock) advanceLocked(loanAtStart float64) (days int, interest float64, ended bool) {
	if c.status != StatusRunning {
		return 0, 0, false
	}

	term := float64(c.cfg.LoanTermDays)
	before := c.elapsed
	c.steps++
	after := math.Min(snapToDay(float64(c.steps)*c.cfg.DayStep), term)

	days = int(math.Floor(after) - math.Floor(before))
	if days > 0 {
		interest = float64(days) * loan.DailyInterest(loanAtStart, c.pos.AnnualInterestRate)
		c.interest += interest
	}
	c.elapsed = after

	if c.elapsed >= term {
		c.status = StatusEnded
		ended = true
	}
	return days, interest, ended
}

// dayEpsilon 距整天小于该值时视为整天
const dayEpsilon = 1e-9

// snapToDay 吸收 steps*DayStep 的浮点误差（0.1*10 之类），保证到期和计息落在正确的 tick
func snapToDay(days float64) float64 {
	if r := math.Round(days); math.Abs(days-r) < dayEpsilon {
		return r
	}
	return days
}

// =============================================================================
// 用户操作
// =============================================================================

// Update 用户修改参数
//
// 本金、目标 LTV、利率、期限任意一个变化都视为一笔新贷款，重置模拟；
// 其他变化（抵押品、价格、追保 / 强平阈值）原地生效。
func (c *Clock) Update(pos loan.Position, th loan.Thresholds, termDays int) (bool, error) {
	if err := th.Validate(); err != nil {
		return false, err
	}
	if termDays <= 0 {
		return false, fmt.Errorf("loan_term_days=%d: %w", termDays, ErrInvalidConfig)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	reset := pos.LoanAmount != c.principal ||
		th.TargetLTV != c.th.TargetLTV ||
		pos.AnnualInterestRate != c.pos.AnnualInterestRate ||
		termDays != c.cfg.LoanTermDays

	if reset {
		c.pos = pos
		c.principal = pos.LoanAmount
		c.th = th
		c.cfg.LoanTermDays = termDays
		c.resetLocked()
		c.logger.Info("simulation reset",
			zap.Float64("principal", c.principal),
			zap.Float64("target_ltv", th.TargetLTV),
			zap.Int("term_days", termDays),
		)
		return true, nil
	}

	// 原地生效：保留当前（可能已加借的）贷款
	c.pos.CollateralAmount = pos.CollateralAmount
	c.pos.AssetPrice = pos.AssetPrice
	c.th = th
	return false, nil
}

// Reset 开始一笔新贷款：天数、利息清零，贷款恢复为本金，历史只保留一个种子点
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Clock) resetLocked() {
	c.pos.LoanAmount = c.principal
	c.status = StatusRunning
	c.steps = 0
	c.elapsed = 0
	c.interest = 0

	now := c.now()
	snap := loan.ComputeSnapshot(c.pos, c.th)
	c.prices.Reset(Sample{Timestamp: now, Value: c.pos.AssetPrice})
	c.ltvs.Reset(Sample{Timestamp: now, Value: snap.LTV})
}

// =============================================================================
// 查询
// =============================================================================

// Snapshot 当前风险快照
func (c *Clock) Snapshot() loan.RiskSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return loan.ComputeSnapshot(c.pos, c.th)
}

// State 当前状态副本
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Status:          c.status,
		ElapsedDays:     c.elapsed,
		InterestAccrued: c.interest,
		Ticks:           c.seq,
		PriceHistory:    c.prices.Samples(),
		LTVHistory:      c.ltvs.Samples(),
	}
}

// Position 当前仓位（包含自动加借后的贷款）
func (c *Clock) Position() loan.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// Thresholds 当前阈值
func (c *Clock) Thresholds() loan.Thresholds {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.th
}

// Config 当前模拟参数
func (c *Clock) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}
