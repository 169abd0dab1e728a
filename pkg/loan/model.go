package loan

// 默认的 LTV 阈值配置（与大多数 BTC 抵押借贷平台一致）
const (
	DefaultTargetLTV      = 0.50 // 目标 LTV 50%
	DefaultMarginCallLTV  = 0.70 // 追加保证金 70%
	DefaultLiquidationLTV = 0.80 // 强平 80%
)

// 时间换算常量
// 利息按单利计算，按天折算：日利息 = 本金 * 年利率 / 365
// 月利息是简化的 30 天近似，不按自然月计算
const (
	DaysPerYear  = 365
	DaysPerMonth = 30
)

// Position 表示借款人当前的抵押借贷状态。
//
// 抵押品只用 (数量, 价格) 这一对规范值描述。
// 抵押品价值永远由 CollateralValue() 推导，不单独存储，
// 这样“按数量输入”和“按价值输入”两种模式最终都会归一到同一对值。
type Position struct {
	// CollateralAmount：抵押资产数量（如 0.05 BTC），非负
	CollateralAmount float64 `json:"collateral_amount" yaml:"collateral_amount"`

	// AssetPrice：一单位抵押资产的报价（如 65000 USD），非负
	AssetPrice float64 `json:"asset_price" yaml:"asset_price"`

	// LoanAmount：未偿还本金（报价货币），非负
	LoanAmount float64 `json:"loan_amount" yaml:"loan_amount"`

	// AnnualInterestRate：年利率（小数，0.05 = 5%），单利、按日折算
	AnnualInterestRate float64 `json:"annual_interest_rate" yaml:"annual_interest_rate"`
}

// CollateralValue 抵押品价值 = 数量 * 价格
func (p Position) CollateralValue() float64 {
	return CollateralValue(p.CollateralAmount, p.AssetPrice)
}

// WithPrice 返回替换了价格的副本（情景分析用，贷款保持不变）
func (p Position) WithPrice(price float64) Position {
	p.AssetPrice = price
	return p
}

// Thresholds 三个 LTV 阈值（小数）。
//
// 约定顺序：TargetLTV < MarginCallLTV < LiquidationLTV，均在 (0,1) 内。
// 公式本身不校验顺序，校验放在边界层（见 Validate）。
type Thresholds struct {
	// TargetLTV：借款人期望的稳态 LTV，用于计算可借额度 / 可提取抵押品
	TargetLTV float64 `json:"target_ltv" yaml:"target_ltv"`

	// MarginCallLTV：达到该值时贷方要求降低风险（补仓或还款）
	MarginCallLTV float64 `json:"margin_call_ltv" yaml:"margin_call_ltv"`

	// LiquidationLTV：达到该值时抵押品被强制出售
	LiquidationLTV float64 `json:"liquidation_ltv" yaml:"liquidation_ltv"`
}

// DefaultThresholds 返回默认阈值 50% / 70% / 80%
func DefaultThresholds() Thresholds {
	return Thresholds{
		TargetLTV:      DefaultTargetLTV,
		MarginCallLTV:  DefaultMarginCallLTV,
		LiquidationLTV: DefaultLiquidationLTV,
	}
}

// RiskSnapshot 是风险计算的统一输出。
//
// 所有字段都是 Position + Thresholds 的纯函数结果，没有独立生命周期：
// 任何输入变化后都应重新调用 ComputeSnapshot，而不是去修改其中的字段。
type RiskSnapshot struct {
	CollateralValue float64 `json:"collateral_value"`
	LTV             float64 `json:"ltv"`

	// LiquidationPrice：LTV 恰好等于 LiquidationLTV 时的资产价格
	LiquidationPrice float64 `json:"liquidation_price"`

	// 距离追加保证金 / 强平的价格缓冲（USD 与占当前价格的比例）
	// 已经触及或没有贷款时为 0，不会出现负数
	BufferToMarginCallUSD  float64 `json:"buffer_to_margin_call_usd"`
	BufferToMarginCallPct  float64 `json:"buffer_to_margin_call_pct"`
	BufferToLiquidationUSD float64 `json:"buffer_to_liquidation_usd"`
	BufferToLiquidationPct float64 `json:"buffer_to_liquidation_pct"`

	DailyInterest   float64 `json:"daily_interest"`
	MonthlyInterest float64 `json:"monthly_interest"`

	// 可借额度与可提取抵押品互斥：低于目标 LTV 时只有前者，否则只有后者
	AvailableToBorrow  float64 `json:"available_to_borrow"`
	WithdrawableValue  float64 `json:"withdrawable_value"`
	WithdrawableAmount float64 `json:"withdrawable_amount"`

	// CollateralShortfall：高于目标 LTV 时，回到目标 LTV 需要补充的抵押品价值
	CollateralShortfall float64 `json:"collateral_shortfall"`

	Zone Zone `json:"zone"`
}
