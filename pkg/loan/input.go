package loan

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// 输入边界
// =============================================================================
//
// 界面提交的都是字符串。这里负责把它们归一成引擎使用的数值：
// - 解析失败（非数字、空串、NaN、Inf）一律按 0 处理，不报错
// - 金额、价格、利率不允许为负，负数按 0 处理
// - 百分比字段统一按“展示百分比”（0~100）输入，在这里除以 100 转成小数
// - 抵押品支持“按数量”或“按价值”输入，在这里一次性换算成 (数量, 价格)

// CollateralMode 抵押品输入模式
type CollateralMode string

const (
	CollateralByAmount CollateralMode = "amount" // 输入资产数量（默认）
	CollateralByValue  CollateralMode = "value"  // 输入报价货币价值
)

// RawInput 界面原始输入
type RawInput struct {
	CollateralMode   CollateralMode `json:"collateral_mode"`
	CollateralAmount string         `json:"collateral_amount"`
	CollateralValue  string         `json:"collateral_value"`
	AssetPrice       string         `json:"asset_price"`
	LoanAmount       string         `json:"loan_amount"`

	// 以下均为展示百分比，例如 "5" 表示 5%
	AnnualInterestRate string `json:"annual_interest_rate"`
	TargetLTV          string `json:"target_ltv"`
	MarginCallLTV      string `json:"margin_call_ltv"`
	LiquidationLTV     string `json:"liquidation_ltv"`
}

// numberReplacer 去掉常见的展示符号：货币符号、千分位、百分号、下划线
var numberReplacer = strings.NewReplacer("$", "", ",", "", "%", "", "_", "", " ", "")

// ParseNumber parse-or-zero 语义的数字解析
//
// 用 decimal 解析而不是 strconv.ParseFloat：
// 后者会把 "NaN"、"Inf" 当成合法输入，非有限值一旦进入公式就会一路传播。
func ParseNumber(s string) float64 {
	s = numberReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// ParseNonNegative 解析非负数，负数按 0 处理
func ParseNonNegative(s string) float64 {
	if v := ParseNumber(s); v > 0 {
		return v
	}
	return 0
}

// ParsePercent 把展示百分比（如 "20"、"-20%"）转成小数（0.2、-0.2）
func ParsePercent(s string) float64 {
	return ParseNumber(s) / 100
}

// parseThreshold 阈值为空时使用默认值，非法值按 0 处理（随后会被 Validate 拒绝）
func parseThreshold(s string, def float64) float64 {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return ParseNonNegative(s) / 100
}

// ResolveCollateralAmount 把两种输入模式归一成资产数量
//
// 按价值输入时：amount = value / price，价格为 0 时数量为 0。
func ResolveCollateralAmount(mode CollateralMode, amount, value, price float64) float64 {
	if mode == CollateralByValue {
		return ToAssetAmount(value, price)
	}
	return amount
}

// ParseInput 把界面输入转换成 Position + Thresholds
//
// 数字解析永远不会失败；唯一可能返回的错误是阈值校验失败。
func ParseInput(in RawInput) (Position, Thresholds, error) {
	price := ParseNonNegative(in.AssetPrice)
	amount := ResolveCollateralAmount(
		in.CollateralMode,
		ParseNonNegative(in.CollateralAmount),
		ParseNonNegative(in.CollateralValue),
		price,
	)

	pos := Position{
		CollateralAmount:   amount,
		AssetPrice:         price,
		LoanAmount:         ParseNonNegative(in.LoanAmount),
		AnnualInterestRate: ParseNonNegative(in.AnnualInterestRate) / 100,
	}
	th := Thresholds{
		TargetLTV:      parseThreshold(in.TargetLTV, DefaultTargetLTV),
		MarginCallLTV:  parseThreshold(in.MarginCallLTV, DefaultMarginCallLTV),
		LiquidationLTV: parseThreshold(in.LiquidationLTV, DefaultLiquidationLTV),
	}
	if err := th.Validate(); err != nil {
		return pos, th, err
	}
	return pos, th, nil
}
