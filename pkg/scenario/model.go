package scenario

import "loanlab.com/pkg/loan"

// ShockMode 价格冲击的输入方式
type ShockMode string

const (
	// ShockRelative 相对变化，Value 为小数（-0.2 = 下跌 20%）
	ShockRelative ShockMode = "relative"
	// ShockAbsolute 直接给出冲击后的价格
	ShockAbsolute ShockMode = "absolute"
)

// Shock 一次价格冲击
type Shock struct {
	Mode  ShockMode `json:"mode" yaml:"mode"`
	Value float64   `json:"value" yaml:"value"`
}

// RelativeShock 相对冲击（delta 为小数）
func RelativeShock(delta float64) Shock {
	return Shock{Mode: ShockRelative, Value: delta}
}

// AbsoluteShock 绝对价格冲击
func AbsoluteShock(price float64) Shock {
	return Shock{Mode: ShockAbsolute, Value: price}
}

// SuggestionKind 建议的类别，决定界面上的颜色和排序
type SuggestionKind string

const (
	KindDanger      SuggestionKind = "danger"      // 已触及强平线
	KindWarning     SuggestionKind = "warning"     // 已触及追加保证金线
	KindOpportunity SuggestionKind = "opportunity" // 低于目标 LTV，有操作空间
	KindAction      SuggestionKind = "action"      // 具体可执行的操作
)

// 建议编码，供调用方做程序化判断（文案可能会改，编码不会）
const (
	CodeLiquidationDanger = "liquidation_danger"
	CodeMarginCallWarning = "margin_call_warning"
	CodeTopUpMarginCall   = "top_up_to_margin_call"
	CodeTopUpTarget       = "top_up_to_target"
	CodeRepayToTarget     = "repay_to_target"
	CodeBelowTarget       = "below_target"
	CodeBorrowMore        = "borrow_more"
	CodeWithdrawSurplus   = "withdraw_surplus"
	CodeBorrowCapacity    = "borrow_capacity"
)

// Suggestion 一条建议
//
// 数值字段与 Message 中引用的数字来自同一次计算，
// 格式化只发生在生成 Message 时。
type Suggestion struct {
	Kind    SuggestionKind `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`

	// Amount：涉及的报价货币金额（补仓、还款、可借、可提取）
	Amount float64 `json:"amount,omitempty"`
	// AssetAmount：Amount 折算成的资产数量
	AssetAmount float64 `json:"asset_amount,omitempty"`
	// LTV：冲击后的 LTV
	LTV float64 `json:"ltv,omitempty"`
	// Threshold：本条建议参照的阈值
	Threshold float64 `json:"threshold,omitempty"`
}

// ShockResult 价格冲击分析结果
type ShockResult struct {
	Shock Shock `json:"shock"`

	OriginalPrice       float64   `json:"original_price"`
	NewPrice            float64   `json:"new_price"`
	NewCollateralValue  float64   `json:"new_collateral_value"`
	NewLTV              float64   `json:"new_ltv"`
	NewLiquidationPrice float64   `json:"new_liquidation_price"`
	Zone                loan.Zone `json:"zone"`

	// Suggestions 有序；为空表示“没有可执行的建议”，这是合法结果
	Suggestions []Suggestion `json:"suggestions"`
}

// Has 是否包含某类建议
func (r ShockResult) Has(kind SuggestionKind) bool {
	for _, s := range r.Suggestions {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

// Find 按编码查找建议
func (r ShockResult) Find(code string) (Suggestion, bool) {
	for _, s := range r.Suggestions {
		if s.Code == code {
			return s, true
		}
	}
	return Suggestion{}, false
}

// Projection 增长预测参数
type Projection struct {
	// Years：预测年限，允许小数（0.5 = 半年）
	Years float64 `json:"years" yaml:"years"`
	// AnnualGrowth：年化增长率（小数，可为负）
	AnnualGrowth float64 `json:"annual_growth" yaml:"annual_growth"`
}

// ProjectionResult 增长预测结果
//
// 只报告“可借”一侧，不计算可提取抵押品。
type ProjectionResult struct {
	Years        float64 `json:"years"`
	AnnualGrowth float64 `json:"annual_growth"`

	ProjectedPrice             float64   `json:"projected_price"`
	ProjectedCollateralValue   float64   `json:"projected_collateral_value"`
	ProjectedLTV               float64   `json:"projected_ltv"`
	ProjectedAvailableToBorrow float64   `json:"projected_available_to_borrow"`
	TotalInterest              float64   `json:"total_interest"`
	Zone                       loan.Zone `json:"zone"`
}
