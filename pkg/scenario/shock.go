package scenario

import (
	"fmt"

	"loanlab.com/pkg/loan"
)

// =============================================================================
// 价格冲击分析
// =============================================================================

// ApplyShock 计算冲击后的价格，结果不小于 0
func ApplyShock(base float64, s Shock) float64 {
	var p float64
	if s.Mode == ShockAbsolute {
		p = s.Value
	} else {
		p = base * (1 + s.Value)
	}
	if p < 0 {
		return 0
	}
	return p
}

// AnalyzeShock 价格冲击分析
//
// 贷款保持不变，只替换价格，然后按固定优先级生成建议：
//  1. 触及追加保证金线：警告 + 补仓到追保线 + 补仓到目标 + 还款到目标
//  2. 低于目标 LTV：机会 + 多借到目标 + 提取多余抵押品
//  3. 没有贷款：按目标 LTV 的总借款能力
//
// 另外，触及强平线时在最前面插入一条 danger（与 1 同时出现）。
func AnalyzeShock(pos loan.Position, th loan.Thresholds, s Shock) ShockResult {
	newPrice := ApplyShock(pos.AssetPrice, s)
	amount := pos.CollateralAmount
	debt := pos.LoanAmount

	cv := loan.CollateralValue(amount, newPrice)
	ltv := loan.LTV(debt, cv)

	res := ShockResult{
		Shock:               s,
		OriginalPrice:       pos.AssetPrice,
		NewPrice:            newPrice,
		NewCollateralValue:  cv,
		NewLTV:              ltv,
		NewLiquidationPrice: loan.LiquidationPrice(debt, amount, th.LiquidationLTV),
		Zone:                loan.ClassifyLTV(ltv, th),
	}

	var out []Suggestion
	switch {
	case debt > 0 && ltv >= th.MarginCallLTV:
		out = marginCallSuggestions(out, debt, cv, ltv, newPrice, th)
	case debt > 0 && ltv > 0 && ltv < th.TargetLTV:
		out = belowTargetSuggestions(out, debt, cv, ltv, newPrice, th)
	case debt == 0 && cv > 0:
		capacity := cv * th.TargetLTV
		out = append(out, Suggestion{
			Kind:      KindOpportunity,
			Code:      CodeBorrowCapacity,
			Amount:    capacity,
			Threshold: th.TargetLTV,
			Message: fmt.Sprintf("With no current loan and collateral at %s, you could borrow up to %s at your target LTV (%s).",
				FormatCurrency(cv), FormatCurrency(capacity), FormatPercent(th.TargetLTV)),
		})
	}

	// danger 总是放在最前面
	if debt > 0 && ltv >= th.LiquidationLTV {
		danger := Suggestion{
			Kind:      KindDanger,
			Code:      CodeLiquidationDanger,
			LTV:       ltv,
			Threshold: th.LiquidationLTV,
			Message: fmt.Sprintf("DANGER! Your LTV is %s, at or exceeding Liquidation LTV of %s. Liquidation imminent without immediate action!",
				FormatPercent(ltv), FormatPercent(th.LiquidationLTV)),
		}
		out = append([]Suggestion{danger}, out...)
	}

	res.Suggestions = out
	return res
}

func marginCallSuggestions(out []Suggestion, debt, cv, ltv, price float64, th loan.Thresholds) []Suggestion {
	out = append(out, Suggestion{
		Kind:      KindWarning,
		Code:      CodeMarginCallWarning,
		LTV:       ltv,
		Threshold: th.MarginCallLTV,
		Message: fmt.Sprintf("Your LTV is %s, reaching or exceeding margin call LTV of %s.",
			FormatPercent(ltv), FormatPercent(th.MarginCallLTV)),
	})

	// 补仓回到追保线
	if topUp := requiredCollateral(debt, th.MarginCallLTV) - cv; topUp > 0 {
		asset := loan.ToAssetAmount(topUp, price)
		out = append(out, Suggestion{
			Kind:        KindAction,
			Code:        CodeTopUpMarginCall,
			Amount:      topUp,
			AssetAmount: asset,
			LTV:         ltv,
			Threshold:   th.MarginCallLTV,
			Message: fmt.Sprintf("To avoid margin call (at %s): Add %s (%s) collateral.",
				FormatPercent(th.MarginCallLTV), FormatCurrency(topUp), FormatAsset(asset)),
		})
	}

	// 补仓回到目标 LTV
	if topUp := requiredCollateral(debt, th.TargetLTV) - cv; topUp > 0 {
		asset := loan.ToAssetAmount(topUp, price)
		out = append(out, Suggestion{
			Kind:        KindAction,
			Code:        CodeTopUpTarget,
			Amount:      topUp,
			AssetAmount: asset,
			LTV:         ltv,
			Threshold:   th.TargetLTV,
			Message: fmt.Sprintf("To return to Target LTV (at %s): Add %s (%s) collateral.",
				FormatPercent(th.TargetLTV), FormatCurrency(topUp), FormatAsset(asset)),
		})
	}

	// 或者还款到目标 LTV
	if repay := debt - cv*th.TargetLTV; repay > 0 {
		out = append(out, Suggestion{
			Kind:      KindAction,
			Code:      CodeRepayToTarget,
			Amount:    repay,
			LTV:       ltv,
			Threshold: th.TargetLTV,
			Message: fmt.Sprintf("Alternatively, to return to Target LTV: Repay %s of your loan.",
				FormatCurrency(repay)),
		})
	}
	return out
}

func belowTargetSuggestions(out []Suggestion, debt, cv, ltv, price float64, th loan.Thresholds) []Suggestion {
	out = append(out, Suggestion{
		Kind:      KindOpportunity,
		Code:      CodeBelowTarget,
		LTV:       ltv,
		Threshold: th.TargetLTV,
		Message:   fmt.Sprintf("Your LTV is %s.", FormatPercent(ltv)),
	})

	if more := cv*th.TargetLTV - debt; more > 0 {
		out = append(out, Suggestion{
			Kind:      KindAction,
			Code:      CodeBorrowMore,
			Amount:    more,
			LTV:       ltv,
			Threshold: th.TargetLTV,
			Message: fmt.Sprintf("You could borrow an additional %s to reach your Target LTV (%s).",
				FormatCurrency(more), FormatPercent(th.TargetLTV)),
		})
	}

	if th.TargetLTV > 0 {
		if surplus := cv - debt/th.TargetLTV; surplus > 0 {
			asset := loan.ToAssetAmount(surplus, price)
			out = append(out, Suggestion{
				Kind:        KindAction,
				Code:        CodeWithdrawSurplus,
				Amount:      surplus,
				AssetAmount: asset,
				LTV:         ltv,
				Threshold:   th.TargetLTV,
				Message: fmt.Sprintf("Alternatively, you could withdraw %s (%s) of collateral and maintain Target LTV.",
					FormatCurrency(surplus), FormatAsset(asset)),
			})
		}
	}
	return out
}

// requiredCollateral LTV 恰好为 threshold 时需要的抵押品价值
func requiredCollateral(debt, threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return debt / threshold
}
