package scenario

import (
	"math"

	"loanlab.com/pkg/loan"
)

// maxSeriesPoints 限制 ProjectSeries 的点数，防止 step 过小
const maxSeriesPoints = 1000

// ProjectPrice 复利增长后的价格
//
// price * (1+growth)^years，年限可以是小数。
// years <= 0 时返回当前价格；1+growth 小于 0 时按 0 处理（价格最多跌到 0）。
func ProjectPrice(price, growth, years float64) float64 {
	if years <= 0 || price <= 0 {
		return math.Max(price, 0)
	}
	factor := 1 + growth
	if factor <= 0 {
		return 0
	}
	return price * math.Pow(factor, years)
}

// Project 增长预测
//
// 贷款本金保持不变，利息按单利估算：loan * rate * years。
func Project(pos loan.Position, th loan.Thresholds, p Projection) ProjectionResult {
	years := math.Max(p.Years, 0)
	price := ProjectPrice(pos.AssetPrice, p.AnnualGrowth, years)
	cv := loan.CollateralValue(pos.CollateralAmount, price)
	ltv := loan.LTV(pos.LoanAmount, cv)
	available, _ := loan.BorrowCapacity(cv, pos.LoanAmount, th.TargetLTV)

	return ProjectionResult{
		Years:                      years,
		AnnualGrowth:               p.AnnualGrowth,
		ProjectedPrice:             price,
		ProjectedCollateralValue:   cv,
		ProjectedLTV:               ltv,
		ProjectedAvailableToBorrow: available,
		TotalInterest:              pos.LoanAmount * pos.AnnualInterestRate * years,
		Zone:                       loan.ClassifyLTV(ltv, th),
	}
}

// ProjectSeries 按 step 年为间隔生成 [0, years] 的预测序列（画图用）
//
// 第一个点是今天，最后一个点恰好是 years。step <= 0 时按 1 年处理。
func ProjectSeries(pos loan.Position, th loan.Thresholds, growth, years, step float64) []ProjectionResult {
	if step <= 0 {
		step = 1
	}
	years = math.Max(years, 0)
	if years/step > maxSeriesPoints {
		step = years / maxSeriesPoints
	}

	series := make([]ProjectionResult, 0, int(years/step)+2)
	for i := 0; ; i++ {
		t := float64(i) * step
		if t >= years {
			break
		}
		series = append(series, Project(pos, th, Projection{Years: t, AnnualGrowth: growth}))
	}
	return append(series, Project(pos, th, Projection{Years: years, AnnualGrowth: growth}))
}
