package loan

// =============================================================================
// 基础公式
// =============================================================================
//
// 所有函数都是全函数（total function）：
// - 不返回 error，不 panic
// - 分母为 0 时直接返回 0，绝不产生 Inf / NaN
//
// 这样调用方在任何输入下都能拿到一个确定的数字。

// CollateralValue 抵押品价值 = 数量 * 价格
func CollateralValue(amount, price float64) float64 {
	return amount * price
}

// LTV 贷款价值比 = 贷款 / 抵押品价值
//
// 没有贷款时 LTV 定义为 0（“没有负债”不是风险状态），
// 抵押品价值为 0 时同样返回 0，避免除 0。
func LTV(loan, collateralValue float64) float64 {
	if loan <= 0 || collateralValue <= 0 {
		return 0
	}
	return loan / collateralValue
}

// LiquidationPrice 计算强平价格
//
// 【公式推导】
// 强平条件: loan / (amount * P) = liquidationLTV
// 解出 P:   P = loan / (amount * liquidationLTV)
//
// 数量、贷款、阈值任一为 0 时不存在强平价格，返回 0。
func LiquidationPrice(loan, amount, liquidationLTV float64) float64 {
	return priceAtLTV(loan, amount, liquidationLTV)
}

// priceAtLTV 反推 LTV 恰好等于 threshold 时的价格
func priceAtLTV(loan, amount, threshold float64) float64 {
	if amount <= 0 || loan <= 0 || threshold <= 0 {
		return 0
	}
	return loan / (amount * threshold)
}

// Buffer 计算当前价格距离某个 LTV 阈值的缓冲
//
// priceAtT = loan / (amount * T)
// 当前价格高于 priceAtT 时：
//
//	usd = price - priceAtT
//	pct = usd / price
//
// 否则（已经触及，或者没有贷款）缓冲为 0，不返回负数。
func Buffer(price, loan, amount, threshold float64) (usd, pct float64) {
	priceAtT := priceAtLTV(loan, amount, threshold)
	if priceAtT <= 0 || price <= priceAtT {
		return 0, 0
	}
	usd = price - priceAtT
	return usd, usd / price
}

// DailyInterest 日利息 = 本金 * 年利率 / 365
func DailyInterest(loan, annualRate float64) float64 {
	return loan * annualRate / DaysPerYear
}

// MonthlyInterest 月利息（30 天近似）
func MonthlyInterest(loan, annualRate float64) float64 {
	return DailyInterest(loan, annualRate) * DaysPerMonth
}

// BorrowCapacity 计算借款能力
//
// capacity = collateralValue * targetLTV
//
// 【分支一】loan < capacity：还能借 capacity - loan，可提取抵押品为 0
// 【分支二】loan >= capacity：不能再借，计算保持目标 LTV 时多余的抵押品
//
//	minCollateral = loan / targetLTV   (targetLTV 为 0 时取 loan 本身)
//	withdrawable  = max(0, collateralValue - minCollateral)
//
// 两个分支互斥，一个仓位不会同时“可借”又“可提”。
func BorrowCapacity(collateralValue, loan, targetLTV float64) (available, withdrawable float64) {
	capacity := collateralValue * targetLTV
	if loan < capacity {
		return capacity - loan, 0
	}

	minCollateral := loan
	if targetLTV > 0 {
		minCollateral = loan / targetLTV
	}
	if surplus := collateralValue - minCollateral; surplus > 0 {
		return 0, surplus
	}
	return 0, 0
}

// CollateralShortfall 回到目标 LTV 还差多少抵押品价值
//
// shortfall = max(0, loan / targetLTV - collateralValue)
// targetLTV 为 0 或没有贷款时返回 0。
func CollateralShortfall(collateralValue, loan, targetLTV float64) float64 {
	if loan <= 0 || targetLTV <= 0 {
		return 0
	}
	if gap := loan/targetLTV - collateralValue; gap > 0 {
		return gap
	}
	return 0
}

// ToAssetAmount 把报价货币金额折算成资产数量，价格为 0 时返回 0
func ToAssetAmount(value, price float64) float64 {
	if price <= 0 || value <= 0 {
		return 0
	}
	return value / price
}
