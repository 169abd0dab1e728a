package loan

// ComputeSnapshot 风险计算入口
//
// 输入（仓位 + 阈值）→ 输出（风险快照），纯函数，没有缓存、没有副作用。
// 任何输入变化都重新调用一次即可，O(1) 的算术开销可以忽略。
func ComputeSnapshot(pos Position, th Thresholds) RiskSnapshot {
	amount := pos.CollateralAmount
	price := pos.AssetPrice
	loan := pos.LoanAmount

	cv := CollateralValue(amount, price)
	ltv := LTV(loan, cv)

	// 1. 缓冲：当前价格距离追加保证金 / 强平还有多远
	mcUSD, mcPct := Buffer(price, loan, amount, th.MarginCallLTV)
	liqUSD, liqPct := Buffer(price, loan, amount, th.LiquidationLTV)

	// 2. 借款能力：可借 与 可提取 互斥
	available, withdrawable := BorrowCapacity(cv, loan, th.TargetLTV)

	return RiskSnapshot{
		CollateralValue:        cv,
		LTV:                    ltv,
		LiquidationPrice:       LiquidationPrice(loan, amount, th.LiquidationLTV),
		BufferToMarginCallUSD:  mcUSD,
		BufferToMarginCallPct:  mcPct,
		BufferToLiquidationUSD: liqUSD,
		BufferToLiquidationPct: liqPct,
		DailyInterest:          DailyInterest(loan, pos.AnnualInterestRate),
		MonthlyInterest:        MonthlyInterest(loan, pos.AnnualInterestRate),
		AvailableToBorrow:      available,
		WithdrawableValue:      withdrawable,
		WithdrawableAmount:     ToAssetAmount(withdrawable, price),
		CollateralShortfall:    CollateralShortfall(cv, loan, th.TargetLTV),
		Zone:                   ClassifyLTV(ltv, th),
	}
}
