package loan

// =============================================================================
// LTV 区间
// =============================================================================

// Zone LTV 所处的风险区间
//
// 借款人关心的是“离哪条线还有多远”，所以按三个阈值切成四段：
// - healthy：     ltv <= target，可以继续借或提取抵押品
// - elevated：    target < ltv < marginCall，高于目标但还安全
// - margin_call： marginCall <= ltv < liquidation，需要补仓或还款
// - liquidation： ltv >= liquidation，随时会被强平
type Zone string

const (
	ZoneHealthy     Zone = "healthy"
	ZoneElevated    Zone = "elevated"
	ZoneMarginCall  Zone = "margin_call"
	ZoneLiquidation Zone = "liquidation"
)

// String 返回区间名（用于日志打印）
func (z Zone) String() string {
	if z == "" {
		return string(ZoneHealthy)
	}
	return string(z)
}

// Severity 区间的严重程度，越大越危险（用于排序和指标上报）
func (z Zone) Severity() int {
	switch z {
	case ZoneElevated:
		return 1
	case ZoneMarginCall:
		return 2
	case ZoneLiquidation:
		return 3
	default:
		return 0
	}
}

// ClassifyLTV 根据 LTV 计算所处区间
//
// 注意判断顺序：从最危险的开始，命中即返回。
func ClassifyLTV(ltv float64, th Thresholds) Zone {
	switch {
	case ltv > 0 && th.LiquidationLTV > 0 && ltv >= th.LiquidationLTV:
		return ZoneLiquidation
	case ltv > 0 && th.MarginCallLTV > 0 && ltv >= th.MarginCallLTV:
		return ZoneMarginCall
	case ltv > th.TargetLTV:
		return ZoneElevated
	default:
		return ZoneHealthy
	}
}
