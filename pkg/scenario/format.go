package scenario

import (
	"github.com/dustin/go-humanize"
)

// 展示格式：金额 2 位小数，资产数量 6 位小数，百分比 1 位小数

// FormatCurrency 12345.678 → "$12,345.68"
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// FormatAsset 0.0039560 → "0.003956 BTC"
func FormatAsset(v float64) string {
	return humanize.FormatFloat("#,###.######", v) + " BTC"
}

// FormatPercent 0.76923 → "76.9%"
func FormatPercent(v float64) string {
	return humanize.FormatFloat("#,###.#", v*100) + "%"
}
