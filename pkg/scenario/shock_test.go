package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanlab.com/pkg/loan"
)

const eps = 1e-6

// 0.05 BTC @ 65000，贷款 2000，年利率 5%
func basePosition() loan.Position {
	return loan.Position{CollateralAmount: 0.05, AssetPrice: 65000, LoanAmount: 2000, AnnualInterestRate: 0.05}
}

func kinds(r ShockResult) []SuggestionKind {
	out := make([]SuggestionKind, 0, len(r.Suggestions))
	for _, s := range r.Suggestions {
		out = append(out, s.Kind)
	}
	return out
}

func TestApplyShock(t *testing.T) {
	assert.InDelta(t, 52000, ApplyShock(65000, RelativeShock(-0.2)), eps)
	assert.InDelta(t, 40000, ApplyShock(65000, AbsoluteShock(40000)), eps)
	assert.Equal(t, 0.0, ApplyShock(65000, RelativeShock(-1.5)))
	assert.Equal(t, 0.0, ApplyShock(65000, AbsoluteShock(-1)))
}

func TestAnalyzeShock_MarginCall(t *testing.T) {
	// 场景：下跌 20%
	// newPrice = 52000, cv = 2600, ltv = 2000/2600 = 0.7692
	// 0.7 <= 0.7692 < 0.8：追保警告，但没有强平 danger
	res := AnalyzeShock(basePosition(), loan.DefaultThresholds(), RelativeShock(-0.2))

	assert.InDelta(t, 65000, res.OriginalPrice, eps)
	assert.InDelta(t, 52000, res.NewPrice, eps)
	assert.InDelta(t, 2600, res.NewCollateralValue, eps)
	assert.InDelta(t, 0.7692, res.NewLTV, 1e-4)
	assert.InDelta(t, 50000, res.NewLiquidationPrice, eps)
	assert.Equal(t, loan.ZoneMarginCall, res.Zone)

	assert.True(t, res.Has(KindWarning))
	assert.False(t, res.Has(KindDanger))
	assert.Equal(t, []SuggestionKind{KindWarning, KindAction, KindAction, KindAction}, kinds(res))

	// 补仓到追保线：2000/0.7 - 2600 = 257.14
	topUp, ok := res.Find(CodeTopUpMarginCall)
	require.True(t, ok)
	assert.InDelta(t, 257.142857, topUp.Amount, 1e-5)
	assert.InDelta(t, topUp.Amount/52000, topUp.AssetAmount, eps)
	assert.Equal(t, "To avoid margin call (at 70.0%): Add $257.14 (0.004945 BTC) collateral.", topUp.Message)

	// 补仓到目标：4000 - 2600 = 1400
	target, ok := res.Find(CodeTopUpTarget)
	require.True(t, ok)
	assert.InDelta(t, 1400, target.Amount, eps)

	// 还款到目标：2000 - 2600*0.5 = 700
	repay, ok := res.Find(CodeRepayToTarget)
	require.True(t, ok)
	assert.InDelta(t, 700, repay.Amount, eps)
	assert.Equal(t, "Alternatively, to return to Target LTV: Repay $700.00 of your loan.", repay.Message)

	warning := res.Suggestions[0]
	assert.Equal(t, "Your LTV is 76.9%, reaching or exceeding margin call LTV of 70.0%.", warning.Message)
}

func TestAnalyzeShock_Liquidation(t *testing.T) {
	// 下跌 50%：cv = 1625, ltv = 1.23 >= 0.8
	res := AnalyzeShock(basePosition(), loan.DefaultThresholds(), RelativeShock(-0.5))

	require.NotEmpty(t, res.Suggestions)
	assert.Equal(t, KindDanger, res.Suggestions[0].Kind)
	assert.Equal(t, KindWarning, res.Suggestions[1].Kind)
	assert.Equal(t, loan.ZoneLiquidation, res.Zone)
	assert.Contains(t, res.Suggestions[0].Message, "DANGER!")
}

func TestAnalyzeShock_BelowTarget(t *testing.T) {
	// 上涨 100%：cv = 6500, ltv = 0.3077
	res := AnalyzeShock(basePosition(), loan.DefaultThresholds(), RelativeShock(1))

	assert.Equal(t, []SuggestionKind{KindOpportunity, KindAction, KindAction}, kinds(res))

	more, ok := res.Find(CodeBorrowMore)
	require.True(t, ok)
	assert.InDelta(t, 1250, more.Amount, eps)

	// 6500 - 2000/0.5 = 2500
	surplus, ok := res.Find(CodeWithdrawSurplus)
	require.True(t, ok)
	assert.InDelta(t, 2500, surplus.Amount, eps)
	assert.InDelta(t, 2500.0/130000, surplus.AssetAmount, eps)
}

func TestAnalyzeShock_BetweenTargetAndMarginCall(t *testing.T) {
	// 不变：ltv = 0.6154，位于目标和追保之间，没有建议
	res := AnalyzeShock(basePosition(), loan.DefaultThresholds(), RelativeShock(0))
	assert.Empty(t, res.Suggestions)
	assert.Equal(t, loan.ZoneElevated, res.Zone)
}

func TestAnalyzeShock_NoLoan(t *testing.T) {
	pos := basePosition()
	pos.LoanAmount = 0

	res := AnalyzeShock(pos, loan.DefaultThresholds(), AbsoluteShock(60000))
	require.Len(t, res.Suggestions, 1)

	s := res.Suggestions[0]
	assert.Equal(t, KindOpportunity, s.Kind)
	assert.InDelta(t, 1500, s.Amount, eps)
	assert.Equal(t, "With no current loan and collateral at $3,000.00, you could borrow up to $1,500.00 at your target LTV (50.0%).", s.Message)
}

func TestAnalyzeShock_PriceToZero(t *testing.T) {
	// 价格归零时 LTV 按定义为 0，不产生任何建议，也不能出现 Inf
	res := AnalyzeShock(basePosition(), loan.DefaultThresholds(), RelativeShock(-1))
	assert.Equal(t, 0.0, res.NewPrice)
	assert.Equal(t, 0.0, res.NewLTV)
	assert.Empty(t, res.Suggestions)
}

func TestPresets(t *testing.T) {
	ps := Presets()
	require.Len(t, ps, 4)

	// 返回的是副本
	ps[0].Name = "changed"
	assert.Equal(t, "flash_crash", Presets()[0].Name)

	res, err := RunPreset(basePosition(), loan.DefaultThresholds(), "Bear_Market")
	require.NoError(t, err)
	assert.InDelta(t, 32500, res.NewPrice, eps)
	assert.True(t, res.Has(KindDanger))

	_, err = RunPreset(basePosition(), loan.DefaultThresholds(), "moon")
	assert.True(t, errors.Is(err, ErrPresetNotFound))
}

func TestStressTest(t *testing.T) {
	results := StressTest(basePosition(), loan.DefaultThresholds(), RelativeShock(-0.2))
	require.Len(t, results, 5)
	assert.InDelta(t, 52000, results[0].NewPrice, eps)
	assert.InDelta(t, 130000, results[4].NewPrice, eps)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$12,345.68", FormatCurrency(12345.678))
	assert.Equal(t, "$0.00", FormatCurrency(0))
	assert.Equal(t, "-$5.50", FormatCurrency(-5.5))
	assert.Equal(t, "0.050000 BTC", FormatAsset(0.05))
	assert.Equal(t, "61.5%", FormatPercent(0.61538))
}
